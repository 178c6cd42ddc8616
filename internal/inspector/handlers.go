// Package inspector serves the side-view analysis endpoints: retailer
// lookup, plastic detection, and material classification over the Vision
// API's annotations.
package inspector

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/packscan/internal/materials"
	"github.com/example/packscan/internal/vision"
)

const sideViewField = "side_view"

// RegisterRoutes wires the inspector endpoints. Each endpoint accepts both
// GET and POST with a multipart `side_view` file, mirroring the upstream
// route setup.
func RegisterRoutes(router *gin.Engine, annotator vision.Annotator, logger *zap.Logger) {
	logger = logger.Named("inspector")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handle(router, "/find_retailer", func(c *gin.Context, photo []byte) {
		annotations, err := annotator.Annotate(c.Request.Context(), photo,
			vision.FeatureLogoDetection, vision.FeatureTextDetection)
		if err != nil {
			visionFailure(c, logger, "find_retailer", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"retailer": materials.PickRetailer(annotations.Logos, annotations.Texts),
		})
	})

	handle(router, "/check_plastic", func(c *gin.Context, photo []byte) {
		annotations, err := annotator.Annotate(c.Request.Context(), photo, vision.FeatureLabelDetection)
		if err != nil {
			visionFailure(c, logger, "check_plastic", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"has_plastic": materials.ContainsPlastic(annotations.Labels),
		})
	})

	handle(router, "/find_materials", func(c *gin.Context, photo []byte) {
		annotations, err := annotator.Annotate(c.Request.Context(), photo, vision.FeatureLabelDetection)
		if err != nil {
			visionFailure(c, logger, "find_materials", err)
			return
		}
		c.JSON(http.StatusOK, materials.Classify(annotations.Labels))
	})
}

// handle registers fn for GET and POST, reading the side_view file first.
func handle(router *gin.Engine, path string, fn func(c *gin.Context, photo []byte)) {
	wrapped := func(c *gin.Context) {
		photo, ok := readSideView(c)
		if !ok {
			return
		}
		fn(c, photo)
	}
	router.GET(path, wrapped)
	router.POST(path, wrapped)
}

func readSideView(c *gin.Context) ([]byte, bool) {
	header, err := c.FormFile(sideViewField)
	if err != nil {
		badSideView(c)
		return nil, false
	}
	src, err := header.Open()
	if err != nil {
		badSideView(c)
		return nil, false
	}
	defer src.Close()

	photo, err := io.ReadAll(src)
	if err != nil || len(photo) == 0 {
		badSideView(c)
		return nil, false
	}
	return photo, true
}

func badSideView(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad side_view file"})
}

func visionFailure(c *gin.Context, logger *zap.Logger, operation string, err error) {
	logger.Error("vision annotation failed", zap.String("operation", operation), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "image analysis failed"})
}
