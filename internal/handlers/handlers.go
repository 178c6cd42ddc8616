package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/packscan/internal/auth"
	"github.com/example/packscan/internal/usecase"
)

// MaxUploadSize caps a single uploaded image file.
const MaxUploadSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// badRequestErrors are the user-correctable failures; everything else maps
// to a 500.
var badRequestErrors = []error{
	usecase.ErrInvalidEmail,
	usecase.ErrInvalidPackager,
	usecase.ErrInvalidImage,
	usecase.ErrInferenceFailed,
	usecase.ErrInferenceCleanupFailed,
	usecase.ErrPostNotFound,
	usecase.ErrNotOwner,
	usecase.ErrDuplicatePrediction,
}

// RegisterRoutes wires the API endpoints to the gin router. The auth
// middleware guards the feed and delete paths only; uploads and chart data
// are open, matching the upstream permission setup.
func RegisterRoutes(router *gin.Engine, uc *usecase.PostUseCase, authRequired gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/chart-data", func(c *gin.Context) {
		data, err := uc.GetChartData(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, data)
	})

	router.POST("/upload", func(c *gin.Context) {
		topImage, ok := readImageFile(c, "top_img")
		if !ok {
			return
		}
		sideImage, ok := readImageFile(c, "side_img")
		if !ok {
			return
		}

		result, err := uc.Upload(c.Request.Context(), usecase.UploadInput{
			Email:     c.PostForm("email"),
			Packager:  c.PostForm("packager"),
			TopImage:  topImage,
			SideImage: sideImage,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": result})
	})

	router.DELETE("/post", authRequired, func(c *gin.Context) {
		var req deletePostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"response": usecase.ErrPostNotFound.Error()})
			return
		}

		email, _ := auth.Subject(c.Request.Context())
		if err := uc.DeletePost(c.Request.Context(), req.PostID, email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": "post was deleted successfully."})
	})

	router.GET("/feed", authRequired, func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}

		feed, err := uc.Feed(c.Request.Context(), page)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, feed)
	})
}

type deletePostRequest struct {
	PostID uint `json:"post_id" binding:"required"`
}

// readImageFile pulls one multipart image file out of the request, enforcing
// the size cap and content-type allowlist. It writes the error response
// itself and reports success through the bool.
func readImageFile(c *gin.Context, field string) ([]byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"response": usecase.ErrInvalidImage.Error()})
		return nil, false
	}
	if header.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"response": "image file too large"})
		return nil, false
	}
	if contentType := header.Header.Get("Content-Type"); contentType != "" && !allowedImageTypes[contentType] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"response": "unsupported image type"})
		return nil, false
	}

	data, err := readAll(header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"response": usecase.ErrInvalidImage.Error()})
		return nil, false
	}
	return data, true
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func respondError(c *gin.Context, err error) {
	for _, sentinel := range badRequestErrors {
		if errors.Is(err, sentinel) {
			c.JSON(http.StatusBadRequest, gin.H{"response": sentinel.Error()})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"response": "internal error."})
}
