package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/packscan/internal/vision"
)

type stubAnnotator struct {
	annotations *vision.Annotations
	err         error
	features    []vision.Feature
}

func (s *stubAnnotator) Annotate(ctx context.Context, image []byte, features ...vision.Feature) (*vision.Annotations, error) {
	s.features = features
	if s.err != nil {
		return nil, s.err
	}
	return s.annotations, nil
}

func newTestRouter(annotator vision.Annotator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, annotator, zap.NewNop())
	return router
}

func buildSideViewBody(t *testing.T, field string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "side.png")
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func postSideView(t *testing.T, router *gin.Engine, path, field string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := buildSideViewBody(t, field, payload)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestFindMaterialsReportsFlags(t *testing.T) {
	annotator := &stubAnnotator{annotations: &vision.Annotations{Labels: []string{"plastic", "cardboard", "bottle"}}}
	router := newTestRouter(annotator)

	resp := postSideView(t, router, "/find_materials", "side_view", []byte("photo"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var flags map[string]bool
	if err := json.Unmarshal(resp.Body.Bytes(), &flags); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !flags["has_plastic"] || !flags["has_cardboard"] {
		t.Fatalf("expected plastic and cardboard flags, got %v", flags)
	}
	if flags["has_paper"] || flags["has_carton"] {
		t.Fatalf("expected paper and carton to be false, got %v", flags)
	}
	if len(annotator.features) != 1 || annotator.features[0] != vision.FeatureLabelDetection {
		t.Fatalf("expected label detection only, got %v", annotator.features)
	}
}

func TestFindMaterialsIsCaseSensitive(t *testing.T) {
	annotator := &stubAnnotator{annotations: &vision.Annotations{Labels: []string{"Plastic"}}}
	router := newTestRouter(annotator)

	resp := postSideView(t, router, "/find_materials", "side_view", []byte("photo"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var flags map[string]bool
	if err := json.Unmarshal(resp.Body.Bytes(), &flags); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for name, value := range flags {
		if value {
			t.Fatalf("expected all flags false for %q label, %s was true", "Plastic", name)
		}
	}
}

func TestCheckPlasticUsesSubstringMatch(t *testing.T) {
	annotator := &stubAnnotator{annotations: &vision.Annotations{Labels: []string{"Plastic bottle"}}}
	router := newTestRouter(annotator)

	resp := postSideView(t, router, "/check_plastic", "side_view", []byte("photo"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		HasPlastic bool `json:"has_plastic"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.HasPlastic {
		t.Fatal("expected has_plastic true")
	}
}

func TestFindRetailerPrefersLogo(t *testing.T) {
	annotator := &stubAnnotator{annotations: &vision.Annotations{
		Logos: []string{"Acme"},
		Texts: []string{"something else"},
	}}
	router := newTestRouter(annotator)

	resp := postSideView(t, router, "/find_retailer", "side_view", []byte("photo"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Retailer string `json:"retailer"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Retailer != "Acme" {
		t.Fatalf("expected Acme, got %q", payload.Retailer)
	}
}

func TestMissingSideViewFileReturns400(t *testing.T) {
	router := newTestRouter(&stubAnnotator{annotations: &vision.Annotations{}})

	for _, path := range []string{"/find_retailer", "/check_plastic", "/find_materials"} {
		resp := postSideView(t, router, path, "wrong_field", []byte("photo"))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.Code)
		}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if payload.Error != "bad side_view file" {
			t.Fatalf("%s: unexpected error message %q", path, payload.Error)
		}
	}
}

func TestVisionFailureReturns500(t *testing.T) {
	router := newTestRouter(&stubAnnotator{err: errors.New("quota exceeded")})

	resp := postSideView(t, router, "/find_materials", "side_view", []byte("photo"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
