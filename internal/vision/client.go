// Package vision calls the Google Vision images:annotate REST endpoint and
// reduces the response to plain annotation description lists. The API is
// treated as an opaque labeler; scores and bounding geometry are dropped.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Feature identifies a Vision API detection feature.
type Feature string

const (
	FeatureLabelDetection Feature = "LABEL_DETECTION"
	FeatureLogoDetection  Feature = "LOGO_DETECTION"
	FeatureTextDetection  Feature = "TEXT_DETECTION"
)

// Each feature is requested with at most this many results.
const maxResultsPerFeature = 10

// Annotations groups the description strings returned per feature.
type Annotations struct {
	Labels []string
	Logos  []string
	Texts  []string
}

// Annotator is the subset of the Vision API the services consume.
type Annotator interface {
	Annotate(ctx context.Context, image []byte, features ...Feature) (*Annotations, error)
}

// Client is an HTTP Annotator against the images:annotate endpoint.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewClient(endpoint, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.Named("vision_client"),
	}
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent     `json:"image"`
	Features []featureRequest `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type featureRequest struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
}

type imageResponse struct {
	LabelAnnotations []entityAnnotation `json:"labelAnnotations"`
	LogoAnnotations  []entityAnnotation `json:"logoAnnotations"`
	TextAnnotations  []entityAnnotation `json:"textAnnotations"`
	Error            *responseStatus    `json:"error"`
}

type entityAnnotation struct {
	Description string `json:"description"`
}

type responseStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Annotate submits the image for the requested features and returns the
// annotation descriptions grouped by feature.
func (c *Client) Annotate(ctx context.Context, image []byte, features ...Feature) (*Annotations, error) {
	if len(features) == 0 {
		return nil, errors.New("no features requested")
	}

	reqBody := annotateRequest{
		Requests: []imageRequest{{
			Image: imageContent{Content: base64.StdEncoding.EncodeToString(image)},
		}},
	}
	for _, feature := range features {
		reqBody.Requests[0].Features = append(reqBody.Requests[0].Features, featureRequest{
			Type:       string(feature),
			MaxResults: maxResultsPerFeature,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling annotate request: %w", err)
	}

	url := c.endpoint
	if c.apiKey != "" {
		url = fmt.Sprintf("%s?key=%s", c.endpoint, c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("vision request failed", zap.Error(err))
		return nil, fmt.Errorf("calling vision api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("vision api returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("vision api returned status %d", resp.StatusCode)
	}

	var decoded annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding annotate response: %w", err)
	}
	if len(decoded.Responses) == 0 {
		return nil, errors.New("vision api returned no responses")
	}

	first := decoded.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("vision api error %d: %s", first.Error.Code, first.Error.Message)
	}

	return &Annotations{
		Labels: descriptions(first.LabelAnnotations),
		Logos:  descriptions(first.LogoAnnotations),
		Texts:  descriptions(first.TextAnnotations),
	}, nil
}

func descriptions(annotations []entityAnnotation) []string {
	out := make([]string, 0, len(annotations))
	for _, annotation := range annotations {
		out = append(out, annotation.Description)
	}
	return out
}
