package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single prediction call. The upload flow performs no
// retries, so a hung model process must not hold the request open forever.
const DefaultTimeout = 30 * time.Second

// HTTPClient posts images to the prediction service as multipart form data.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("inference_client"),
	}
}

// predictionResponse mirrors the service's JSON body. The key names come from
// the model server's bounding-box output.
type predictionResponse struct {
	OuterBox float64 `json:"outerbox"`
	InnerBox float64 `json:"innerbox"`
	Item     float64 `json:"item"`
}

// Predict submits the image and returns the measured box sizes.
func (c *HTTPClient) Predict(ctx context.Context, image []byte) (*Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "infer.png")
	if err != nil {
		return nil, fmt.Errorf("building prediction request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("building prediction request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("building prediction request: %w", err)
	}

	url := fmt.Sprintf("%s/predict", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating prediction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("prediction call failed", zap.Error(err))
		return nil, fmt.Errorf("calling prediction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("prediction service returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", errBody))
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var decoded predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding prediction response: %w", err)
	}

	return &Prediction{
		OuterSize: decoded.OuterBox,
		InnerSize: decoded.InnerBox,
		ItemSize:  decoded.Item,
	}, nil
}
