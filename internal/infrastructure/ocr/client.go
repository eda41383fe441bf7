// Package ocr talks to the external OCR engine.  The engine takes image bytes
// and returns raw text with no structural guarantees.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appn "github.com/turtacn/MedRx-Intelligence/internal/application/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// httpClient posts the image to the engine's /recognize endpoint and decodes
// {"text": "..."}.
type httpClient struct {
	endpoint string
	client   *http.Client
	logger   logging.Logger
}

// NewHTTPClient builds the OCR client from config.
func NewHTTPClient(cfg config.OCRConfig, logger logging.Logger) (appn.OCRClient, error) {
	if !cfg.Enabled() {
		return nil, errors.New(errors.ErrCodeBadRequest, "ocr endpoint not configured")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("ocr"),
	}, nil
}

func (c *httpClient) Recognize(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/recognize", bytes.NewReader(image))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "build ocr request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "call ocr engine")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.New(errors.ErrCodeOCRFailed,
			fmt.Sprintf("ocr engine returned %d: %s", resp.StatusCode, body))
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "decode ocr response")
	}
	return out.Text, nil
}
