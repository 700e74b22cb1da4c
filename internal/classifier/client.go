package classifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// HTTPClient инкапсулирует HTTP-взаимодействие с сервисом распознавания.
type HTTPClient struct {
	client *resty.Client
}

type classifyRequest struct {
	PhotoRef string `json:"photo_ref"`
}

type classifyResponse struct {
	Material string `json:"material"`
}

// NewHTTPClient создаёт клиент сервиса распознавания по указанному адресу.
func NewHTTPClient(baseURL string) *HTTPClient {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &HTTPClient{
		client: resty.New().
			SetBaseURL(base).
			SetTimeout(5 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// Classify запрашивает у сервиса материал для фотографии.
func (c *HTTPClient) Classify(ctx context.Context, photoRef string) (model.Material, error) {
	var result classifyResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(classifyRequest{PhotoRef: photoRef}).
		SetResult(&result).
		Post("/api/classify")
	if err != nil {
		return "", fmt.Errorf("classify request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusUnprocessableEntity:
		return "", ErrUnrecognized
	default:
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode())
	}

	m := model.Material(result.Material)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnrecognized, result.Material)
	}

	return m, nil
}
