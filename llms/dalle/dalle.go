// Package dalle implements research.ImageModel with OpenAI's image API.
package dalle

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/smallnest/researchdeck/llms/prompt"
	"github.com/smallnest/researchdeck/research"
)

// Illustrator generates slide backgrounds with DALL·E.
type Illustrator struct {
	client *openai.Client
	model  string
	size   string
}

var _ research.ImageModel = (*Illustrator)(nil)

// Option configures an Illustrator.
type Option func(*openai.ClientConfig, *Illustrator)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *openai.ClientConfig, _ *Illustrator) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// WithModel overrides the image model.
func WithModel(model string) Option {
	return func(_ *openai.ClientConfig, i *Illustrator) {
		if model != "" {
			i.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *openai.ClientConfig, _ *Illustrator) {
		c.HTTPClient = hc
	}
}

// New creates an Illustrator.
func New(apiKey string, opts ...Option) (*Illustrator, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	i := &Illustrator{model: openai.CreateImageModelDallE3, size: openai.CreateImageSize1792x1024}
	for _, opt := range opts {
		opt(&cfg, i)
	}
	i.client = openai.NewClientWithConfig(cfg)
	return i, nil
}

// GenerateImage implements research.Illustrator.
func (i *Illustrator) GenerateImage(ctx context.Context, visualPrompt, persona string) (string, error) {
	resp, err := i.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt.Image(visualPrompt, persona),
		Model:          i.model,
		Size:           i.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		var apiErr *openai.APIError
		if (errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests) || research.IsQuotaError(err) {
			return "", fmt.Errorf("%w: %w", research.ErrQuota, err)
		}
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	if resp.Data[0].B64JSON != "" {
		return "data:image/png;base64," + resp.Data[0].B64JSON, nil
	}
	return resp.Data[0].URL, nil
}
