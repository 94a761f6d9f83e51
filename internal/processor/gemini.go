package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const geminiMinInterval = 200 * time.Millisecond

// geminiClient wraps one genai client shared by the text processors. The
// pacer spaces out calls across all page workers.
type geminiClient struct {
	client  *genai.Client
	model   string
	pacer   *pacer
	timeout time.Duration
}

func newGeminiClient(apiKey, model string, timeout time.Duration) (*geminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.5-pro"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &geminiClient{
		client:  client,
		model:   model,
		pacer:   newPacer(geminiMinInterval),
		timeout: timeout,
	}, nil
}

func (g *geminiClient) generate(ctx context.Context, prompt string) (string, error) {
	if err := g.pacer.wait(ctx); err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	resp, err := g.client.Models.GenerateContent(
		callCtx,
		g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatusCode(apiErr.Code, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func classifyStatusCode(code int, err error) error {
	if code == 429 || code >= 500 {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrRejected, err)
}
