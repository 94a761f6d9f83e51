package processor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

type ocrConfig struct {
	APIKey  string `json:"api_key"`
	Timeout int64  `json:"timeout_seconds"`
}

// ocrProcessor extracts text from a single-page PDF through the Google
// Vision files:annotate endpoint.
type ocrProcessor struct {
	svc     *vision.Service
	timeout time.Duration
}

func init() {
	Register("ocr", createOCRProcessor)
}

func createOCRProcessor(args interface{}) (Processor, error) {
	cfg := &ocrConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("vision api key is required")
	}
	svc, err := vision.NewService(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ocrProcessor{svc: svc, timeout: timeout}, nil
}

func (p *ocrProcessor) Name() string {
	return "ocr"
}

func (p *ocrProcessor) Process(ctx context.Context, unit Unit) (string, error) {
	if len(unit.PDF) == 0 {
		return "", fmt.Errorf("%w: ocr requires pdf page content", ErrRejected)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req := &vision.BatchAnnotateFilesRequest{
		Requests: []*vision.AnnotateFileRequest{{
			InputConfig: &vision.InputConfig{
				Content:  base64.StdEncoding.EncodeToString(unit.PDF),
				MimeType: "application/pdf",
			},
			Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			Pages:    []int64{1},
		}},
	}
	resp, err := p.svc.Files.Annotate(req).Context(callCtx).Do()
	if err != nil {
		return "", classifyVisionError(err)
	}
	if len(resp.Responses) == 0 || len(resp.Responses[0].Responses) == 0 {
		return "", nil
	}
	page := resp.Responses[0].Responses[0]
	if page.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrRejected, page.Error.Message)
	}
	if page.FullTextAnnotation == nil {
		return "", nil
	}
	return strings.TrimSpace(page.FullTextAnnotation.Text), nil
}

func classifyVisionError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyStatusCode(apiErr.Code, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
