package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider failure classes. Unavailable and Timeout are transient and worth
// retrying; Rejected means the provider refused the input or quota and a
// retry would fail the same way.
var (
	ErrUnavailable = errors.New("provider unavailable")
	ErrRejected    = errors.New("provider rejected request")
	ErrTimeout     = errors.New("provider timeout")
)

// Unit is one page worth of work. Text carries extracted page text; PDF
// carries a single-page PDF for vision-based extraction.
type Unit struct {
	Index          int
	Text           string
	PDF            []byte
	Language       string
	TargetLanguage string
}

type Processor interface {
	Name() string
	Process(ctx context.Context, unit Unit) (string, error)
}

type Factory func(args interface{}) (Processor, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func New(name string, args interface{}) (Processor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("processor name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported processor: %s", name)
	}
	return factory(args)
}

// Retry runs fn up to attempts times, backing off exponentially from base
// between tries. Only transient failures are retried.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func() (string, error)) (string, error) {
	var out string
	var err error
	for i := 0; i < attempts; i++ {
		out, err = fn()
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrUnavailable) && !errors.Is(err, ErrTimeout) {
			return "", err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(base << uint(i)):
		}
	}
	return "", err
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("processor config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode processor config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode processor config: %w", err)
	}
	return nil
}
