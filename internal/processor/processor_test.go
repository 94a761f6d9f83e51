package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	out, err := Retry(context.Background(), 3, time.Millisecond, func() (string, error) {
		calls++
		if calls < 3 {
			return "", ErrUnavailable
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, 3, calls)
}

func TestRetry_DoesNotRetryRejected(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, time.Millisecond, func() (string, error) {
		calls++
		return "", ErrRejected
	})
	require.ErrorIs(t, err, ErrRejected)
	require.Equal(t, 1, calls)
}

func TestRetry_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, time.Millisecond, func() (string, error) {
		calls++
		return "", ErrTimeout
	})
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, 3, calls)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(ctx, 3, time.Hour, func() (string, error) {
		return "", ErrUnavailable
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegisterAndNew(t *testing.T) {
	Register("fake", func(args interface{}) (Processor, error) {
		return nil, errors.New("constructed")
	})
	_, err := New("FAKE", nil)
	require.EqualError(t, err, "constructed")

	_, err = New("unknown-processor", nil)
	require.Error(t, err)
}

func TestExtractCorrectedText(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "structured response",
			response: "CORRECTED_TEXT:\nthe restored page\n\nCHANGES_MADE:\nfixed matras",
			want:     "the restored page",
		},
		{
			name:     "trailing formatting section stripped",
			response: "CORRECTED_TEXT:\nbody here\nFORMATTING_APPLIED:\nparagraphs",
			want:     "body here",
		},
		{
			name:     "no marker but long plain answer",
			response: "this is a long enough plain response that clearly carries page content back",
			want:     "this is a long enough plain response that clearly carries page content back",
		},
		{
			name:     "short unusable response",
			response: "OK",
			want:     "",
		},
		{
			name:     "empty corrected section falls through",
			response: "CORRECTED_TEXT:\n\nCHANGES_MADE:\nnothing",
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, extractCorrectedText(tt.response))
		})
	}
}

func TestNormalizeSanskritMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"*sanskrit*om*/sanskrit*", "<om>"},
		{"**sanskrit**shanti**/sanskrit**", "<shanti>"},
		{"[sanskrit]mantra[/sanskrit]", "<mantra>"},
		{"<sanskrit>sutra</sanskrit>", "<sutra>"},
		{"a *sanskrit*x*/sanskrit* b [sanskrit]y[/sanskrit]", "a <x> b <y>"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, normalizeSanskritMarkers(tt.in), tt.in)
	}
}

func TestPacerEnforcesInterval(t *testing.T) {
	p := newPacer(20 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.wait(context.Background()))
	require.NoError(t, p.wait(context.Background()))
	require.NoError(t, p.wait(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacerHonorsCancel(t *testing.T) {
	p := newPacer(time.Hour)
	require.NoError(t, p.wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.wait(ctx), context.Canceled)
}
