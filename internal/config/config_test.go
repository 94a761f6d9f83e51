package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GOOGLE_VISION_API_KEY", "v-key")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB", "akshardoc")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_secret")
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("SENDER_EMAIL", "noreply@example.com")
	t.Setenv("SENDER_PASSWORD", "mail-pass")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	require.Equal(t, 587, cfg.Mail.Port)
	require.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	require.Equal(t, 5, cfg.WorkerCount)
	require.Equal(t, 3, cfg.FreeTrialPages)
	require.Equal(t, int64(1000), cfg.PricePerPage)
	require.Equal(t, "local", cfg.FileStore.Type)
}

func TestLoad_MissingCredentialFailsFast(t *testing.T) {
	setRequiredEnv(t)
	// t.Setenv registered the restore; required means "set", not "non-empty".
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsUnknownFileStore(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FILE_STORE", "ftp")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_S3RequiresCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FILE_STORE", "s3")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("S3_BUCKET", "outputs")
	t.Setenv("S3_SECRET_ID", "id")
	t.Setenv("S3_SECRET_KEY", "key")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "outputs", cfg.FileStore.S3.Bucket)
}
