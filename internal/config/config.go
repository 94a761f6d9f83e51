package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	WebDir   string `env:"WEB_DIR" envDefault:"./web"`

	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`
	VisionAPIKey string `env:"GOOGLE_VISION_API_KEY,required"`

	MongoURI string `env:"MONGODB_URI,required"`
	MongoDB  string `env:"MONGO_DB,required"`

	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID,required"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET,required"`

	SessionSecret   string `env:"SESSION_SECRET,required"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"72"`

	Mail MailConfig

	GeminiModel    string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-pro"`
	WorkerCount    int    `env:"WORKER_COUNT" envDefault:"5"`
	FreeTrialPages int    `env:"FREE_TRIAL_PAGES" envDefault:"3"`
	PricePerPage   int64  `env:"PRICE_PER_PAGE_PAISE" envDefault:"1000"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:""`

	FileStore FileStoreConfig

	JobRetentionHours int `env:"JOB_RETENTION_HOURS" envDefault:"24"`
	JobStallMinutes   int `env:"JOB_STALL_MINUTES" envDefault:"60"`
}

type MailConfig struct {
	Host     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	From     string `env:"SENDER_EMAIL,required"`
	Password string `env:"SENDER_PASSWORD,required"`
}

type FileStoreConfig struct {
	Type string `env:"FILE_STORE" envDefault:"local"`
	Dir  string `env:"OUTPUT_DIR" envDefault:"./output"`
	S3   S3Config
}

type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" envDefault:"ap-south-1"`
	Bucket    string `env:"S3_BUCKET"`
	SecretID  string `env:"S3_SECRET_ID"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Prefix    string `env:"S3_PREFIX"`
}

// Load reads configuration from the environment, with an optional .env file
// for local development. Missing credentials fail here, at startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 5
	}
	switch cfg.FileStore.Type {
	case "local":
		if cfg.FileStore.Dir == "" {
			return nil, fmt.Errorf("OUTPUT_DIR is required for local store")
		}
	case "s3":
		s3 := cfg.FileStore.S3
		if s3.Bucket == "" || s3.SecretID == "" || s3.SecretKey == "" {
			return nil, fmt.Errorf("S3_BUCKET/S3_SECRET_ID/S3_SECRET_KEY are required for s3 store")
		}
	default:
		return nil, fmt.Errorf("FILE_STORE must be local or s3")
	}
	return &cfg, nil
}
