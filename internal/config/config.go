package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Classifier backends.
const (
	ClassifierDemo        = "demo"
	ClassifierRekognition = "rekognition"
)

// Upload archive backends.
const (
	UploadsNone = "none"
	UploadsDisk = "disk"
	UploadsS3   = "s3"
)

const minSecretLength = 16

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string

	LogLevel string
	AppEnv   string

	USDAAPIKey       string
	USDABaseURL      string
	NutritionTimeout time.Duration
	NutritionRetries int

	Classifier    string
	AWSRegion     string
	MinConfidence float64
	MaxUploadSize int64

	UploadBackend  string
	UploadDir      string
	S3Bucket       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: fallback(os.Getenv("DATABASE_URL"), "sqlite://nutrition_app.db"),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "fruit-scanner"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		LogLevel: strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		AppEnv:   strings.ToLower(fallback(os.Getenv("APP_ENV"), "development")),

		USDAAPIKey:  fallback(os.Getenv("USDA_API_KEY"), "DEMO_KEY"),
		USDABaseURL: strings.TrimRight(fallback(os.Getenv("USDA_BASE_URL"), "https://api.nal.usda.gov/fdc/v1"), "/"),

		Classifier: strings.ToLower(fallback(os.Getenv("CLASSIFIER"), ClassifierDemo)),
		AWSRegion:  fallback(os.Getenv("AWS_REGION"), "us-east-1"),

		UploadBackend:  strings.ToLower(fallback(os.Getenv("UPLOAD_BACKEND"), UploadsNone)),
		UploadDir:      fallback(os.Getenv("UPLOAD_DIR"), "uploads"),
		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3BaseEndpoint: strings.TrimSpace(os.Getenv("S3_BASE_ENDPOINT")),
		S3AccessKey:    strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey:    strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
	}

	cfg.JWTTTL = time.Duration(positiveInt(os.Getenv("JWT_TTL_MINUTES"), 60*24*7)) * time.Minute
	cfg.NutritionTimeout = time.Duration(positiveInt(os.Getenv("NUTRITION_TIMEOUT_SECONDS"), 10)) * time.Second
	cfg.NutritionRetries = nonNegativeInt(os.Getenv("NUTRITION_MAX_RETRIES"), 2)
	cfg.MaxUploadSize = int64(positiveInt(os.Getenv("MAX_UPLOAD_MB"), 5)) << 20
	cfg.MinConfidence = unitFloat(os.Getenv("MIN_CONFIDENCE"), 0.2)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	switch c.Classifier {
	case ClassifierDemo, ClassifierRekognition:
	default:
		return fmt.Errorf("unknown CLASSIFIER %q", c.Classifier)
	}
	switch c.UploadBackend {
	case UploadsNone, UploadsDisk:
	case UploadsS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when UPLOAD_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND %q", c.UploadBackend)
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Production reports whether the service runs with production defaults.
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func nonNegativeInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 0 {
		return n
	}
	return def
}

func unitFloat(value string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && f >= 0 && f <= 1 {
		return f
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
