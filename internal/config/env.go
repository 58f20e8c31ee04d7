package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting. It is built once at startup and
// passed by pointer into each constructor; there is no ambient global state.
type Config struct {
	DatabaseURL string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	AIAPIKey   string
	GenModel   string
	EmbedModel string
	EmbedDim   int

	OCRLanguage string
	OCRDpi      int

	TempDir         string
	MaxUploadSizeMB int64

	ChunkSize    int
	ChunkOverlap int

	NumWorkers        int
	MaxJobsPerWorker  int
	JobLeaseMinutes   int
	MaxJobAttempts    int
	RetryBaseSeconds  int
	WorkerPollSeconds int

	Port string
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "documentos-ugel"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 768),

		OCRLanguage: getEnv("OCR_LANGUAGE", "spa"),
		OCRDpi:      getEnvInt("OCR_DPI", 300),

		TempDir:         getEnv("TEMP_DIR", "/tmp/sgd-uploads"),
		MaxUploadSizeMB: int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 50)),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 100),

		NumWorkers:        getEnvInt("NUM_WORKERS", 2),
		MaxJobsPerWorker:  getEnvInt("MAX_JOBS_PER_WORKER", 50),
		JobLeaseMinutes:   getEnvInt("JOB_LEASE_MINUTES", 60),
		MaxJobAttempts:    getEnvInt("MAX_JOB_ATTEMPTS", 3),
		RetryBaseSeconds:  getEnvInt("RETRY_BASE_SECONDS", 60),
		WorkerPollSeconds: getEnvInt("WORKER_POLL_SECONDS", 2),

		Port: getEnv("PORT", "8080"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
