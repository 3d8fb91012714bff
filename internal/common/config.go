package common

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	OCR      OCRConfig
	Analysis AnalysisConfig
	LogLevel slog.Level
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	InMemory         bool
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
}

// StorageConfig selects where uploaded document bytes are kept.
type StorageConfig struct {
	Backend        string // "fs" or "minio"
	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	PDFToTextPath string
	PDFToPPMPath  string
	TesseractPath string
	TessdataDir   string
	TesseractLang string
	PDFRasterDPI  int
	Timeout       time.Duration
}

// AnalysisConfig holds analysis pipeline configuration
type AnalysisConfig struct {
	RulesFile         string
	TextSourceTimeout time.Duration
	RecordSinkTimeout time.Duration
	Workers           int
	QueueSize         int
	JobTimeout        time.Duration
	InboxDirs         []string
	InboxOwner        string
	InboxCategory     string
}

// Storage backends.
const (
	StorageFS    = "fs"
	StorageMinio = "minio"
)

// LoadDotEnv loads .env.local and .env from the working directory when they
// exist. Variables already present in the environment win.
func LoadDotEnv() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return WrapError(err, "load "+name)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			InMemory:         getEnvAsBool("DB_INMEM", false),
			SQLitePath:       getEnv("SQLITE_PATH", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", StorageFS)),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "documents"),
			MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		OCR: OCRConfig{
			PDFToTextPath: getEnv("PDFTOTEXT_PATH", "pdftotext"),
			PDFToPPMPath:  getEnv("PDFTOPPM_PATH", "pdftoppm"),
			TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			PDFRasterDPI:  getEnvAsInt("PDF_RASTER_DPI", 300),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		Analysis: AnalysisConfig{
			RulesFile:         getEnv("RULES_FILE", ""),
			TextSourceTimeout: getEnvAsDuration("TEXT_SOURCE_TIMEOUT", 30*time.Second),
			RecordSinkTimeout: getEnvAsDuration("RECORD_SINK_TIMEOUT", 10*time.Second),
			Workers:           getEnvAsInt("ANALYSIS_WORKERS", 2),
			QueueSize:         getEnvAsInt("ANALYSIS_QUEUE_SIZE", 100),
			JobTimeout:        getEnvAsDuration("ANALYSIS_JOB_TIMEOUT", 2*time.Minute),
			InboxDirs:         getEnvAsList("INBOX_DIRS"),
			InboxOwner:        getEnv("INBOX_OWNER", ""),
			InboxCategory:     getEnv("INBOX_CATEGORY", "Financial"),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return lvl
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" && !c.Database.InMemory && c.Database.SQLitePath == "" {
		return NewAppError(CodeConfig, "DB_URL is required unless DB_INMEM or SQLITE_PATH is set", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case StorageFS:
		if c.Storage.UploadDir == "" {
			return NewAppError(CodeConfig, "UPLOAD_DIR is required for the fs backend", ErrInvalidInput)
		}
	case StorageMinio:
		if c.Storage.MinioEndpoint == "" || c.Storage.MinioBucket == "" {
			return NewAppError(CodeConfig, "MINIO_ENDPOINT and MINIO_BUCKET are required for the minio backend", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, "STORAGE_BACKEND must be fs or minio", ErrInvalidInput)
	}
	if c.Analysis.Workers <= 0 || c.Analysis.QueueSize <= 0 {
		return NewAppError(CodeConfig, "ANALYSIS_WORKERS and ANALYSIS_QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	if len(c.Analysis.InboxDirs) > 0 && c.Analysis.InboxOwner == "" {
		return NewAppError(CodeConfig, "INBOX_OWNER is required when INBOX_DIRS is set", ErrInvalidInput)
	}
	return nil
}
