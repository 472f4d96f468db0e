// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"invscan/pkg/imgprep"
	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
)

// Preprocess modes.
const (
	PreprocessImaging = "imaging"
	PreprocessGoCV    = "gocv"
	PreprocessNone    = "none"
)

// Config holds every setting of the service, the worker, the bot and the tools.
type Config struct {
	HTTPAddr      string
	DatabaseDSN   string
	AutoMigrate   bool
	JWTSecret     string
	UploadBase    string
	MaxUploadSize int64

	// Redis enables the asynq queue; empty means scans run in the request.
	RedisAddr         string
	WorkerConcurrency int
	ScanTimeout       time.Duration

	TelegramToken string

	OCRLanguage string
	OCRLevel    ocr.Level
	OCRPSM      int
	Preprocess  string
	CropRegion  imgprep.Region
	Threshold   imgprep.Threshold
	RulesFile   string

	MinConfidence float64
	MaxDistance   float64
	MinQuantity   int
	MaxQuantity   int

	LogLevel  string
	LogPretty bool
}

// Load reads ./.env when present (existing variables win) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	level, err := ocr.ParseLevel(getEnvOrDefault("OCR_LEVEL", "word"))
	if err != nil {
		return nil, err
	}
	region, err := imgprep.ParseRegion(os.Getenv("CROP_REGION"))
	if err != nil {
		return nil, fmt.Errorf("CROP_REGION: %w", err)
	}
	opts := inventory.DefaultOptions()

	cfg := &Config{
		HTTPAddr:          getEnvOrDefault("HTTP_ADDR", ":8081"),
		DatabaseDSN:       os.Getenv("DB_DSN"),
		AutoMigrate:       getEnvAsBoolOrDefault("DB_AUTO_MIGRATE", true),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", "dev-insecure-secret-change"),
		UploadBase:        getEnvOrDefault("UPLOAD_BASE", "uploads"),
		MaxUploadSize:     int64(getEnvAsIntOrDefault("MAX_UPLOAD_MB", 8)) << 20,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 2),
		ScanTimeout:       time.Duration(getEnvAsIntOrDefault("SCAN_TIMEOUT_SEC", 60)) * time.Second,
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		OCRLanguage:       getEnvOrDefault("OCR_LANG", "eng"),
		OCRLevel:          level,
		OCRPSM:            getEnvAsIntOrDefault("OCR_PSM", 11),
		Preprocess:        strings.ToLower(getEnvOrDefault("PREPROCESS", PreprocessImaging)),
		CropRegion:        region,
		Threshold:         imgprep.Threshold(strings.ToLower(getEnvOrDefault("THRESHOLD", string(imgprep.ThresholdOtsu)))),
		RulesFile:         os.Getenv("RULES_FILE"),
		MinConfidence:     getEnvAsFloatOrDefault("MIN_CONFIDENCE", opts.MinConfidence),
		MaxDistance:       getEnvAsFloatOrDefault("MAX_DISTANCE", opts.MaxDistance),
		MinQuantity:       getEnvAsIntOrDefault("MIN_QUANTITY", opts.Plausible.Min),
		MaxQuantity:       getEnvAsIntOrDefault("MAX_QUANTITY", opts.Plausible.Max),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBoolOrDefault("LOG_PRETTY", false),
	}
	if cfg.Threshold == "none" {
		cfg.Threshold = imgprep.ThresholdNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges. DB_DSN and TELEGRAM_TOKEN are checked by the
// binaries that need them.
func (c *Config) Validate() error {
	switch c.Preprocess {
	case PreprocessImaging, PreprocessGoCV, PreprocessNone:
	default:
		return fmt.Errorf("PREPROCESS must be imaging, gocv or none, got %q", c.Preprocess)
	}
	switch c.Threshold {
	case imgprep.ThresholdNone, imgprep.ThresholdOtsu, imgprep.ThresholdAdaptive:
	default:
		return fmt.Errorf("THRESHOLD must be otsu, adaptive or none, got %q", c.Threshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("MIN_CONFIDENCE must be between 0 and 1, got %v", c.MinConfidence)
	}
	if c.MaxDistance < 0 {
		return fmt.Errorf("MAX_DISTANCE must not be negative, got %v", c.MaxDistance)
	}
	if c.MinQuantity < 0 || c.MinQuantity > c.MaxQuantity {
		return fmt.Errorf("quantity range [%d, %d] is invalid", c.MinQuantity, c.MaxQuantity)
	}
	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 64 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 64, got %d", c.WorkerConcurrency)
	}
	if c.OCRPSM < 0 || c.OCRPSM > 13 {
		return fmt.Errorf("OCR_PSM must be between 0 and 13, got %d", c.OCRPSM)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// InterpretOptions returns the interpreter thresholds.
func (c *Config) InterpretOptions() inventory.Options {
	return inventory.Options{
		MinConfidence: c.MinConfidence,
		Plausible:     inventory.Range{Min: c.MinQuantity, Max: c.MaxQuantity},
		MaxDistance:   c.MaxDistance,
	}
}

// PreprocessOptions returns the imaging pipeline settings.
func (c *Config) PreprocessOptions() imgprep.Options {
	o := imgprep.DefaultOptions()
	o.Region = c.CropRegion
	o.Binarize = c.Threshold
	return o
}

// SetupLogging configures the global zerolog logger.
func (c *Config) SetupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBoolOrDefault treats false/0/no/off as false and anything else set as true.
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return defaultValue
	case "false", "0", "no", "off":
		return false
	}
	return true
}
