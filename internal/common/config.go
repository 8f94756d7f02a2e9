package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	OCR     OCRConfig
	LLM     LLMConfig
	Persist PersistConfig
	Self    SelfEntityConfig
}

// ServerConfig holds HTTP-server-related configuration
type ServerConfig struct {
	HTTPAddr  string
	UploadDir string
}

// OCRConfig holds OCR and PDF-rasterization configuration
type OCRConfig struct {
	Engine        string // "tesseract" (exec, default) | "gosseract" (in-process)
	Tesseract     string // binary name or absolute path
	Pdftoppm      string // binary name or absolute path
	TesseractLang string
	TessdataDir   string
	RenderScale   float64 // PDF page upscale factor for OCR legibility
	MaxPages      int     // 0 = no limit
}

// LLMConfig holds text-generation configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// PersistConfig holds the remote persistence endpoint configuration
type PersistConfig struct {
	URL     string
	Timeout time.Duration
}

// SelfEntityConfig identifies the operator's own organization, which must
// never be selected as the payee of an extracted record.
type SelfEntityConfig struct {
	Name    string
	TIN     string
	Address string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
			UploadDir: getEnv("UPLOAD_DIR", ""),
		},
		OCR: OCRConfig{
			Engine:        getEnv("OCR_ENGINE", "tesseract"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			RenderScale:   getEnvAsFloat64("RENDER_SCALE", 2.0),
			MaxPages:      getEnvAsInt("MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Persist: PersistConfig{
			URL:     getEnv("PERSIST_URL", ""),
			Timeout: getEnvAsDuration("PERSIST_TIMEOUT", 30*time.Second),
		},
		Self: SelfEntityConfig{
			Name:    getEnv("SELF_ENTITY_NAME", ""),
			TIN:     getEnv("SELF_ENTITY_TIN", ""),
			Address: getEnv("SELF_ENTITY_ADDRESS", ""),
		},
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Persist.URL == "" {
		return NewAppError("CONFIG_ERROR", "PERSIST_URL is required", ErrInvalidInput)
	}
	if c.OCR.RenderScale <= 0 {
		return NewAppError("CONFIG_ERROR", "RENDER_SCALE must be positive", ErrInvalidInput)
	}
	return nil
}
