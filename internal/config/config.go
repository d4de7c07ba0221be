package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Policy   PolicyConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider        string // "ollama" or "huggingface"
	LLMModel           string // e.g. "llama3.2"
	OllamaBaseURL      string
	Temperature        float64
	ClassifierTimeout  time.Duration
	HuggingFaceBaseURL string
	HuggingFaceAPIKey  string
}

type PolicyConfig struct {
	DataDir          string
	CatalogFile      string // optional courses.yaml, relative to DataDir when not absolute
	DefaultCourse    string
	WatchDocuments   bool
	WatchDebounce    time.Duration
	CalendarYear     int
	CalendarTimezone string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "policylens.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3.2"),
			OllamaBaseURL:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
			Temperature:        getEnvAsFloat("LLM_TEMPERATURE", 0),
			ClassifierTimeout:  getEnvAsDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", "https://router.huggingface.co/v1"),
			HuggingFaceAPIKey:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Policy: PolicyConfig{
			DataDir:          getEnv("POLICY_DATA_DIR", "data"),
			CatalogFile:      getEnv("POLICY_CATALOG_FILE", "courses.yaml"),
			DefaultCourse:    getEnv("DEFAULT_COURSE", ""),
			WatchDocuments:   getEnvAsBool("POLICY_WATCH", true),
			WatchDebounce:    getEnvAsDuration("POLICY_WATCH_DEBOUNCE", 500*time.Millisecond),
			CalendarYear:     getEnvAsInt("CALENDAR_YEAR", time.Now().Year()),
			CalendarTimezone: getEnv("CALENDAR_TIMEZONE", "America/Vancouver"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
