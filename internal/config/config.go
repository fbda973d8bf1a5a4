package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Pipeline PipelineConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	UsageLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	Provider string // "ollama", "openai", "huggingface", "openrouter", "groq"
	Model    string // e.g. "llama3", "gpt-4o-mini"
	BaseURL  string // empty = provider default
	APIKey   string
	Timeout  time.Duration
}

type PipelineConfig struct {
	MaxChunkSize        int
	ExtractionMaxChars  int
	CondenseMinChars    int // below this the source is used as-is
	GuidedMinChars      int // below this condensation skips importance extraction
	CondenseTargetRatio float64
	CondenseMaxAttempts int
	QuotaResetAfter     time.Duration
	QuotaProbeInterval  time.Duration // 0 disables probe calls while the flag is set
	FallbackBackend     string // "memory" or "redis"
	GradingCacheSize    int
	CondensationTopic   string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string // OTLP/HTTP host:port
	Insecure    bool
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			UsageLogFilePath:   getEnv("AI_USAGE_LOG_FILE_PATH", "logs/ai_usage.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			Provider: getEnv("LLM_PROVIDER", "ollama"),
			Model:    getEnv("LLM_MODEL", "llama3"),
			BaseURL:  getEnv("LLM_BASE_URL", ""),
			APIKey:   getEnv("LLM_API_KEY", ""),
			Timeout:  getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxChunkSize:        getEnvAsInt("PIPELINE_MAX_CHUNK_SIZE", 25000),
			ExtractionMaxChars:  getEnvAsInt("PIPELINE_EXTRACTION_MAX_CHARS", 45000),
			CondenseMinChars:    getEnvAsInt("PIPELINE_CONDENSE_MIN_CHARS", 4000),
			GuidedMinChars:      getEnvAsInt("PIPELINE_GUIDED_MIN_CHARS", 3000),
			CondenseTargetRatio: getEnvAsFloat("PIPELINE_CONDENSE_TARGET_RATIO", 0.30),
			CondenseMaxAttempts: getEnvAsInt("PIPELINE_CONDENSE_MAX_ATTEMPTS", 3),
			QuotaResetAfter:     getEnvAsDuration("AI_QUOTA_RESET_AFTER", 10*time.Minute),
			QuotaProbeInterval:  getEnvAsDuration("AI_QUOTA_PROBE_INTERVAL", time.Minute),
			FallbackBackend:     getEnv("AI_QUOTA_STATE_BACKEND", "memory"),
			GradingCacheSize:    getEnvAsInt("ESSAY_GRADING_CACHE_SIZE", 512),
			CondensationTopic:   getEnv("CONDENSE_DOCUMENT_TOPIC_NAME", "CONDENSE_DOCUMENT"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-studyquiz-backend"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Insecure:    getEnv("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true",
			SampleRatio: getEnvAsFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0),
		},
	}
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

// getEnvAsDuration accepts Go durations ("90s", "10m") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
