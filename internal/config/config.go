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
	Index    IndexConfig
	Rag      RagConfig
	Threads  ThreadConfig
	Uploads  UploadConfig
	Workflow WorkflowConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider  string // "ollama", "openai", "gemini" or "hashing"
	EmbeddingModel     string
	EmbeddingDimension int
	LLMProvider        string // "ollama" or "openai"
	LLMModel           string
	OllamaBaseURL      string
	OpenAIBaseURL      string
	OpenAIKey          string
	GeminiKey          string
}

type IndexConfig struct {
	Backend    string // "sqlite", "postgres", "qdrant" or "memory"
	Dir        string
	QdrantAddr string
	QdrantKey  string
	DocsDir    string
	WarmOnBoot bool
}

type RagConfig struct {
	FetchK          int
	Lambda          float64
	K               int
	MaxPassageRunes int
}

type ThreadConfig struct {
	Store string // "memory", "redis" or "postgres"
	TTL   time.Duration
}

type UploadConfig struct {
	Dir string
}

type WorkflowConfig struct {
	Locale           string
	InlineTokenLimit int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 384),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
			GeminiKey:          getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Index: IndexConfig{
			Backend:    getEnv("INDEX_BACKEND", "sqlite"),
			Dir:        getEnv("INDEX_DIR", "data/index"),
			QdrantAddr: getEnv("QDRANT_ADDR", "localhost:6334"),
			QdrantKey:  getEnv("QDRANT_API_KEY", ""),
			DocsDir:    getEnv("KNOWLEDGE_BASE_DIR", "knowledge"),
			WarmOnBoot: getEnvAsBool("INDEX_WARM_ON_BOOT", true),
		},
		Rag: RagConfig{
			FetchK:          getEnvAsInt("RAG_FETCH_K", 20),
			Lambda:          getEnvAsFloat("RAG_MMR_LAMBDA", 0.5),
			K:               getEnvAsInt("RAG_K", 5),
			MaxPassageRunes: getEnvAsInt("RAG_MAX_PASSAGE_RUNES", 1200),
		},
		Threads: ThreadConfig{
			Store: getEnv("THREAD_STORE", "memory"),
			TTL:   time.Duration(getEnvAsInt("THREAD_TTL_MINUTES", 24*60)) * time.Minute,
		},
		Uploads: UploadConfig{
			Dir: getEnv("UPLOAD_DIR", "data/uploads"),
		},
		Workflow: WorkflowConfig{
			Locale:           getEnv("DEFAULT_LOCALE", "en"),
			InlineTokenLimit: getEnvAsInt("INLINE_TOKEN_LIMIT", 100_000),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "screening-onboarding-be"),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
