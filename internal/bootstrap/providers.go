package bootstrap

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"screening-onboarding-be/internal/config"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/internal/repository/contract"
	"screening-onboarding-be/internal/repository/implementation"
	"screening-onboarding-be/internal/repository/memory"
	"screening-onboarding-be/pkg/embedding"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/llm/factory"
	"screening-onboarding-be/pkg/rag/chunker"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/rag/search"
	"screening-onboarding-be/pkg/workflow"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NeedsDatabase reports whether any configured component stores in postgres.
func NeedsDatabase(cfg *config.Config) bool {
	return cfg.Index.Backend == "postgres" || cfg.Threads.Store == "postgres"
}

func NewEmbedder(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	ec := embedding.Config{
		Provider:  cfg.Ai.EmbeddingProvider,
		Model:     cfg.Ai.EmbeddingModel,
		Dimension: cfg.Ai.EmbeddingDimension,
	}
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		ec.BaseURL = cfg.Ai.OllamaBaseURL
	case "openai":
		ec.BaseURL, ec.APIKey = cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIKey
	case "gemini":
		ec.APIKey = cfg.Ai.GeminiKey
	}
	return embedding.NewProvider(ec)
}

func NewLLM(cfg *config.Config) (llm.LLMProvider, error) {
	switch cfg.Ai.LLMProvider {
	case "openai":
		return factory.NewLLMProvider("openai", cfg.Ai.LLMModel, cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIKey)
	default:
		return factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, "")
	}
}

// NewIndexBackend picks the persistent index backend. db is only needed for
// the postgres backend.
func NewIndexBackend(cfg *config.Config, db *gorm.DB) (index.Backend, error) {
	switch cfg.Index.Backend {
	case "sqlite", "":
		return index.NewSQLiteBackend(cfg.Index.Dir), nil
	case "memory":
		return index.NewMemoryBackend(), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres index backend needs DB_CONNECTION_STRING")
		}
		return index.NewPgVectorBackend(db), nil
	case "qdrant":
		host, port, err := splitHostPort(cfg.Index.QdrantAddr, 6334)
		if err != nil {
			return nil, fmt.Errorf("qdrant address: %w", err)
		}
		return index.NewQdrantBackend(index.QdrantConfig{
			Host:       host,
			Port:       port,
			APIKey:     cfg.Index.QdrantKey,
			UseTLS:     cfg.Index.QdrantKey != "",
			VectorSize: uint64(cfg.Ai.EmbeddingDimension),
		})
	}
	return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
}

func splitHostPort(addr string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// No port given.
		return addr, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

// Retrieval bundles the index manager and the search engine on top of it.
type Retrieval struct {
	Index  *index.Manager
	Search *search.Engine
}

func NewRetrieval(cfg *config.Config, db *gorm.DB, log logger.ILogger) (*Retrieval, error) {
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	backend, err := NewIndexBackend(cfg, db)
	if err != nil {
		return nil, fmt.Errorf("index backend: %w", err)
	}

	manager := index.NewManager(backend, chunker.New(chunker.DefaultConfig()), embedder, log)
	engine := search.NewEngine(manager, manager.Embedder(), search.Config{
		FetchK:          cfg.Rag.FetchK,
		Lambda:          cfg.Rag.Lambda,
		K:               cfg.Rag.K,
		MaxPassageRunes: cfg.Rag.MaxPassageRunes,
	}, log)

	log.Info("BOOTSTRAP", "Retrieval ready", map[string]interface{}{
		"index_backend":      backend.Name(),
		"embedding_provider": cfg.Ai.EmbeddingProvider,
		"embedding_model":    cfg.Ai.EmbeddingModel,
	})
	return &Retrieval{Index: manager, Search: engine}, nil
}

// NewWorkflowDeps assembles what every workflow step may call.
func NewWorkflowDeps(cfg *config.Config, model llm.LLMProvider, r *Retrieval, log logger.ILogger) workflow.Deps {
	return workflow.Deps{
		LLM:              model,
		Search:           r.Search,
		Index:            r.Index,
		Files:            filestore.NewLocalStore(cfg.Uploads.Dir),
		Logger:           log,
		DocsDir:          cfg.Index.DocsDir,
		InlineTokenLimit: cfg.Workflow.InlineTokenLimit,
	}
}

// NewRedisClient returns nil when redis is unreachable.
func NewRedisClient(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		rdb.Close()
		return nil
	}
	return rdb
}

// NewThreadRepository picks the thread store. A redis store without a redis
// connection falls back to memory.
func NewThreadRepository(cfg *config.Config, db *gorm.DB, rdb *redis.Client, log logger.ILogger) (contract.ThreadRepository, error) {
	switch cfg.Threads.Store {
	case "memory", "":
		return memory.NewThreadRepository(cfg.Threads.TTL), nil
	case "redis":
		if rdb == nil {
			log.Warn("BOOTSTRAP", "Redis unavailable, keeping threads in memory", nil)
			return memory.NewThreadRepository(cfg.Threads.TTL), nil
		}
		return implementation.NewRedisThreadRepository(rdb, cfg.Threads.TTL), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres thread store needs DB_CONNECTION_STRING")
		}
		return implementation.NewThreadRepository(db), nil
	}
	return nil, fmt.Errorf("unknown thread store %q", cfg.Threads.Store)
}
