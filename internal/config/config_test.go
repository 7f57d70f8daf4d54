package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"INDEX_BACKEND", "THREAD_STORE", "THREAD_TTL_MINUTES", "RAG_MMR_LAMBDA", "INLINE_TOKEN_LIMIT", "OTEL_ENABLED", "OTEL_SERVICE_NAME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.Equal(t, 0.5, cfg.Rag.Lambda)
	assert.Equal(t, 24*time.Hour, cfg.Threads.TTL)
	assert.Equal(t, 100_000, cfg.Workflow.InlineTokenLimit)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "screening-onboarding-be", cfg.Tracing.ServiceName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INDEX_BACKEND", "qdrant")
	t.Setenv("THREAD_STORE", "redis")
	t.Setenv("THREAD_TTL_MINUTES", "30")
	t.Setenv("RAG_MMR_LAMBDA", "0.7")
	t.Setenv("INDEX_WARM_ON_BOOT", "false")

	cfg := Load()
	assert.Equal(t, "qdrant", cfg.Index.Backend)
	assert.Equal(t, "redis", cfg.Threads.Store)
	assert.Equal(t, 30*time.Minute, cfg.Threads.TTL)
	assert.Equal(t, 0.7, cfg.Rag.Lambda)
	assert.False(t, cfg.Index.WarmOnBoot)
}

func TestEnvParsing(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"number", "42", 42},
		{"garbage", "forty", 7},
		{"empty", "", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SOME_INT", tt.value)
			assert.Equal(t, tt.want, getEnvAsInt("SOME_INT", 7))
		})
	}
}
