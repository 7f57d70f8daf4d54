package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/internal/pkg/serverutils"
	"screening-onboarding-be/internal/repository/memory"
	"screening-onboarding-be/internal/service"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/workflow"
	"screening-onboarding-be/pkg/workflow/catalog"
	"screening-onboarding-be/pkg/workflow/workflowtest"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T, corpus service.ICorpusService) *fiber.App {
	t.Helper()
	deps := workflow.Deps{
		LLM:    &workflowtest.LLM{Reply: "ok"},
		Search: &workflowtest.Search{},
		Index:  &workflowtest.Index{},
		Files:  filestore.NewLocalStore(t.TempDir()),
		Logger: logger.NewNop(),
	}
	cat, err := catalog.New(deps, logger.NewNop())
	require.NoError(t, err)
	threads := service.NewThreadService(cat, memory.NewThreadRepository(time.Hour), nil, "en", logger.NewNop())

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewThreadController(threads, nil).RegisterRoutes(api)
	if corpus != nil {
		NewCorpusController(corpus).RegisterRoutes(api)
	}
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestThreadRoutes(t *testing.T) {
	app := newApp(t, nil)

	code, env := call(t, app, http.MethodPost, "/api/threads/v1", "")
	require.Equal(t, http.StatusCreated, code)
	var started dto.ThreadResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, "onboarding", started.Workflow)
	require.NotNil(t, started.Request)
	assert.Equal(t, "endpoints", started.Request.Kind)

	base := "/api/threads/v1/" + started.Id.String()

	code, env = call(t, app, http.MethodPost, base+"/advance", `{"payload":{"test_endpoint":"https://t.example.com","prod_endpoint":"https://p.example.com"}}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	var advanced dto.ThreadResponse
	require.NoError(t, json.Unmarshal(env.Data, &advanced))
	assert.Equal(t, "client_code", advanced.Request.Kind)

	code, _ = call(t, app, http.MethodGet, base, "")
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, app, http.MethodGet, base+"/transcript", "")
	require.Equal(t, http.StatusOK, code)
	var transcript dto.TranscriptResponse
	require.NoError(t, json.Unmarshal(env.Data, &transcript))
	assert.NotEmpty(t, transcript.Messages)
}

func TestThreadRouteErrors(t *testing.T) {
	app := newApp(t, nil)
	_, env := call(t, app, http.MethodPost, "/api/threads/v1", "")
	var started dto.ThreadResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"unknown workflow", http.MethodPost, "/api/threads/v1", `{"workflow":"payroll"}`, http.StatusBadRequest},
		{"unknown locale", http.MethodPost, "/api/threads/v1", `{"locale":"fr"}`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/threads/v1/not-a-uuid", "", http.StatusBadRequest},
		{"missing thread", http.MethodGet, "/api/threads/v1/" + uuid.NewString(), "", http.StatusNotFound},
		{"malformed payload", http.MethodPost, "/api/threads/v1/" + started.Id.String() + "/advance", `{"payload":{"continue":true}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			assert.False(t, env.Success)
		})
	}
}

type stubCorpusService struct {
	lastQuery dto.SearchCorpusRequest
}

func (s *stubCorpusService) RequestBuild(_ context.Context, corpus string, req *dto.RebuildCorpusRequest) (*dto.RebuildCorpusResponse, error) {
	if err := index.ValidateCorpus(corpus); err != nil {
		return nil, err
	}
	return &dto.RebuildCorpusResponse{RequestId: "r-1", Corpus: corpus, Fresh: req.Fresh}, nil
}

func (s *stubCorpusService) Search(_ context.Context, corpus string, req *dto.SearchCorpusRequest) (*dto.SearchCorpusResponse, error) {
	s.lastQuery = *req
	return &dto.SearchCorpusResponse{Corpus: corpus, Query: req.Query}, nil
}

func (s *stubCorpusService) Status(_ context.Context, corpus string) (*dto.CorpusStatusResponse, error) {
	return &dto.CorpusStatusResponse{Corpus: corpus, Backend: "memory", Exists: true}, nil
}

func TestCorpusRoutes(t *testing.T) {
	stub := &stubCorpusService{}
	app := newApp(t, stub)

	code, _ := call(t, app, http.MethodGet, "/api/corpora/v1/documentation", "")
	assert.Equal(t, http.StatusOK, code)

	code, env := call(t, app, http.MethodPost, "/api/corpora/v1/documentation/rebuild", `{"fresh":true}`)
	require.Equal(t, http.StatusAccepted, code)
	var queued dto.RebuildCorpusResponse
	require.NoError(t, json.Unmarshal(env.Data, &queued))
	assert.True(t, queued.Fresh)

	code, _ = call(t, app, http.MethodGet, "/api/corpora/v1/documentation/search?q=screening&k=3", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, dto.SearchCorpusRequest{Query: "screening", K: 3}, stub.lastQuery)

	code, _ = call(t, app, http.MethodGet, "/api/corpora/v1/documentation/search", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, app, http.MethodGet, "/api/corpora/v1/documentation/search?q=x&k=500", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, app, http.MethodPost, "/api/corpora/v1/..x/rebuild", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
