package service

import (
	"context"
	"fmt"
	"strings"

	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/rag/search"

	"github.com/google/uuid"
)

const defaultSearchK = 5

// CorpusIndex is the part of index.Manager the corpus services use.
type CorpusIndex interface {
	EnsureBuilt(ctx context.Context, corpus, sourceDir string) (bool, error)
	RebuildFresh(ctx context.Context, corpus, sourceDir string, clearExisting bool) (index.IngestReport, error)
	Status(ctx context.Context, corpus string) (index.Status, error)
}

type PassageSearcher interface {
	SearchPassages(ctx context.Context, corpus, query string, k int) ([]search.Passage, error)
}

type ICorpusService interface {
	RequestBuild(ctx context.Context, corpus string, req *dto.RebuildCorpusRequest) (*dto.RebuildCorpusResponse, error)
	Search(ctx context.Context, corpus string, req *dto.SearchCorpusRequest) (*dto.SearchCorpusResponse, error)
	Status(ctx context.Context, corpus string) (*dto.CorpusStatusResponse, error)
}

type corpusService struct {
	index     CorpusIndex
	searcher  PassageSearcher
	files     filestore.Store
	docsDir   string
	publisher IPublisherService
	logger    logger.ILogger
}

func NewCorpusService(
	idx CorpusIndex,
	searcher PassageSearcher,
	files filestore.Store,
	docsDir string,
	publisher IPublisherService,
	log logger.ILogger,
) ICorpusService {
	return &corpusService{
		index:     idx,
		searcher:  searcher,
		files:     files,
		docsDir:   docsDir,
		publisher: publisher,
		logger:    log,
	}
}

// SourceDir resolves where a corpus is built from: the knowledge base for
// the documentation corpus, the thread's upload directory for a session
// corpus.
func SourceDir(files filestore.Store, docsDir, corpus string) (string, error) {
	if err := index.ValidateCorpus(corpus); err != nil {
		return "", err
	}
	if corpus == index.Documentation {
		return docsDir, nil
	}
	threadID := strings.TrimPrefix(corpus, index.SessionCorpus(""))
	if threadID == corpus || threadID == "" {
		return "", fmt.Errorf("%w: %q has no source directory", index.ErrInvalidCorpus, corpus)
	}
	return files.Dir(threadID)
}

func (s *corpusService) RequestBuild(ctx context.Context, corpus string, req *dto.RebuildCorpusRequest) (*dto.RebuildCorpusResponse, error) {
	dir, err := SourceDir(s.files, s.docsDir, corpus)
	if err != nil {
		return nil, err
	}

	msg := dto.PublishCorpusBuildMessage{
		RequestId: uuid.NewString(),
		Corpus:    corpus,
		SourceDir: dir,
		Fresh:     req.Fresh,
	}
	if err := s.publisher.PublishCorpusBuild(ctx, msg); err != nil {
		return nil, fmt.Errorf("queue build of %s: %w", corpus, err)
	}

	s.logger.Info("CORPUS", "Build requested", map[string]interface{}{
		"corpus":     corpus,
		"fresh":      req.Fresh,
		"request_id": msg.RequestId,
	})
	return &dto.RebuildCorpusResponse{
		RequestId: msg.RequestId,
		Corpus:    corpus,
		Fresh:     req.Fresh,
	}, nil
}

func (s *corpusService) Search(ctx context.Context, corpus string, req *dto.SearchCorpusRequest) (*dto.SearchCorpusResponse, error) {
	if err := index.ValidateCorpus(corpus); err != nil {
		return nil, err
	}
	k := req.K
	if k <= 0 {
		k = defaultSearchK
	}

	passages, err := s.searcher.SearchPassages(ctx, corpus, req.Query, k)
	if err != nil {
		return nil, err
	}

	res := &dto.SearchCorpusResponse{
		Corpus:   corpus,
		Query:    req.Query,
		Passages: make([]dto.PassageResponse, 0, len(passages)),
	}
	for _, p := range passages {
		res.Passages = append(res.Passages, dto.PassageResponse{
			Text:     p.Text,
			SourceId: p.SourceID,
			Score:    p.Score,
		})
	}
	return res, nil
}

func (s *corpusService) Status(ctx context.Context, corpus string) (*dto.CorpusStatusResponse, error) {
	st, err := s.index.Status(ctx, corpus)
	if err != nil {
		return nil, err
	}
	return &dto.CorpusStatusResponse{
		Corpus:    st.Corpus,
		Backend:   st.Backend,
		Exists:    st.Exists,
		Ephemeral: st.Ephemeral,
		Entries:   st.Entries,
	}, nil
}
