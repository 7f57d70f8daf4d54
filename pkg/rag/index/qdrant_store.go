package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantBackend maps each corpus to its own collection, named prefix+corpus.
type QdrantBackend struct {
	client     *qdrant.Client
	prefix     string
	vectorSize uint64
}

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Prefix     string
	VectorSize uint64
}

func NewQdrantBackend(cfg QdrantConfig) (*QdrantBackend, error) {
	if cfg.Port == 0 {
		cfg.Port = 6334 // gRPC
	}
	if cfg.VectorSize == 0 {
		return nil, fmt.Errorf("qdrant backend needs a vector size")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantBackend{client: client, prefix: cfg.Prefix, vectorSize: cfg.VectorSize}, nil
}

func (b *QdrantBackend) Name() string { return "qdrant" }

func (b *QdrantBackend) collection(corpus string) string {
	return b.prefix + corpus
}

func (b *QdrantBackend) Exists(ctx context.Context, corpus string) (bool, error) {
	return b.client.CollectionExists(ctx, b.collection(corpus))
}

func (b *QdrantBackend) Open(ctx context.Context, corpus string) (Store, error) {
	s := &QdrantStore{client: b.client, collection: b.collection(corpus), vectorSize: b.vectorSize}
	exists, err := b.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if !exists {
		if err := s.create(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (b *QdrantBackend) Close() error {
	return b.client.Close()
}

type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
}

func (s *QdrantStore) create(ctx context.Context) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// pointID maps the sha1 entry id onto the uuid space qdrant accepts.
func pointID(entryID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(entryID)).String()
}

func (s *QdrantStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(e.ID)),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: map[string]*qdrant.Value{
				"entry_id":     qdrant.NewValueString(e.ID),
				"source_id":    qdrant.NewValueString(e.SourceID),
				"content_hash": qdrant.NewValueString(e.ContentHash),
				"text":         qdrant.NewValueString(e.Text),
			},
		})
	}
	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	return err
}

func (s *QdrantStore) Nearest(ctx context.Context, vec []float32, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, nil
	}
	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collection, err)
	}

	entries := make([]Entry, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		e := Entry{
			ID:          payload["entry_id"].GetStringValue(),
			SourceID:    payload["source_id"].GetStringValue(),
			ContentHash: payload["content_hash"].GetStringValue(),
			Text:        payload["text"].GetStringValue(),
		}
		if v := p.GetVectors().GetVector(); v != nil {
			e.Vector = v.Data
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	return int(n), err
}

// Clear drops and recreates the collection so the corpus still exists afterwards.
func (s *QdrantStore) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("drop collection %s: %w", s.collection, err)
	}
	return s.create(ctx)
}

func (s *QdrantStore) Close() error { return nil }
