package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

const defaultHashingDimension = 384

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

var hashingStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {}, "for": {}, "to": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "by": {}, "with": {}, "as": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "it": {}, "this": {}, "that": {}, "from": {}, "so": {},
	"what": {}, "how": {}, "do": {}, "does": {}, "i": {}, "about": {},
}

// HashingProvider is an offline embedder: token counts hashed into a fixed
// number of buckets, then L2 normalized. Identical text always embeds
// identically and texts sharing words land close together.
type HashingProvider struct {
	dimension int
}

func NewHashingProvider(dimension int) *HashingProvider {
	if dimension <= 0 {
		dimension = defaultHashingDimension
	}
	return &HashingProvider{dimension: dimension}
}

func (p *HashingProvider) Dimension() int { return p.dimension }

func (p *HashingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, p.dimension)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := hashingStopwords[tok]; stop {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		// the top bit picks the sign so unrelated tokens cancel rather than pile up
		if sum&(1<<31) != 0 {
			vec[int(sum%uint32(p.dimension))] -= 1
		} else {
			vec[int(sum%uint32(p.dimension))] += 1
		}
	}

	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: normalizeVector(vec)}}, nil
}
