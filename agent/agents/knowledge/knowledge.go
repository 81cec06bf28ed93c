// Package knowledge retrieves knowledge items for a query. Retrieval degrades
// from vector similarity to keyword containment to an unranked sample.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	embeddingx "github.com/tanpawarit/healthcare-assistant/pkg/embedding"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

const (
	DefaultTopK = 3

	keywordScore = 1.0
	sampleScore  = 0.5

	maxKeywords   = 3
	minKeywordLen = 3
)

const (
	tierVector  = "vector"
	tierKeyword = "keyword"
	tierSample  = "sample"
	tierNone    = "none"
)

// VectorIndex returns the topK nearest items to vec.
type VectorIndex interface {
	Search(ctx context.Context, vec []float32, topK int) ([]contractx.KnowledgeItem, error)
}

// TextIndex is the non-vector side of the knowledge store.
type TextIndex interface {
	KeywordSearch(ctx context.Context, word string, limit int) ([]contractx.KnowledgeItem, error)
	Sample(ctx context.Context, limit int) ([]contractx.KnowledgeItem, error)
}

type Option func(*Retriever)

func WithMetrics(m *metricsx.Recorder) Option {
	return func(r *Retriever) {
		r.metrics = m
	}
}

// WithVectorSearch enables the vector tier. Both arguments must be non-nil.
func WithVectorSearch(embedder embeddingx.Embedder, index VectorIndex) Option {
	return func(r *Retriever) {
		r.embedder = embedder
		r.vectors = index
	}
}

type Retriever struct {
	text     TextIndex
	embedder embeddingx.Embedder
	vectors  VectorIndex
	metrics  *metricsx.Recorder
}

var _ contractx.KnowledgeSearcher = (*Retriever)(nil)

func New(text TextIndex, opts ...Option) (*Retriever, error) {
	if text == nil {
		return nil, fmt.Errorf("knowledge text index is required")
	}
	r := &Retriever{text: text}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Search never fails. When every tier fails it returns an empty slice.
func (r *Retriever) Search(ctx context.Context, query string, topK int) []contractx.KnowledgeItem {
	if topK <= 0 {
		topK = DefaultTopK
	}

	items, err := r.vectorSearch(ctx, query, topK)
	switch {
	case err != nil:
		log.Info().Err(err).Msg("knowledge: vector search unavailable, using text search")
	case len(items) > 0:
		return r.finish(tierVector, items, topK)
	}

	items = r.keywordSearch(ctx, query, topK)
	if len(items) > 0 {
		return r.finish(tierKeyword, items, topK)
	}

	items, err = r.text.Sample(ctx, topK)
	if err != nil {
		log.Error().Err(err).Msg("knowledge: retrieval failed")
		return r.finish(tierNone, nil, topK)
	}
	for i := range items {
		items[i].SimilarityScore = sampleScore
	}
	return r.finish(tierSample, items, topK)
}

func (r *Retriever) finish(tier string, items []contractx.KnowledgeItem, topK int) []contractx.KnowledgeItem {
	r.metrics.KnowledgeTier(tier)
	if len(items) > topK {
		items = items[:topK]
	}
	if items == nil {
		items = []contractx.KnowledgeItem{}
	}
	log.Info().Str("tier", tier).Int("items", len(items)).Msg("knowledge retrieved")
	return items
}

func (r *Retriever) vectorSearch(ctx context.Context, query string, topK int) ([]contractx.KnowledgeItem, error) {
	if r.embedder == nil || r.vectors == nil {
		return nil, embeddingx.ErrUnavailable
	}
	vec, err := embeddingx.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		return nil, err
	}
	return r.vectors.Search(ctx, vec, topK)
}

func (r *Retriever) keywordSearch(ctx context.Context, query string, topK int) []contractx.KnowledgeItem {
	var (
		out  []contractx.KnowledgeItem
		seen = make(map[string]struct{})
	)
	for _, word := range Keywords(query) {
		items, err := r.text.KeywordSearch(ctx, word, topK*2)
		if err != nil {
			log.Warn().Err(err).Str("word", word).Msg("knowledge: keyword search failed")
			continue
		}
		for _, it := range items {
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			it.SimilarityScore = keywordScore
			out = append(out, it)
		}
	}
	return out
}

// Keywords returns the words of the first three in query that are at least
// three characters long, lowercased.
func Keywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= minKeywordLen {
			out = append(out, w)
		}
	}
	return out
}
