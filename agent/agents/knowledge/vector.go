package knowledge

import (
	"context"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	"github.com/tanpawarit/healthcare-assistant/agent/store"
	"github.com/tanpawarit/healthcare-assistant/pkg/vectorstore"
)

const (
	BackendPGVector = "pgvector"
	BackendQdrant   = "qdrant"
)

// Payload keys stored alongside each qdrant point.
const (
	PayloadTitle    = "title"
	PayloadContent  = "content"
	PayloadCategory = "category"
)

// PGVector searches the embedding column of the knowledge table.
type PGVector struct {
	Store *store.Store
}

func (p PGVector) Search(ctx context.Context, vec []float32, topK int) ([]contractx.KnowledgeItem, error) {
	return p.Store.VectorSearch(ctx, vec, topK)
}

type qdrantSearcher interface {
	Search(ctx context.Context, vector []float32, topK uint64) ([]vectorstore.Hit, error)
}

// Qdrant searches a qdrant collection whose payload carries the item text.
type Qdrant struct {
	Client qdrantSearcher
}

func (q Qdrant) Search(ctx context.Context, vec []float32, topK int) ([]contractx.KnowledgeItem, error) {
	hits, err := q.Client.Search(ctx, vec, uint64(topK))
	if err != nil {
		return nil, err
	}
	items := make([]contractx.KnowledgeItem, 0, len(hits))
	for _, h := range hits {
		items = append(items, contractx.KnowledgeItem{
			ID:              h.ID,
			Title:           h.Payload[PayloadTitle],
			Content:         h.Payload[PayloadContent],
			Category:        h.Payload[PayloadCategory],
			SimilarityScore: float64(h.Score),
		})
	}
	return items, nil
}

// PointFor builds the qdrant point for one embedded knowledge item.
func PointFor(id, title, content, category string, vec []float32) vectorstore.Point {
	return vectorstore.Point{
		ID:     id,
		Vector: vec,
		Payload: map[string]string{
			PayloadTitle:    title,
			PayloadContent:  content,
			PayloadCategory: category,
		},
	}
}
