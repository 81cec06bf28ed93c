package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/healthcare-assistant/agent/store"
	embeddingx "github.com/tanpawarit/healthcare-assistant/pkg/embedding"
	"github.com/tanpawarit/healthcare-assistant/pkg/vectorstore"
)

const (
	DefaultBatchSize = 10
	defaultCategory  = "general"
)

// Entry is one knowledge record as authored in a seed file.
type Entry struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type DocWriter interface {
	UpsertKnowledge(ctx context.Context, docs []store.KnowledgeDoc) error
}

type PointWriter interface {
	Upsert(ctx context.Context, points []vectorstore.Point) error
}

type IngestReport struct {
	Uploaded int
	Failed   int
}

type IngestOption func(*Ingester)

// WithEmbeddings embeds each entry before it is written.
func WithEmbeddings(e embeddingx.Embedder) IngestOption {
	return func(i *Ingester) {
		i.embedder = e
	}
}

// WithPoints mirrors embedded entries into a vector collection.
func WithPoints(w PointWriter) IngestOption {
	return func(i *Ingester) {
		i.points = w
	}
}

func WithBatchSize(n int) IngestOption {
	return func(i *Ingester) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

func WithIDGenerator(fn func() string) IngestOption {
	return func(i *Ingester) {
		if fn != nil {
			i.newID = fn
		}
	}
}

// Ingester writes seed entries to the knowledge store in batches.
type Ingester struct {
	docs      DocWriter
	embedder  embeddingx.Embedder
	points    PointWriter
	batchSize int
	newID     func() string
}

func NewIngester(docs DocWriter, opts ...IngestOption) (*Ingester, error) {
	if docs == nil {
		return nil, fmt.Errorf("knowledge doc writer is required")
	}
	i := &Ingester{docs: docs, batchSize: DefaultBatchSize, newID: uuid.NewString}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Ingest never stops early. A batch that fails to embed or write is counted
// as failed and skipped.
func (i *Ingester) Ingest(ctx context.Context, entries []Entry) IngestReport {
	var report IngestReport
	for start := 0; start < len(entries); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			report.Failed += len(entries) - start
			log.Warn().Err(err).Msg("ingest cancelled")
			return report
		}

		end := min(start+i.batchSize, len(entries))
		batch := entries[start:end]
		n, err := i.ingestBatch(ctx, batch)
		if err != nil {
			log.Error().Err(err).Int("batch", start/i.batchSize+1).Msg("ingest batch failed")
			report.Failed += len(batch)
			continue
		}
		report.Uploaded += n
		log.Info().Int("processed", end).Int("total", len(entries)).Msg("ingest progress")
	}
	return report
}

func (i *Ingester) ingestBatch(ctx context.Context, batch []Entry) (int, error) {
	docs := make([]store.KnowledgeDoc, len(batch))
	for j, e := range batch {
		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = defaultCategory
		}
		docs[j] = store.KnowledgeDoc{
			ID:             i.newID(),
			Title:          e.Title,
			Content:        e.Content,
			Category:       category,
			SearchableText: store.SearchableText(e.Title, e.Content),
		}
	}

	if i.embedder != nil {
		texts := make([]string, len(batch))
		for j, e := range batch {
			texts[j] = EmbeddingText(e.Title, e.Content)
		}
		vecs, err := i.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed batch: %w", err)
		}
		if len(vecs) != len(docs) {
			return 0, fmt.Errorf("embed batch: expected %d vectors, got %d", len(docs), len(vecs))
		}
		for j := range docs {
			docs[j].Embedding = vecs[j]
		}
	}

	if err := i.docs.UpsertKnowledge(ctx, docs); err != nil {
		return 0, err
	}

	if i.points != nil && i.embedder != nil {
		points := make([]vectorstore.Point, len(docs))
		for j, d := range docs {
			points[j] = PointFor(d.ID, d.Title, d.Content, d.Category, d.Embedding)
		}
		if err := i.points.Upsert(ctx, points); err != nil {
			log.Warn().Err(err).Msg("vector collection upsert failed")
		}
	}
	return len(docs), nil
}

// EmbeddingText is the text embedded for an entry.
func EmbeddingText(title, content string) string {
	return title + ". " + content
}
