package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"document-qa/internal/chromemdb"
	"document-qa/internal/metrics"
	"document-qa/internal/models"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

const collectionName = "qa_collection"

var ErrInvalidK = errors.New("k must be positive")

// Result is a retrieved chunk with its cosine similarity to the question.
type Result struct {
	Chunk models.Chunk
	Score float32
}

// Index is an in-memory, write-once vector index over chunks.
type Index struct {
	embedder embeddings.Embedder
	db       *chromemdb.VectorDBManager
}

// Build embeds every chunk with a single batch call and stores the vectors.
func Build(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk) (*Index, error) {
	start := time.Now()

	db, err := chromemdb.NewVectorDBManager(collectionName, embedder.EmbedQuery)
	if err != nil {
		return nil, err
	}

	idx := &Index{embedder: embedder, db: db}
	if len(chunks) == 0 {
		log.Warn().Msg("Building an empty index")
		return idx, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d-%d-%d", c.Source, c.PageNumber, c.ChunkID, i)
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   c.Content,
			Metadata:  toMetadata(c),
			Embedding: vectors[i],
		}
	}
	if err := db.CreateDocs(ctx, docs); err != nil {
		return nil, err
	}

	metrics.ObserveIndexBuild(time.Since(start), len(docs))
	log.Info().Int("chunks", len(docs)).Dur("took", time.Since(start)).Msg("Vector index built")
	return idx, nil
}

// Len is the number of indexed chunks.
func (i *Index) Len() int {
	return i.db.Count()
}

// SimilaritySearch returns the min(k, Len()) chunks nearest to the question,
// most similar first.
func (i *Index) SimilaritySearch(ctx context.Context, question string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}
	if i.Len() == 0 {
		return nil, nil
	}

	vector, err := i.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	found, err := i.db.SearchWithQueryOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(found))
	for n, r := range found {
		results[n] = Result{Chunk: fromResult(r), Score: r.Similarity}
	}
	return results, nil
}

func toMetadata(c models.Chunk) map[string]string {
	md := map[string]string{
		models.MetaSource:  c.Source,
		models.MetaChunkID: strconv.Itoa(c.ChunkID),
	}
	if c.PageNumber > 0 {
		md[models.MetaPage] = strconv.Itoa(c.PageNumber)
	}
	return md
}

func fromResult(r chromem.Result) models.Chunk {
	page, _ := strconv.Atoi(r.Metadata[models.MetaPage])
	chunkID, _ := strconv.Atoi(r.Metadata[models.MetaChunkID])
	return models.Chunk{
		ID:         r.ID,
		Content:    r.Content,
		Source:     r.Metadata[models.MetaSource],
		PageNumber: page,
		ChunkID:    chunkID,
	}
}
