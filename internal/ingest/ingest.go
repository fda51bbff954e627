package ingest

import (
	"context"

	"document-qa/internal/config"
	"document-qa/internal/helper"
	"document-qa/internal/index"
	"document-qa/internal/models"
	"document-qa/internal/parser"
	"document-qa/internal/youtube"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"
)

// DocumentLoader reads the local document into page documents.
type DocumentLoader func(ctx context.Context, path string) ([]schema.Document, error)

// Loader produces the chunk set the index is built from: the video transcript
// first, then the document.
type Loader struct {
	Sources    config.SourceConfig
	Splitter   textsplitter.TextSplitter
	Transcript youtube.Fetcher
	Document   DocumentLoader
}

func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		Sources:    cfg.Sources,
		Splitter:   parser.NewSplitter(&cfg.RAG),
		Transcript: youtube.NewClient(cfg.Sources.TranscriptLanguage, cfg.Sources.AddVideoInfo),
		Document:   parser.LoadDocument,
	}
}

// Load fetches both sources concurrently. A transcript failure only costs the
// video chunks; a document failure fails the load.
func (l *Loader) Load(ctx context.Context) ([]models.Chunk, error) {
	var videoChunks, docChunks []models.Chunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		videoChunks = l.loadVideo(gctx)
		return nil
	})
	g.Go(func() error {
		docs, err := l.Document(gctx, l.Sources.DocumentPath)
		if err != nil {
			return err
		}
		docChunks, err = parser.SplitDocuments(l.Splitter, docs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(videoChunks)+len(docChunks))
	chunks = append(chunks, videoChunks...)
	chunks = append(chunks, docChunks...)
	for i := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		chunks[i].ID = id
	}

	log.Info().
		Int("video_chunks", len(videoChunks)).
		Int("document_chunks", len(docChunks)).
		Msg("Ingestion complete")
	return chunks, nil
}

// BuildIndex loads both sources and embeds the result.
func (l *Loader) BuildIndex(ctx context.Context, embedder embeddings.Embedder) (*index.Index, error) {
	chunks, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return index.Build(ctx, embedder, chunks)
}

func (l *Loader) loadVideo(ctx context.Context) []models.Chunk {
	if l.Sources.VideoURL == "" || l.Transcript == nil {
		return nil
	}

	docs, err := l.Transcript.Transcript(ctx, l.Sources.VideoURL)
	if err != nil {
		log.Warn().Err(err).Str("video", l.Sources.VideoURL).Msg("YouTube transcript not found, continuing without it")
		return nil
	}

	chunks, err := parser.SplitDocuments(l.Splitter, docs)
	if err != nil {
		log.Warn().Err(err).Str("video", l.Sources.VideoURL).Msg("Failed to split transcript, continuing without it")
		return nil
	}
	return chunks
}
