package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"document-qa/internal/models"

	yt "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/schema"
)

var (
	ErrNoTranscript    = errors.New("no transcript available")
	ErrInvalidVideoURL = errors.New("invalid youtube video url")
)

// Fetcher returns the transcript of a video as documents.
type Fetcher interface {
	Transcript(ctx context.Context, videoURL string) ([]schema.Document, error)
}

// videoAPI is the part of *yt.Client used here.
type videoAPI interface {
	GetVideoContext(ctx context.Context, url string) (*yt.Video, error)
	GetTranscriptCtx(ctx context.Context, video *yt.Video, lang string) (yt.VideoTranscript, error)
}

// Client reads video metadata and transcripts through the InnerTube API.
type Client struct {
	api          videoAPI
	Language     string
	AddVideoInfo bool
}

func NewClient(language string, addVideoInfo bool) *Client {
	return &Client{
		api:          &yt.Client{},
		Language:     language,
		AddVideoInfo: addVideoInfo,
	}
}

// Transcript returns a single document holding the joined transcript text of
// the video, with the video id as source.
func (c *Client) Transcript(ctx context.Context, videoURL string) ([]schema.Document, error) {
	videoID, err := yt.ExtractVideoID(strings.TrimSpace(videoURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVideoURL, videoURL, err)
	}

	video, err := c.api.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video %s: %w", videoID, err)
	}

	segments, err := c.api.GetTranscriptCtx(ctx, video, c.Language)
	if err != nil {
		if errors.Is(err, yt.ErrTranscriptDisabled) {
			return nil, fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
		}
		return nil, fmt.Errorf("failed to fetch %q transcript for %s: %w", c.Language, videoID, err)
	}

	content := joinSegments(segments)
	if content == "" {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
	}
	log.Debug().Str("video", videoID).Str("language", c.Language).Int("segments", len(segments)).Msg("Fetched transcript")

	metadata := map[string]any{models.MetaSource: videoID}
	if c.AddVideoInfo {
		if video.Title != "" {
			metadata[models.MetaTitle] = video.Title
		}
		if video.Author != "" {
			metadata[models.MetaAuthor] = video.Author
		}
	}

	return []schema.Document{{PageContent: content, Metadata: metadata}}, nil
}

// joinSegments collapses whitespace inside each segment and skips empty ones.
func joinSegments(segments yt.VideoTranscript) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if text := strings.Join(strings.Fields(s.Text), " "); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
