package models

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	PageNumber int    `json:"page_number,omitempty"`
	ChunkID    int    `json:"chunk_id"`
}

type PromptResponse struct {
	Query   string
	Sources []string
	Content string
}
