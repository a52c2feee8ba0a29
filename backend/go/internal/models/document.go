package models

import "time"

// Document is what the upload or question-analysis workflow hands to the
// indexer. The core only chunks RawText; it never fetches or parses content.
type Document struct {
	ID         string `json:"id"`
	RawText    string `json:"rawText"`
	CreatedAt  string `json:"createdAt,omitempty"`
	Category   string `json:"category,omitempty"`
	AnswerID   string `json:"answerId,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
}

// Project is a row in the project catalog. The combination of ProjectID and
// Collection is stable for the lifetime of a project.
type Project struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	ProjectID  string    `gorm:"uniqueIndex;not null;size:255" json:"projectId"`
	Collection string    `gorm:"not null;size:255" json:"collection"`
	Documents  int64     `json:"documents"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IndexEvent is published after a document's chunks are written or removed.
type IndexEvent struct {
	Action        string    `json:"action"`
	ProjectID     string    `json:"projectId"`
	DocumentID    string    `json:"documentId"`
	ChunksCreated int       `json:"chunksCreated,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	IndexActionIndexed = "indexed"
	IndexActionRemoved = "removed"
)
