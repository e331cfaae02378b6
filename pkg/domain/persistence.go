package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is a named design kept by a DocumentStore. Revision grows by one
// on every committed update.
type Document struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Revision  int       `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Design    *Design   `json:"design"`
}

// Transaction exposes the document operations that a persistence
// implementation must support within an atomic scope. Designs handed out are
// snapshots; an update replaces the design of a document.
type Transaction interface {
	Snapshot() DocumentView
	CreateDocument(Document) (Document, error)
	UpdateDocument(id uuid.UUID, mutator func(*Document) error) (Document, error)
	DeleteDocument(id uuid.UUID) error
	FindDocument(id uuid.UUID) (Document, bool)
}

// DocumentView provides read-only access to stored documents.
type DocumentView interface {
	ListDocuments() []Document
	FindDocument(id uuid.UUID) (Document, bool)
}

// DocumentStore is a minimal abstraction over durable backends. Every
// committed design goes through the store's rules engine; a blocking result
// aborts the transaction with RuleViolationError.
type DocumentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(DocumentView) error) error
	GetDocument(id uuid.UUID) (Document, bool)
	ListDocuments() []Document
}
