package index

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewPostRepository creates a repository for post records keyed by slug.
func NewPostRepository(db *bun.DB) repository.Repository[*PostRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PostRecord]{
		NewRecord:          func() *PostRecord { return &PostRecord{} },
		GetID:              func(record *PostRecord) uuid.UUID { return record.ID },
		SetID:              func(record *PostRecord, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(record *PostRecord) string { return record.Slug },
	})
}
