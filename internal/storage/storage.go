// Package storage provides the persistent registry of uploaded documents.
package storage

import (
	"context"

	"github.com/kotaehq/kotae/internal/models"
)

// Registry records which documents have been uploaded. The document text
// itself lives on disk; the registry tracks names and upload metadata.
type Registry interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, name string) (*models.Document, error)
	List(ctx context.Context) ([]*models.Document, error)
	Delete(ctx context.Context, name string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
