package programs

import (
	"context"
	"io"

	"github.com/dmitrijs2005/audioapi/internal/s3store"
)

// Repository is the metadata store contract. Implementations translate
// backend failures into the sentinel errors in internal/common: a missing
// record is common.ErrItemNotFound, and Update/Delete must fail with it
// rather than creating or silently skipping a record.
type Repository interface {
	Get(ctx context.Context, id string) (*Program, error)
	GetAll(ctx context.Context) ([]*Program, error)
	Put(ctx context.Context, create *ProgramCreate) (*Program, error)
	Update(ctx context.Context, id string, update *ProgramUpdate) (*Program, error)
	Delete(ctx context.Context, id string) error
}

// FileStore is the object store contract used by the service. Put stores
// body under the exact key given; the service pre-computes collision
// resistant keys.
type FileStore interface {
	Put(ctx context.Context, key string, body io.Reader) (s3store.StoredFile, error)
	Delete(ctx context.Context, key string) error
}
