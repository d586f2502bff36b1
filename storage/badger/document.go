package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentSeq)
	if err != nil {
		return nil, err
	}
	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// AddDocument stores a new document and indexes it by path.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	// A writer that loses a race on the same path retries and sees the
	// path key, so it reports ErrDuplicateKey rather than a conflict.
	err := r.backend.WithRetryTx(func(tx *badger.Txn) error {
		pathKey := makeDocumentPathKey(doc.Path)
		existing, err := readValue(tx, pathKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: document path %q", storage.ErrDuplicateKey, doc.Path)
		}

		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		doc.Id = core.ID(id)
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = timestamp()
		} else {
			doc.CreatedAt = doc.CreatedAt.UTC().Truncate(time.Microsecond)
		}
		doc.UpdatedAt = doc.CreatedAt

		value := storage.MarshalDocument(doc)
		if err := tx.Set(makeDocumentKey(doc.Id), value); err != nil {
			return err
		}
		if err := tx.Set(pathKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument replaces a stored document. The path index is left alone
// since a document's path never changes.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Id)
		old, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		if old.Path != doc.Path {
			return fmt.Errorf("%w: document path cannot change from %q to %q", storage.ErrInvalidQuery, old.Path, doc.Path)
		}

		doc.CreatedAt = old.CreatedAt
		doc.UpdatedAt = timestamp()
		value := storage.MarshalDocument(doc)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindDocumentByPath resolves the path index and loads the document.
func (r *DocumentRepository) FindDocumentByPath(ctx context.Context, path string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		raw, err := readValue(tx, makeDocumentPathKey(path))
		if err != nil {
			return err
		}
		if raw == nil {
			return storage.ErrNotFound
		}
		id, err := storage.UnmarshalID(raw)
		if err != nil {
			return err
		}
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns every document in ID order.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	return r.listDocuments(func(*core.Document) bool { return true })
}

// ListIncompleteDocuments returns documents whose pipeline did not finish.
func (r *DocumentRepository) ListIncompleteDocuments(ctx context.Context) ([]*core.Document, error) {
	return r.listDocuments(func(doc *core.Document) bool {
		return doc.Stage != core.StageComplete
	})
}

func (r *DocumentRepository) listDocuments(keep func(*core.Document) bool) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(documentPrefix), func(_, val []byte) error {
			doc, err := storage.UnmarshalDocument(val)
			if err != nil {
				return err
			}
			if keep(doc) {
				results = append(results, doc)
			}
			return nil
		})
	}, false)
	return results, err
}

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	raw, err := readValue(tx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return storage.UnmarshalDocument(raw)
}
