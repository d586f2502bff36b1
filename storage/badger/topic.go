package badger

import (
	"cmp"
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

// TopicRepository implements storage.TopicRepository for BadgerDB.
// Topic IDs are derived from the normalized name, so the primary key
// doubles as the name index.
type TopicRepository struct {
	backend *Backend
}

var _ storage.TopicRepository = (*TopicRepository)(nil)

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(backend *Backend) (*TopicRepository, error) {
	return &TopicRepository{
		backend: backend,
	}, nil
}

// Close releases resources. TopicRepository has no resources to release.
func (r *TopicRepository) Close() error {
	return nil
}

// LinkTopic upserts a topic, bumps its frequency and links it to a
// document. Conflicting concurrent writers are retried.
func (r *TopicRepository) LinkTopic(ctx context.Context, documentID core.ID, name string, weight float64) (*core.Topic, bool, error) {
	normalized := core.NormalizeTopicName(name)
	if normalized == "" {
		return nil, false, core.ErrEmptyTopicName
	}
	id := core.TopicID(normalized)

	var (
		result  *core.Topic
		created bool
	)
	err := r.backend.WithRetryTx(func(tx *badger.Txn) error {
		now := timestamp()
		key := makeTopicKey(id)
		topic, err := readTopic(tx, key)
		if err != nil {
			return err
		}
		if topic == nil {
			topic = &core.Topic{
				Id:         id,
				Name:       normalized,
				InsertedAt: now,
			}
		}
		topic.Frequency += weight
		topic.UpdatedAt = now

		value := storage.MarshalTopic(topic)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		linkKey := makeDocTopicKey(documentID, id)
		link, err := readValue(tx, linkKey)
		if err != nil {
			return err
		}
		created = link == nil
		if created {
			link := storage.MarshalDocumentTopic(&core.DocumentTopic{DocumentId: documentID, TopicId: id})
			if err := tx.Set(linkKey, link); err != nil {
				return err
			}
			if err := tx.Set(makeTopicDocKey(id, documentID), link); err != nil {
				return err
			}
		}
		result = topic
		return tx.Commit()
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// GetTopic retrieves a single topic by ID.
func (r *TopicRepository) GetTopic(ctx context.Context, id core.ID) (*core.Topic, error) {
	var result *core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTopic(tx, makeTopicKey(id))
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

// FindTopicByName looks up a topic by its normalized name.
func (r *TopicRepository) FindTopicByName(ctx context.Context, name string) (*core.Topic, error) {
	return r.GetTopic(ctx, core.TopicID(name))
}

// ListTopics returns all topics, most frequent first.
func (r *TopicRepository) ListTopics(ctx context.Context) ([]*core.Topic, error) {
	var results []*core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(topicPrefix), func(_, val []byte) error {
			topic, err := storage.UnmarshalTopic(val)
			if err != nil {
				return err
			}
			results = append(results, topic)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b *core.Topic) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return results, nil
}

// GetDocumentTopics returns the topics linked to a document.
func (r *TopicRepository) GetDocumentTopics(ctx context.Context, documentID core.ID) ([]*core.Topic, error) {
	var results []*core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var ids []core.ID
		if err := scanKeys(tx, composeKey(docTopicPrefix, uint64(documentID)), func(key []byte) error {
			ids = append(ids, trailingID(key))
			return nil
		}); err != nil {
			return err
		}
		for _, id := range ids {
			topic, err := readTopic(tx, makeTopicKey(id))
			if err != nil {
				return err
			}
			if topic != nil {
				results = append(results, topic)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetTopicDocuments returns the IDs of documents linked to a topic.
func (r *TopicRepository) GetTopicDocuments(ctx context.Context, topicID core.ID) ([]core.ID, error) {
	var results []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanKeys(tx, composeKey(topicDocPrefix, uint64(topicID)), func(key []byte) error {
			results = append(results, trailingID(key))
			return nil
		})
	}, false)
	return results, err
}

// readTopic reads a topic from the transaction.
func readTopic(tx *badger.Txn, key []byte) (*core.Topic, error) {
	raw, err := readValue(tx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return storage.UnmarshalTopic(raw)
}
