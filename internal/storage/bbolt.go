package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatsync/internal/filestore"
	"chatsync/internal/models"

	"go.etcd.io/bbolt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

var (
	bucketUsers    = []byte("users")
	bucketDialogs  = []byte("dialogs")
	bucketMessages = []byte("messages")
	bucketFiles    = []byte("files")
)

type BboltStorage struct {
	db    *bbolt.DB
	blobs filestore.FileStore
}

// NewBboltStorage opens the cache database. File payloads are kept in blobs,
// only their metadata goes into the database.
func NewBboltStorage(path string, blobs filestore.FileStore) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketDialogs, bucketMessages, bucketFiles} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db, blobs: blobs}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

func (s *BboltStorage) Users() *Collection[models.User] {
	return newCollection(s.db, bucketUsers,
		func(u models.User) Storeable { return newDBUser(u) },
		func(data []byte) (models.User, error) {
			var dbUser DBUser
			err := dbUser.UnmarshalBinary(data)
			return dbUser.Model(), err
		})
}

func (s *BboltStorage) Dialogs() *Collection[models.Dialog] {
	return newCollection(s.db, bucketDialogs,
		func(d models.Dialog) Storeable { return newDBDialog(d) },
		func(data []byte) (models.Dialog, error) {
			var dbDialog DBDialog
			err := dbDialog.UnmarshalBinary(data)
			return dbDialog.Model(), err
		})
}

func (s *BboltStorage) Messages() *Collection[models.Message] {
	return newCollection(s.db, bucketMessages,
		func(m models.Message) Storeable { return newDBMessage(m) },
		func(data []byte) (models.Message, error) {
			var dbMessage DBMessage
			err := dbMessage.UnmarshalBinary(data)
			return dbMessage.Model(), err
		})
}

func (s *BboltStorage) Files() *FileCollection {
	return &FileCollection{db: s.db, blobs: s.blobs}
}

// Collection stores one entity kind in its own bucket, keyed by entity id.
type Collection[E models.Entity] struct {
	db     *bbolt.DB
	bucket []byte
	encode func(E) Storeable
	decode func([]byte) (E, error)
}

func newCollection[E models.Entity](db *bbolt.DB, bucket []byte, encode func(E) Storeable, decode func([]byte) (E, error)) *Collection[E] {
	return &Collection[E]{db: db, bucket: bucket, encode: encode, decode: decode}
}

// Save creates a new record. It fails with ErrAlreadyExists if the id is taken.
func (c *Collection[E]) Save(ctx context.Context, entity E) error {
	return c.put(ctx, entity, true)
}

// Update creates or overwrites a record.
func (c *Collection[E]) Update(ctx context.Context, entity E) error {
	return c.put(ctx, entity, false)
}

func (c *Collection[E]) put(ctx context.Context, entity E, strict bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		record := c.encode(entity)
		if strict && b.Get(record.Key()) != nil {
			return fmt.Errorf("%s %s: %w", c.bucket, entity.EntityID(), ErrAlreadyExists)
		}
		data, err := record.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s: %w", c.bucket, entity.EntityID(), err)
		}
		return b.Put(record.Key(), data)
	})
}

func (c *Collection[E]) Get(ctx context.Context, id string) (E, error) {
	var entity E
	if err := ctx.Err(); err != nil {
		return entity, err
	}
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(c.bucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s %s: %w", c.bucket, id, ErrNotFound)
		}
		var err error
		entity, err = c.decode(data)
		return err
	})
	return entity, err
}

func (c *Collection[E]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%s %s: %w", c.bucket, id, ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
}

// GetAll returns every record of the collection in key order.
func (c *Collection[E]) GetAll(ctx context.Context) ([]E, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entities []E
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(c.bucket).ForEach(func(k, v []byte) error {
			entity, err := c.decode(v)
			if err != nil {
				return fmt.Errorf("corrupt %s record %s: %w", c.bucket, string(k), err)
			}
			entities = append(entities, entity)
			return nil
		})
	})
	return entities, err
}

func (c *Collection[E]) RemoveAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(c.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(c.bucket)
		return err
	})
}
