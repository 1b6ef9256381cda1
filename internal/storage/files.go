package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"chatsync/internal/filestore"
	"chatsync/internal/models"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// DBFile is the file metadata record. The payload lives in the blob store under the same id.
type DBFile struct {
	ID        string `msgpack:"id"`
	Ext       string `msgpack:"ext"`
	MimeType  string `msgpack:"mimeType"`
	Kind      string `msgpack:"kind"`
	Size      int64  `msgpack:"size"`
	LocalPath string `msgpack:"localPath"`
	RemoteURL string `msgpack:"remoteUrl"`
}

func (f *DBFile) Key() []byte {
	return []byte(f.ID)
}

func (f *DBFile) MarshalBinary() (data []byte, err error) {
	type alias DBFile
	return msgpack.Marshal((*alias)(f))
}

func (f *DBFile) UnmarshalBinary(data []byte) error {
	type alias DBFile
	return msgpack.Unmarshal(data, (*alias)(f))
}

type FileCollection struct {
	db    *bbolt.DB
	blobs filestore.FileStore
}

func (c *FileCollection) Save(ctx context.Context, file models.File) error {
	return c.put(ctx, file, true)
}

func (c *FileCollection) Update(ctx context.Context, file models.File) error {
	return c.put(ctx, file, false)
}

func (c *FileCollection) put(ctx context.Context, file models.File, strict bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta := &DBFile{
		ID:        file.ID,
		Ext:       file.Ext,
		MimeType:  file.MimeType,
		Kind:      string(file.Kind),
		Size:      int64(len(file.Data)),
		LocalPath: file.LocalPath,
		RemoteURL: file.RemoteURL,
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFiles)
		if strict && b.Get(meta.Key()) != nil {
			return fmt.Errorf("file %s: %w", file.ID, ErrAlreadyExists)
		}
		data, err := meta.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal file metadata: %w", err)
		}
		// Payload goes first so a committed metadata record always has its blob.
		if err := c.blobs.Save(bytes.NewReader(file.Data), file.ID); err != nil {
			return fmt.Errorf("failed to store file payload: %w", err)
		}
		return b.Put(meta.Key(), data)
	})
}

func (c *FileCollection) Get(ctx context.Context, id string) (models.File, error) {
	if err := ctx.Err(); err != nil {
		return models.File{}, err
	}
	var meta DBFile
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("file %s: %w", id, ErrNotFound)
		}
		return meta.UnmarshalBinary(data)
	})
	if err != nil {
		return models.File{}, err
	}
	return c.load(meta)
}

func (c *FileCollection) load(meta DBFile) (models.File, error) {
	r, err := c.blobs.Get(meta.ID)
	if errors.Is(err, fs.ErrNotExist) {
		return models.File{}, fmt.Errorf("file %s payload: %w", meta.ID, ErrNotFound)
	}
	if err != nil {
		return models.File{}, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read file payload %s: %w", meta.ID, err)
	}

	return models.File{
		ID:        meta.ID,
		Data:      data,
		Ext:       meta.Ext,
		MimeType:  meta.MimeType,
		Kind:      models.FileKind(meta.Kind),
		LocalPath: meta.LocalPath,
		RemoteURL: meta.RemoteURL,
	}, nil
}

func (c *FileCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFiles)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("file %s: %w", id, ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return err
	}
	return c.deleteBlob(id)
}

func (c *FileCollection) deleteBlob(id string) error {
	if err := c.blobs.Delete(id); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file payload %s: %w", id, err)
	}
	return nil
}

func (c *FileCollection) GetAll(ctx context.Context) ([]models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var metas []DBFile
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			var meta DBFile
			if err := meta.UnmarshalBinary(v); err != nil {
				return fmt.Errorf("corrupt file record %s: %w", string(k), err)
			}
			metas = append(metas, meta)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	files := make([]models.File, 0, len(metas))
	for _, meta := range metas {
		f, err := c.load(meta)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (c *FileCollection) RemoveAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var ids []string
	err := c.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketFiles).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
		if err != nil {
			return err
		}
		if err := tx.DeleteBucket(bucketFiles); err != nil {
			return err
		}
		_, err = tx.CreateBucket(bucketFiles)
		return err
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := c.deleteBlob(id); err != nil {
			return err
		}
	}
	return nil
}
