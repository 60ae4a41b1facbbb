// Package store persists named DynString snapshots in a bbolt database.
// Values are encoded through a transform.Pipeline (compression, encryption)
// before they hit disk.
package store

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"dynstr-go/pkg/alloc"
	"dynstr-go/pkg/dynstr"
	"dynstr-go/pkg/log"
	"dynstr-go/pkg/transform"
)

const (
	stringsBucketName = "strings"

	// formatVersion prefixes every stored value.
	formatVersion byte = 1
)

var (
	dbRetryAttempts = 3
	dbRetryDelay    = 100 * time.Millisecond
)

// Store is a named snapshot store. It is safe for concurrent use; the
// DynString values it returns are not.
type Store struct {
	db       *bbolt.DB
	pipeline *transform.Pipeline
}

// Open opens or creates the database at path. A nil pipeline stores raw bytes.
func Open(path string, pipeline *transform.Pipeline) (*Store, error) {
	if pipeline == nil {
		var err error
		if pipeline, err = transform.NewPipeline(transform.NewNoOpTransform()); err != nil {
			return nil, err
		}
	}

	options := &bbolt.Options{Timeout: 1 * time.Second}
	var (
		db  *bbolt.DB
		err error
	)
	for i := 0; i < dbRetryAttempts; i++ {
		db, err = bbolt.Open(path, 0600, options)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("path", path).Msg("store: open failed, retrying")
		time.Sleep(dbRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database after %d attempts: %w", dbRetryAttempts, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stringsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s bucket: %w", stringsBucketName, err)
	}

	return &Store{db: db, pipeline: pipeline}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Put stores the logical content of str under name, replacing any previous value.
func (s *Store) Put(name string, str *dynstr.DynString) error {
	if s.db == nil {
		return ErrClosed
	}
	if name == "" {
		return ErrEmptyName
	}
	encoded, err := s.pipeline.Encode(str.ToRaw())
	if err != nil {
		return fmt.Errorf("store put %q: %w", name, err)
	}
	value := make([]byte, 0, len(encoded)+1)
	value = append(value, formatVersion)
	value = append(value, encoded...)
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(stringsBucketName)).Put([]byte(name), value)
	})
	if err != nil {
		return fmt.Errorf("store put %q: %w", name, err)
	}
	log.Debug().Str("name", name).Int("length", str.Len()).Int("stored", len(encoded)).Msg("store: put")
	return nil
}

// Get loads the value stored under name into a new string allocated from a.
// The caller owns the result and must Release it.
func (s *Store) Get(name string, a alloc.Allocator) (*dynstr.DynString, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	var encoded []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(stringsBucketName)).Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if len(v) == 0 || v[0] != formatVersion {
			return fmt.Errorf("%w: %q", ErrCorrupt, name)
		}
		// v is only valid inside the transaction
		encoded = append([]byte(nil), v[1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.pipeline.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("store get %q: %w", name, err)
	}
	return dynstr.FromRaw(a, raw), nil
}

// Delete removes name. Deleting a missing name returns ErrNotFound.
func (s *Store) Delete(name string) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(stringsBucketName))
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return b.Delete([]byte(name))
	})
}

// Names lists stored names in key order.
func (s *Store) Names() ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	names := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(stringsBucketName)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
