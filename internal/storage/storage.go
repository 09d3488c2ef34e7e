// Package storage is a bolt-backed journal of exchanges seen by an
// interceptor. It is independent from the diary: the diary decides what is
// replayed, the journal only remembers what happened.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"sofetch/internal/types"
)

var (
	bucketExchanges = []byte("exchanges")
	bucketIDs       = []byte("ids")
)

var ErrNotFound = errors.New("exchange not found")

type Store struct {
	db *bolt.DB
}

func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := db.Update(createBuckets); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put stores e, assigning an ID when it has none. Exchanges are kept in
// insertion order.
func (s *Store) Put(e *types.Exchange) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return "", err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExchanges)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		if err := b.Put(key, buf.Bytes()); err != nil {
			return err
		}
		return tx.Bucket(bucketIDs).Put([]byte(e.ID), key)
	})
	return e.ID, err
}

func (s *Store) Get(id string) (*types.Exchange, error) {
	var e types.Exchange
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketIDs).Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		v := tx.Bucket(bucketExchanges).Get(key)
		if v == nil {
			return ErrNotFound
		}
		return gob.NewDecoder(bytes.NewReader(v)).Decode(&e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns up to limit exchanges, newest first.
func (s *Store) List(limit int) ([]*types.Exchange, error) {
	if limit < 0 {
		limit = 0
	}
	res := make([]*types.Exchange, 0, limit)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketExchanges).Cursor()
		for k, v := c.Last(); k != nil && len(res) < limit; k, v = c.Prev() {
			var e types.Exchange
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&e); err != nil {
				return err
			}
			res = append(res, &e)
		}
		return nil
	})
	return res, err
}

func (s *Store) DeleteAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketExchanges, bucketIDs} {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("delete bucket %s: %w", name, err)
			}
		}
		return createBuckets(tx)
	})
}

func createBuckets(tx *bolt.Tx) error {
	for _, name := range [][]byte{bucketExchanges, bucketIDs} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}
