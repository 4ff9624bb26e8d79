package sigkv

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store is the durable get/put gateway shared by every
// connection. Implementations must be safe for concurrent
// use without any external locking. Single key operations
// only; no scans, no deletes, no multi-key atomicity.
type Store interface {
	// Get returns found == false and a nil error if key is absent.
	Get(key []byte) (val []byte, found bool, err error)

	// Put overwrites any existing value at key.
	Put(key, val []byte) error

	Close() error
}

var ErrStoreClosed = fmt.Errorf("store closed")

var recordsBucket = []byte("records")

// BoltStore keeps records in a single bbolt bucket.
type BoltStore struct {
	path string
	db   *bolt.DB
}

// OpenBoltStore opens, creating if need be, the database at path.
func OpenBoltStore(path string) (s *BoltStore, err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	o := *bolt.DefaultOptions
	o.FreelistType = bolt.FreelistArrayType
	// don't hang forever if another process holds the flock.
	o.Timeout = 5 * time.Second

	db, err := bolt.Open(path, 0600, &o)
	if err != nil {
		return nil, fmt.Errorf("open bolt db '%v': %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{path: path, db: db}, nil
}

func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) Get(key []byte) (val []byte, found bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		v := b.Get(key)
		if v == nil {
			return nil
		}
		// v is only valid inside the tx.
		val = append([]byte{}, v...)
		found = true
		return nil
	})
	if err == bolt.ErrDatabaseNotOpen {
		err = ErrStoreClosed
	}
	return
}

func (s *BoltStore) Put(key, val []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Put(key, val)
	})
	if err == bolt.ErrDatabaseNotOpen {
		err = ErrStoreClosed
	}
	return err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// MemStore is an in-memory Store, mostly for tests.
type MemStore struct {
	mut    sync.RWMutex
	m      map[string][]byte
	closed bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		m: make(map[string][]byte),
	}
}

func (s *MemStore) Get(key []byte) (val []byte, found bool, err error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}
	v, ok := s.m[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (s *MemStore) Put(key, val []byte) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.m[string(key)] = append([]byte{}, val...)
	return nil
}

func (s *MemStore) Close() error {
	s.mut.Lock()
	s.closed = true
	s.mut.Unlock()
	return nil
}

// Len is the number of keys held.
func (s *MemStore) Len() int {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return len(s.m)
}
