package datatable

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ViewState is the persisted interaction state: the sole mutable cursor into
// the query pipeline, and the unit that survives restarts.
type ViewState struct {
	Search    string     `json:"search"`
	Sort      []SortRule `json:"sort"`
	Page      int        `json:"page"`
	PageSize  int        `json:"pageSize"`
	ScrollTop float64    `json:"scrollTop"`
}

// StateStore persists view state records by key. Implementations must treat
// the medium as fallible: a failed read loads as absent, a failed write is
// reported but never fatal.
type StateStore interface {
	// Load returns the record for key; ok is false when absent or unreadable.
	Load(key string) (st ViewState, ok bool)
	Save(key string, st ViewState) error
	Clear(key string) error
	Close() error
}

var stateBucket = []byte("viewstate")

// boltStore keeps records in a single bbolt bucket, one JSON value per key.
type boltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt file and ensures the state bucket
// exists.
func NewBoltStore(path string) (StateStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

// OpenStateStore opens a bbolt-backed store, degrading to a NopStore when the
// medium is unavailable so persistence failures never break the table.
func OpenStateStore(path string) StateStore {
	st, err := NewBoltStore(path)
	if err != nil {
		return NopStore{}
	}
	return st
}

func (s *boltStore) Load(key string) (ViewState, bool) {
	var st ViewState
	ok := false
	s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(stateBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		// Corrupt payloads load as absent rather than propagating.
		if err := json.Unmarshal(v, &st); err != nil {
			st = ViewState{}
			return nil
		}
		ok = true
		return nil
	})
	return st, ok
}

func (s *boltStore) Save(key string, st ViewState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(key), data)
	})
}

func (s *boltStore) Clear(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Delete([]byte(key))
	})
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

// NopStore is the degraded persistence medium: loads nothing, saves nowhere.
type NopStore struct{}

func (NopStore) Load(string) (ViewState, bool) { return ViewState{}, false }
func (NopStore) Save(string, ViewState) error  { return nil }
func (NopStore) Clear(string) error            { return nil }
func (NopStore) Close() error                  { return nil }

// MemStore keeps records in memory. Handy for tests and embedded hosts.
type MemStore struct {
	m map[string]ViewState
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{m: make(map[string]ViewState)} }

func (s *MemStore) Load(key string) (ViewState, bool) {
	st, ok := s.m[key]
	return st, ok
}

func (s *MemStore) Save(key string, st ViewState) error {
	s.m[key] = st
	return nil
}

func (s *MemStore) Clear(key string) error {
	delete(s.m, key)
	return nil
}

func (s *MemStore) Close() error { return nil }

// mergeState lays a loaded record over defaults so records written by older
// versions backfill fields they never had.
func mergeState(def, loaded ViewState) ViewState {
	st := loaded
	if st.PageSize <= 0 {
		st.PageSize = def.PageSize
	}
	if st.Page < 0 {
		st.Page = 0
	}
	if st.ScrollTop < 0 {
		st.ScrollTop = 0
	}
	if st.Sort == nil {
		st.Sort = def.Sort
	}
	return st
}
