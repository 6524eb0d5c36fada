// Package store persists all chat state in a single Pebble database.
// Records are JSON values under prefixed keys; cross-record indexes are
// plain keys under their own prefixes. Every multi-key logical unit is
// committed through one batch so readers never observe a partial write.
package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"conversadb/pkg/logger"
)

var db *pebble.DB

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Key namespaces. Message ordering keys embed a sortable timestamp segment
// so prefix iteration yields creation order.
const (
	userPrefix     = "user:id:"
	userExtPrefix  = "user:ext:"
	convPrefix     = "conv:id:"
	convUserPrefix = "conv:user:"
	directPrefix   = "conv:direct:"
	msgPrefix      = "msg:"
	convMsgPrefix  = "convmsg:"
	receiptPrefix  = "receipt:"
	typingPrefix   = "typing:"
)

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func ensureOpen() error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return nil
}

// get returns the raw value for key, mapping pebble's missing-key error to
// ErrNotFound.
func get(key string) ([]byte, error) {
	if err := ensureOpen(); err != nil {
		return nil, err
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

func set(key string, value []byte) error {
	if err := ensureOpen(); err != nil {
		return err
	}
	return db.Set([]byte(key), value, pebble.Sync)
}

// Batch collects writes that must commit as one atomic unit.
type Batch struct {
	b *pebble.Batch
}

// NewBatch returns an empty batch. Callers must Commit or discard it.
func NewBatch() (*Batch, error) {
	if err := ensureOpen(); err != nil {
		return nil, err
	}
	return &Batch{b: db.NewBatch()}, nil
}

func (b *Batch) set(key string, value []byte) {
	_ = b.b.Set([]byte(key), value, nil)
}

func (b *Batch) delete(key string) {
	_ = b.b.Delete([]byte(key), nil)
}

// Commit atomically applies all writes in the batch, synced to disk.
func (b *Batch) Commit() error {
	return b.b.Commit(pebble.Sync)
}

// iterPrefix walks every key with the given prefix in lexicographic order,
// invoking fn with a stable copy of each key and value. Iteration stops
// early when fn returns false.
func iterPrefix(prefix string, fn func(key string, value []byte) bool) error {
	if err := ensureOpen(); err != nil {
		return err
	}
	pfx := []byte(prefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		k := iter.Key()
		if len(k) < len(pfx) || string(k[:len(pfx)]) != prefix {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		if !fn(string(k), v) {
			break
		}
	}
	return iter.Error()
}
