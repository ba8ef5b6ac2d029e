// Package fipcache is the per-IM compiled-object cache: files at
// .fip/cache/XXXXXXXX.o keyed by the 8-character path hash from
// internal/fiphash, plus a small bbolt-backed index recording which
// module produced each hash and when, so the master can list the cache
// without scanning the directory tree. The index is pure addition over
// the protocol's file layout — the .o file naming and location are
// unchanged.
package fipcache

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "objects"

// ObjectExt is the extension of a cached object artifact.
const ObjectExt = ".o"

// ObjectPath returns the path of the cached object for hash under
// dir.
func ObjectPath(dir, hash string) string {
	return filepath.Join(dir, hash+ObjectExt)
}

// Entry is one cache index record.
type Entry struct {
	Hash       string    `json:"hash"`
	Module     string    `json:"module"`
	CompiledAt time.Time `json:"compiled_at"`
}

// Index is a bbolt-backed map from path hash to Entry.
type Index struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the cache index at path.
func Open(path string) (*Index, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("fipcache: opening index: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("fipcache: initializing bucket: %w", err)
	}

	return &Index{db: db}, nil
}

// Close releases the underlying database file.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Record notes that hash was produced by module just now.
func (idx *Index) Record(hash, module string) error {
	e := Entry{Hash: hash, Module: module, CompiledAt: time.Now()}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return idx.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(hash), b)
	})
}

// Lookup returns the Entry for hash, if recorded.
func (idx *Index) Lookup(hash string) (Entry, bool, error) {
	var (
		e     Entry
		found bool
	)
	err := idx.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(hash))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &e)
	})
	return e, found, err
}

// List returns every recorded entry, used by the master's cache
// introspection subcommand.
func (idx *Index) List() ([]Entry, error) {
	var out []Entry
	err := idx.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}
