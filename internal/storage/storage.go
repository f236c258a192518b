package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when no analysis is stored for a position.
var ErrNotFound = errors.New("storage: record not found")

// Storage keys
const (
	keyPrefixAnalysis = "analysis/"
)

// Record is the stored outcome of one search.
type Record struct {
	Hash     uint64        `json:"hash"`
	FEN      string        `json:"fen"`
	Depth    int           `json:"depth"`
	Score    int           `json:"score"`
	BestMove string        `json:"best_move"`
	Nodes    uint64        `json:"nodes"`
	Elapsed  time.Duration `json:"elapsed"`
	Time     time.Time     `json:"time"`
}

// Journal wraps BadgerDB as a store of search results keyed by the
// position's Zobrist key.
type Journal struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (creating if needed) a journal in dir.
func Open(dir string, log zerolog.Logger) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{log}
	return open(opts, log)
}

// OpenInMemory opens a journal that lives only as long as the process.
func OpenInMemory(log zerolog.Logger) (*Journal, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = badgerLogger{log}
	return open(opts, log)
}

func open(opts badger.Options, log zerolog.Logger) (*Journal, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{db: db, log: log}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

func analysisKey(hash uint64) []byte {
	key := make([]byte, len(keyPrefixAnalysis)+8)
	copy(key, keyPrefixAnalysis)
	binary.BigEndian.PutUint64(key[len(keyPrefixAnalysis):], hash)
	return key
}

// Put stores rec under rec.Hash. An existing record from a deeper search is
// kept; Put reports whether rec was written.
func (j *Journal) Put(rec Record) (bool, error) {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}

	written := false
	err = j.db.Update(func(txn *badger.Txn) error {
		key := analysisKey(rec.Hash)
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			var old Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &old)
			}); err != nil {
				return err
			}
			if old.Depth > rec.Depth {
				return nil
			}
		}
		written = true
		return txn.Set(key, data)
	})
	if err != nil {
		return false, fmt.Errorf("put %016x: %w", rec.Hash, err)
	}
	j.log.Debug().Str("fen", rec.FEN).Int("depth", rec.Depth).Bool("written", written).Msg("journal put")
	return written, nil
}

// Get loads the record stored for hash, or ErrNotFound.
func (j *Journal) Get(hash uint64) (Record, error) {
	var rec Record
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// ForEach calls fn for every stored record in key order. Iteration stops at
// the first error fn returns.
func (j *Journal) ForEach(fn func(Record) error) error {
	return j.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefixAnalysis)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored records.
func (j *Journal) Count() (int, error) {
	n := 0
	err := j.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefixAnalysis)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// badgerLogger routes badger's own logging into zerolog, one level down so
// that routine compaction chatter stays out of info logs.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Str("component", "badger").Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Str("component", "badger").Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Str("component", "badger").Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Str("component", "badger").Msgf(format, args...)
}
