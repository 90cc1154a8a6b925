package history

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/indexwatch/relevance-router/pkg/decision"
	"github.com/indexwatch/relevance-router/pkg/observability/logging"
)

var (
	badgerPrefix = []byte("dec!")
	badgerSeqKey = []byte("dec!seq")
)

// Badger is a persistent decision log. Entries survive restarts; the same
// capacity bound applies as for the in-memory store.
type Badger struct {
	db  *badger.DB
	seq *badger.Sequence

	mu    sync.Mutex
	count int
	cap   int
}

// NewBadger opens (or creates) the log at dir.
func NewBadger(dir string, capacity int) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	seq, err := db.GetSequence(badgerSeqKey, 128)
	if err != nil {
		db.Close()
		return nil, err
	}

	b := &Badger{db: db, seq: seq, cap: capCapacity(capacity)}
	if err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: badgerPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if !bytes.Equal(it.Item().Key(), badgerSeqKey) {
				b.count++
			}
		}
		return nil
	}); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func badgerKey(seq uint64) []byte {
	key := make([]byte, len(badgerPrefix)+8)
	copy(key, badgerPrefix)
	binary.BigEndian.PutUint64(key[len(badgerPrefix):], seq)
	return key
}

// Push appends a snapshot. Write errors are logged, not returned; losing one
// history row must never fail a decision.
func (b *Badger) Push(d decision.Decision) {
	e := entryFrom(d)
	raw, err := json.Marshal(e)
	if err != nil {
		logging.Errorf("history: marshaling entry: %v", err)
		return
	}
	n, err := b.seq.Next()
	if err != nil {
		logging.Errorf("history: sequence: %v", err)
		return
	}

	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(n), raw)
	}); err != nil {
		logging.Errorf("history: writing entry: %v", err)
		return
	}

	b.mu.Lock()
	b.count++
	excess := b.count - b.cap
	if excess > 0 {
		b.count -= b.pruneOldest(excess)
	}
	b.mu.Unlock()
}

// pruneOldest deletes up to n oldest rows and returns how many were removed.
func (b *Badger) pruneOldest(n int) int {
	removed := 0
	err := b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: badgerPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid() && removed < n; it.Next() {
			key := it.Item().KeyCopy(nil)
			if bytes.Equal(key, badgerSeqKey) {
				continue
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		logging.Warnf("history: pruning: %v", err)
	}
	return removed
}

// LastN returns up to n most recent entries, oldest first.
func (b *Badger) LastN(n int) []Entry {
	var out []Entry
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.IteratorOptions{Prefix: badgerPrefix, Reverse: true, PrefetchValues: true}
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the highest possible key, then walk backwards.
		seek := append(append([]byte{}, badgerPrefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for it.Seek(seek); it.Valid() && len(out) < n; it.Next() {
			if bytes.Equal(it.Item().Key(), badgerSeqKey) {
				continue
			}
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		logging.Warnf("history: reading: %v", err)
	}
	// Reverse into oldest-first order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Close releases the sequence and the database.
func (b *Badger) Close() error {
	if err := b.seq.Release(); err != nil {
		logging.Warnf("history: releasing sequence: %v", err)
	}
	return b.db.Close()
}
