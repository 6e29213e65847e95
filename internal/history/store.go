// Package history journals finished sessions in a BoltDB file.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cringo/cringo/internal/session"
	"go.etcd.io/bbolt"
)

const (
	sessionBucket = "sessions"
	statsBucket   = "stats"
	statsKey      = "totals"
)

var ErrNotFound = errors.New("history: not found")

// Record is one finished session.
type Record struct {
	ID         string          `json:"id"`
	Seed       int64           `json:"seed"`
	Draws      []int           `json:"draws"`
	Outcome    session.Outcome `json:"outcome"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

// FromSnapshot builds a record from a terminal snapshot.
func FromSnapshot(s *session.Snapshot) (Record, error) {
	if s.ID == "" || s.FinishedAt == nil {
		return Record{}, fmt.Errorf("session %q has not finished", s.ID)
	}
	return Record{
		ID:         s.ID,
		Seed:       int64(s.Seed),
		Draws:      append([]int(nil), s.Draws...),
		Outcome:    s.Outcome,
		StartedAt:  s.StartedAt,
		FinishedAt: *s.FinishedAt,
	}, nil
}

// Stats are running totals over every recorded session.
type Stats struct {
	Sessions   int `json:"sessions"`
	Wins       int `json:"wins"`
	Exhausted  int `json:"exhausted"`
	Aborted    int `json:"aborted"`
	TotalDraws int `json:"totalDraws"`
	// FewestDrawsToWin is zero until the first win.
	FewestDrawsToWin int `json:"fewestDrawsToWin"`
}

func (s *Stats) add(r Record) {
	s.Sessions++
	s.TotalDraws += len(r.Draws)
	switch r.Outcome {
	case session.OutcomeWon:
		s.Wins++
		if s.FewestDrawsToWin == 0 || len(r.Draws) < s.FewestDrawsToWin {
			s.FewestDrawsToWin = len(r.Draws)
		}
	case session.OutcomeExhausted:
		s.Exhausted++
	case session.OutcomeAborted:
		s.Aborted++
	}
}

// Store provides a BoltDB-backed session journal.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the journal at path, creating parent directories.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put records a finished session and folds it into the totals. Recording
// the same session twice only updates the record.
func (s *Store) Put(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		sessions := tx.Bucket([]byte(sessionBucket))
		key := recordKey(r)
		existed := sessions.Get(key) != nil
		if err := sessions.Put(key, payload); err != nil {
			return err
		}
		if existed {
			return nil
		}

		st, err := readStats(tx)
		if err != nil {
			return err
		}
		st.add(r)
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		return tx.Bucket([]byte(statsBucket)).Put([]byte(statsKey), data)
	})
}

// Get finds a session by ID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(sessionBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if !strings.HasSuffix(string(k), "/"+id) {
				continue
			}
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal record: %w", err)
			}
			return nil
		}
		return ErrNotFound
	})
	return rec, err
}

// List returns up to limit sessions, most recently finished first. A limit
// of zero returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(sessionBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal record %s: %w", k, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	var st Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		st, err = readStats(tx)
		return err
	})
	return st, err
}

func readStats(tx *bbolt.Tx) (Stats, error) {
	var st Stats
	data := tx.Bucket([]byte(statsBucket)).Get([]byte(statsKey))
	if data == nil {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("unmarshal stats: %w", err)
	}
	return st, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{sessionBucket, statsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// recordKey orders records by finish time so cursors walk chronologically.
func recordKey(r Record) []byte {
	return []byte(r.FinishedAt.UTC().Format("20060102T150405.000000000") + "/" + r.ID)
}
