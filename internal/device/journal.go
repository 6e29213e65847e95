package device

import (
	"context"
	"time"

	"github.com/cringo/cringo/internal/history"
	"github.com/cringo/cringo/internal/session"
	"go.uber.org/zap"
)

// Recorder is the write side of the session journal.
type Recorder interface {
	Put(ctx context.Context, r history.Record) error
}

// Journal records every finished session.
type Journal struct {
	rec Recorder
	log *zap.Logger
}

func NewJournal(rec Recorder, log *zap.Logger) *Journal {
	return &Journal{rec: rec, log: log.With(zap.String("component", "journal"))}
}

func (j *Journal) Handle(ev session.Event) {
	if ev.Type != session.EventFinished || ev.Snapshot == nil {
		return
	}
	r, err := history.FromSnapshot(ev.Snapshot)
	if err != nil {
		j.log.Warn("skipping session", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := j.rec.Put(ctx, r); err != nil {
		j.log.Error("record session", zap.String("session", r.ID), zap.Error(err))
		return
	}
	j.log.Info("session recorded", zap.String("session", r.ID), zap.Stringer("outcome", r.Outcome), zap.Int("draws", len(r.Draws)))
}
