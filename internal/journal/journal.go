// Package journal keeps a compressed append-only log of retired trade sessions.
package journal

import (
	"path/filepath"
	"time"

	"github.com/udisondev/simpletrade/internal/trade"
)

// FilePrefix: префикс файлов журнала: trades-YYYY-MM-DD-HH.jsonl.zst.
const FilePrefix = "trades"

// Record is one journal line.
type Record struct {
	SessionID  int64      `json:"session_id"`
	State      string     `json:"state"`
	Cause      string     `json:"cause,omitempty"`
	CauseActor string     `json:"cause_actor,omitempty"`
	Initiator  trade.Side `json:"initiator"`
	Partner    trade.Side `json:"partner"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    time.Time  `json:"ended_at"`
}

// FromOutcome converts a session outcome into a journal record.
func FromOutcome(o trade.Outcome) Record {
	rec := Record{
		SessionID:  o.SessionID,
		State:      o.State.String(),
		CauseActor: o.CauseActor,
		Initiator:  o.Initiator,
		Partner:    o.Partner,
		StartedAt:  o.StartedAt.UTC(),
		EndedAt:    o.EndedAt.UTC(),
	}
	if o.State == trade.StateCancelled {
		rec.Cause = o.Cause.String()
	}
	return rec
}

// Journal records trade outcomes. Implements trade.Recorder.
type Journal struct {
	w *Writer
}

// Open creates a journal writing into dir.
func Open(dir string) *Journal {
	return &Journal{w: NewWriter(dir, FilePrefix)}
}

// Record appends the outcome to the current hourly file.
func (j *Journal) Record(o trade.Outcome) error {
	return j.w.Write(FromOutcome(o))
}

// Close flushes and closes the current file.
func (j *Journal) Close() error {
	return j.w.Close()
}

// Files returns the journal files in dir, oldest first.
func Files(dir string) ([]string, error) {
	// Имена содержат час в формате 2006-01-02-15, glob отдаёт их в лексикографическом порядке
	return filepath.Glob(filepath.Join(dir, FilePrefix+"-*.jsonl.zst"))
}
