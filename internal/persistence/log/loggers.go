package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
)

const (
	TickPrefix  = "tick"
	AuditPrefix = "audit"

	hourLayout = "2006-01-02-15"
)

func TickDir(dataDir string) string  { return filepath.Join(dataDir, "ticks") }
func AuditDir(dataDir string) string { return filepath.Join(dataDir, "audit") }

// Journal is an append-only JSONL stream split into one zstd file per UTC
// hour. Reopening an hour starts a new zstd frame in the same file.
type Journal struct {
	dir    string
	prefix string
	clock  func() time.Time

	mu         sync.Mutex
	hour       string
	file       *os.File
	zw         *zstd.Encoder
	buf        *bufio.Writer
	flushEvery int
	unflushed  int
	lines      uint64
}

func NewJournal(dir, prefix string) *Journal {
	return &Journal{dir: dir, prefix: prefix, clock: time.Now, flushEvery: 1}
}

// SetFlushEvery batches n lines per flush. Lines still buffered are lost on a
// crash but not on Close or rotation.
func (j *Journal) SetFlushEvery(n int) {
	if n < 1 {
		n = 1
	}
	j.mu.Lock()
	j.flushEvery = n
	j.mu.Unlock()
}

// Lines counts entries accepted since the journal was created.
func (j *Journal) Lines() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lines
}

func (j *Journal) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s journal: marshal: %w", j.prefix, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if h := j.clock().UTC().Format(hourLayout); h != j.hour {
		if err := j.openLocked(h); err != nil {
			return fmt.Errorf("%s journal: open %s: %w", j.prefix, h, err)
		}
	}
	line = append(line, '\n')
	if _, err := j.buf.Write(line); err != nil {
		return fmt.Errorf("%s journal: %w", j.prefix, err)
	}
	j.lines++
	j.unflushed++
	if j.unflushed < j.flushEvery {
		return nil
	}
	return j.flushLocked()
}

func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flushLocked()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) flushLocked() error {
	if j.buf == nil {
		return nil
	}
	j.unflushed = 0
	if err := j.buf.Flush(); err != nil {
		return fmt.Errorf("%s journal: flush: %w", j.prefix, err)
	}
	return nil
}

func (j *Journal) openLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(j.dir, j.prefix+"-"+hour+".jsonl.zst")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.file, j.zw, j.buf, j.hour = f, zw, bufio.NewWriterSize(zw, 64*1024), hour
	return nil
}

func (j *Journal) closeLocked() error {
	var errs []error
	if j.buf != nil {
		errs = append(errs, j.buf.Flush())
	}
	if j.zw != nil {
		errs = append(errs, j.zw.Close())
	}
	if j.file != nil {
		errs = append(errs, j.file.Close())
	}
	j.file, j.zw, j.buf, j.hour, j.unflushed = nil, nil, nil, "", 0
	return errors.Join(errs...)
}

// TickLogger records clock, inputs and digest for every tick so cmd/replay
// can re-run the colony.
type TickLogger struct{ *Journal }

func NewTickLogger(dataDir string) *TickLogger {
	return &TickLogger{NewJournal(TickDir(dataDir), TickPrefix)}
}

func (l *TickLogger) WriteTick(e colony.TickLogEntry) error { return l.Append(e) }

type AuditLogger struct{ *Journal }

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{NewJournal(AuditDir(dataDir), AuditPrefix)}
}

func (l *AuditLogger) WriteAudit(e colony.AuditEntry) error { return l.Append(e) }
