package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
)

// Writer appends every queue event of a session to a zstd-compressed JSONL file
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// PathFor returns the journal file of a session inside dir
func PathFor(dir, session string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", session))
}

// Open creates the journal file for a session. level is one of
// fastest, default, better or best.
func Open(dir, session, level string) (*Writer, error) {
	ok, encLevel := zstd.EncoderLevelFromString(level)
	if !ok {
		encLevel = zstd.SpeedDefault
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	path := PathFor(dir, session)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Writer{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Path returns the journal file path
func (j *Writer) Path() string {
	return j.path
}

// Write appends one event as a JSON line
func (j *Writer) Write(e events.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.w == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

// Notify implements events.Observer
func (j *Writer) Notify(ctx context.Context, e events.Event) {
	if err := j.Write(e); err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Failed to journal event", map[string]interface{}{
			"event": string(e.Type),
			"error": err.Error(),
		})
	}
}

// Flush pushes buffered events into the compressed stream
func (j *Writer) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return nil
	}
	if err := j.w.Flush(); err != nil {
		return err
	}
	return j.enc.Flush()
}

// Close flushes and closes the file. The zstd frame is only complete after Close.
func (j *Writer) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var firstErr error
	if j.w != nil {
		firstErr = j.w.Flush()
		j.w = nil
	}
	if j.enc != nil {
		if err := j.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		j.enc = nil
	}
	if j.f != nil {
		if err := j.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		j.f = nil
	}
	return firstErr
}

// Read decodes a journal file, calling fn for every event in order
func Read(path string, fn func(events.Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	return decode(dec, fn)
}

func decode(r io.Reader, fn func(events.Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return fmt.Errorf("journal line %d: %w", line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return scanner.Err()
}
