package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

var levelRank = map[string]int{
	"DEBUG":   0,
	"INFO":    1,
	"WARNING": 2,
	"WARN":    2,
	"ERROR":   3,
}

// ConsoleLogger writes one line per entry as JSON or key=value text
type ConsoleLogger struct {
	mu       sync.Mutex
	out      io.Writer
	format   string
	minLevel int
	now      func() time.Time
}

// NewConsoleLogger creates a logger writing to out. format is "json" or "text";
// level is the minimum level (debug, info, warn, error).
func NewConsoleLogger(out io.Writer, format, level string) *ConsoleLogger {
	min, ok := levelRank[strings.ToUpper(level)]
	if !ok {
		min = levelRank["INFO"]
	}
	return &ConsoleLogger{
		out:      out,
		format:   format,
		minLevel: min,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Log writes the entry if its level passes the filter
func (l *ConsoleLogger) Log(level, message string, metadata map[string]interface{}) {
	level = strings.ToUpper(level)
	if rank, ok := levelRank[level]; ok && rank < l.minLevel {
		return
	}

	var line string
	if l.format == "json" {
		entry := make(map[string]interface{}, len(metadata)+3)
		for k, v := range metadata {
			entry[k] = v
		}
		entry["time"] = l.now().Format(time.RFC3339)
		entry["level"] = level
		entry["msg"] = message
		b, err := json.Marshal(entry)
		if err != nil {
			line = fmt.Sprintf(`{"level":"ERROR","msg":"unencodable log entry: %s"}`, err)
		} else {
			line = string(b)
		}
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %-7s %s", l.now().Format("15:04:05"), level, message)
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, metadata[k])
		}
		line = sb.String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

// Enabled reports whether level passes a minLevel filter. Unknown levels always pass.
func Enabled(level, minLevel string) bool {
	rank, ok := levelRank[strings.ToUpper(level)]
	if !ok {
		return true
	}
	min, ok := levelRank[strings.ToUpper(minLevel)]
	if !ok {
		min = levelRank["INFO"]
	}
	return rank >= min
}
