package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"opsgate/internal/telemetry/models"
)

// ErrNoEventLog is returned by TailEventLog when none of the paths exist.
var ErrNoEventLog = errors.New("no event log found")

const unknownActor = "unknown"

// BuildFromEventLog summarizes the agent event log. A missing file yields an
// empty summary.
func (a *Aggregator) BuildFromEventLog(ctx context.Context) (*models.EventSummary, error) {
	f, err := os.Open(a.eventLogPath)
	if errors.Is(err, fs.ErrNotExist) {
		return SummarizeEvents(bytes.NewReader(nil), a.recentEvents)
	}
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	summary, err := SummarizeEvents(f, a.recentEvents)
	if err != nil {
		return nil, err
	}
	if summary.Skipped > 0 {
		a.logger.DebugContext(ctx, "skipped malformed event log lines", "count", summary.Skipped)
	}
	return summary, nil
}

// SummarizeEvents reads newline-delimited JSON objects from r. Each line is
// decoded on its own; a malformed line is counted in Skipped and does not
// affect its neighbours. Recent holds the last n events, newest first.
func SummarizeEvents(r io.Reader, n int) (*models.EventSummary, error) {
	if n <= 0 {
		n = DefaultRecentEvents
	}
	summary := &models.EventSummary{
		Source:        "logs",
		EventsByActor: make(map[string]int),
		Recent:        []map[string]any{},
	}

	ring := make([]map[string]any, 0, n)
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var event map[string]any
			if err := json.Unmarshal(line, &event); err != nil || event == nil {
				summary.Skipped++
			} else {
				summary.TotalEvents++
				summary.EventsByActor[actorOf(event)]++
				if len(ring) == n {
					ring = ring[1:]
				}
				ring = append(ring, event)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read event log: %w", readErr)
		}
	}

	for i := len(ring) - 1; i >= 0; i-- {
		summary.Recent = append(summary.Recent, ring[i])
	}
	return summary, nil
}

// actorOf prefers "actor", then the older "agent" field.
func actorOf(event map[string]any) string {
	for _, field := range []string{"actor", "agent"} {
		if s, ok := event[field].(string); ok && s != "" {
			return s
		}
	}
	return unknownActor
}

// TailEventLog returns up to maxBytes from the end of the first existing
// file in paths.
func TailEventLog(paths []string, maxBytes int64) (path string, data []byte, err error) {
	for _, p := range paths {
		f, err := os.Open(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("open %s: %w", p, err)
		}
		data, err := tail(f, maxBytes)
		f.Close()
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", p, err)
		}
		return p, data, nil
	}
	return "", nil, ErrNoEventLog
}

func tail(f *os.File, maxBytes int64) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	offset := info.Size() - maxBytes
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}
