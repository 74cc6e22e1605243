package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/ksuid"
)

// ExplainOptions configures the explain operation
type ExplainOptions struct {
	WithSamples int
	Type        string
}

// ExplainResult holds the results of an explain operation
type ExplainResult struct {
	Global struct {
		LiveObjects int           `json:"live_objects" yaml:"live_objects"`
		Frames      int64         `json:"frames" yaml:"frames"`
		Tombstones  int64         `json:"tombstones" yaml:"tombstones"`
		TotalSizeMB float64       `json:"total_size_mb" yaml:"total_size_mb"`
		LiveSizeMB  float64       `json:"live_size_mb" yaml:"live_size_mb"`
		DeadPct     float64       `json:"dead_pct" yaml:"dead_pct"`
		Uptime      time.Duration `json:"uptime" yaml:"uptime"`
	} `json:"global" yaml:"global"`

	Types map[string]TypeStats `json:"types" yaml:"types"`

	Samples  []Sample `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// TypeStats summarizes the live objects of one record type
type TypeStats struct {
	Objects int     `json:"objects" yaml:"objects"`
	SizeMB  float64 `json:"size_mb" yaml:"size_mb"`
	Oldest  string  `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest  string  `json:"newest,omitempty" yaml:"newest,omitempty"`
}

// Sample is one live frame picked for inspection
type Sample struct {
	ID   string    `json:"id" yaml:"id"`
	Type string    `json:"type" yaml:"type"`
	Size uint32    `json:"size" yaml:"size"`
	Ts   time.Time `json:"timestamp" yaml:"timestamp"`
}

const mb = 1024 * 1024

// Explain gathers diagnostic information about the log
func (l *ObjectLog) Explain(ctx context.Context, opts ExplainOptions) (*ExplainResult, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if !l.isOpen {
		return nil, ErrClosed
	}

	res := &ExplainResult{Types: map[string]TypeStats{}}
	ids := l.index.IDsOfType(opts.Type)

	var live int64
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, ok := l.index.Get(id)
		if !ok {
			continue
		}
		live += int64(entry.Size)

		ts := res.Types[entry.Type]
		ts.Objects++
		ts.SizeMB += float64(entry.Size) / mb
		if ts.Oldest == "" {
			ts.Oldest = id.String()
		}
		ts.Newest = id.String()
		res.Types[entry.Type] = ts

		if len(res.Samples) < opts.WithSamples {
			res.Samples = append(res.Samples, Sample{
				ID:   id.String(),
				Type: entry.Type,
				Size: entry.Size,
				Ts:   time.Unix(0, int64(entry.Timestamp)),
			})
		}
	}

	total := l.writer.Size()
	res.Global.LiveObjects = len(ids)
	res.Global.Frames = l.frameCount
	res.Global.Tombstones = l.tombstones
	res.Global.TotalSizeMB = float64(total) / mb
	res.Global.LiveSizeMB = float64(live) / mb
	if total > 0 && opts.Type == "" {
		res.Global.DeadPct = 100 * float64(total-live) / float64(total)
	}
	res.Global.Uptime = time.Since(l.openedAt)

	if opts.Type != "" && len(ids) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("no live objects of type %s", opts.Type))
	}
	return res, nil
}

// TypeNames returns the type names present in an explain result, sorted
func (r *ExplainResult) TypeNames() []string {
	names := make([]string, 0, len(r.Types))
	for name := range r.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseID parses the string form of an object id
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, ErrInvalidID
	}
	return id, nil
}
