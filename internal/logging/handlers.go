package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

const logTimestampLayout = "2006-01-02 15:04:05"

func newJSONHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	opts := slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}

// consoleHandler renders records as "ts LEVEL [stage] msg  key=value ...".
// The stage and component attributes are surfaced in the prefix; remaining
// attributes follow the message sorted by key for stable output.
type consoleHandler struct {
	mu     sync.Mutex
	writer io.Writer
	level  *slog.LevelVar
	attrs  []slog.Attr
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &consoleHandler{writer: w, level: lvl}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	all := make([]slog.Attr, 0, record.NumAttrs()+len(h.attrs))
	all = append(all, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		all = append(all, attr)
		return true
	})

	var stage, component string
	rest := make([]slog.Attr, 0, len(all))
	for _, attr := range all {
		switch attr.Key {
		case FieldStage:
			if stage == "" {
				stage = attr.Value.String()
			}
		case FieldComponent:
			if component == "" {
				component = attr.Value.String()
			}
		default:
			rest = append(rest, attr)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Key < rest[j].Key })

	var b strings.Builder
	b.WriteString(ts.In(time.Local).Format(logTimestampLayout))
	b.WriteString("  ")
	b.WriteString(fmt.Sprintf("%-5s", record.Level.String()))
	if stage != "" {
		b.WriteString("  [")
		b.WriteString(stage)
		b.WriteString("]")
	} else if component != "" {
		b.WriteString("  [")
		b.WriteString(component)
		b.WriteString("]")
	}
	b.WriteString("  ")
	b.WriteString(record.Message)
	for _, attr := range rest {
		b.WriteString("  ")
		b.WriteString(attr.Key)
		b.WriteString("=")
		b.WriteString(formatValue(attr.Value))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &consoleHandler{writer: h.writer, level: h.level, attrs: merged}
}

func (h *consoleHandler) WithGroup(string) slog.Handler { return h }

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t") {
			return fmt.Sprintf("%q", s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	default:
		return v.String()
	}
}
