package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handlers. Styles are bound to
// a renderer for the handler's writer, so color is dropped automatically
// when the writer is not a terminal.
type palette struct {
	key, str, num, time, null lipgloss.Style
	yes, no                   lipgloss.Style
	level                     map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		time: fg("4"),
		null: fg("8"),
		yes:  fg("2"),
		no:   fg("1"),
		level: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("5"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2").Bold(true),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p palette) forLevel(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.level[slog.LevelError]
	case l >= slog.LevelWarn:
		return p.level[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return p.level[slog.LevelInfo]
	case l >= slog.LevelDebug:
		return p.level[slog.LevelDebug]
	default:
		return p.level[slog.Level(LevelTrace)]
	}
}

// prettyHandler renders records for a human reader, either as a single
// key=value line or as an indented JSON-like block.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	pal    palette
	json   bool
	attrs  []slog.Attr
	groups []string
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, pal: newPalette(w)}
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	h := newPrettyTextHandler(w, opts)
	h.json = true

	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

// qualify nests attrs under the handler's open groups.
func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: h.groups[i], Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}

func (h *prettyHandler) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(h.groups, a)
	}

	a.Value = a.Value.Resolve()

	return a
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	head := make([]slog.Attr, 0, 4)

	if !r.Time.IsZero() {
		head = append(head, slog.Time(slog.TimeKey, r.Time))
	}

	level := r.Level
	head = append(head, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			head = append(head,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	head = append(head, slog.String(slog.MessageKey, r.Message))

	body := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		body = append(body, a)

		return true
	})

	all := append(head, h.attrs...)
	all = append(all, h.qualify(body)...)

	buf := new(bytes.Buffer)

	if h.json {
		h.writeBlock(buf, all, level, 1)
	} else {
		h.writeLine(buf, "", all, level)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) writeLine(
	buf *bytes.Buffer,
	prefix string,
	attrs []slog.Attr,
	level slog.Level,
) {
	for _, a := range attrs {
		a = h.replace(a)
		if a.Equal(slog.Attr{}) {
			continue
		}

		if a.Value.Kind() == slog.KindGroup {
			h.writeLine(buf, prefix+a.Key+".", a.Value.Group(), level)

			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.pal.key.Render(prefix + a.Key))
		buf.WriteByte('=')
		h.writeValue(buf, a, level, false)
	}
}

func (h *prettyHandler) writeBlock(
	buf *bytes.Buffer,
	attrs []slog.Attr,
	level slog.Level,
	depth int,
) {
	indent := strings.Repeat("  ", depth)

	buf.WriteString("{\n")

	first := true

	for _, a := range attrs {
		a = h.replace(a)
		if a.Equal(slog.Attr{}) {
			continue
		}

		if !first {
			buf.WriteString(",\n")
		}

		first = false

		buf.WriteString(indent)
		buf.WriteString(h.pal.key.Render(strconv.Quote(a.Key)))
		buf.WriteString(": ")

		if a.Value.Kind() == slog.KindGroup {
			h.writeBlock(buf, a.Value.Group(), level, depth+1)

			continue
		}

		h.writeValue(buf, a, level, true)
	}

	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat("  ", depth-1))
	buf.WriteByte('}')
}

func (h *prettyHandler) writeValue(
	buf *bytes.Buffer,
	a slog.Attr,
	level slog.Level,
	quote bool,
) {
	v := a.Value

	str := func(s string) string {
		if quote {
			return strconv.Quote(s)
		}

		return s
	}

	switch {
	case a.Key == slog.LevelKey && v.Kind() == slog.KindString:
		buf.WriteString(h.pal.forLevel(level).Render(str(v.String())))

	case a.Key == slog.TimeKey:
		buf.WriteString(h.pal.time.Render(str(v.String())))

	case v.Kind() == slog.KindInt64,
		v.Kind() == slog.KindUint64,
		v.Kind() == slog.KindFloat64:
		buf.WriteString(h.pal.num.Render(v.String()))

	case v.Kind() == slog.KindBool:
		if v.Bool() {
			buf.WriteString(h.pal.yes.Render("true"))
		} else {
			buf.WriteString(h.pal.no.Render("false"))
		}

	case v.Kind() == slog.KindDuration:
		buf.WriteString(h.pal.num.Render(str(v.Duration().String())))

	case v.Kind() == slog.KindAny && v.Any() == nil:
		buf.WriteString(h.pal.null.Render("null"))

	case v.Kind() == slog.KindAny:
		if err, ok := v.Any().(error); ok {
			buf.WriteString(h.pal.forLevel(slog.LevelError).Render(str(err.Error())))

			return
		}

		buf.WriteString(h.pal.str.Render(str(fmt.Sprint(v.Any()))))

	default:
		buf.WriteString(h.pal.str.Render(str(v.String())))
	}
}
