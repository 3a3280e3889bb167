package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Level is the severity of a console entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a textual level to a Level. Unknown or empty values resolve
// to LevelInfo and ok=false.
func ParseLevel(value string) (level Level, ok bool) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "warning":
		return LevelWarn, true
	default:
		for i, name := range levelNames {
			if strings.EqualFold(name, v) {
				return Level(i), true
			}
		}
		return LevelInfo, false
	}
}

// pinnedFields print right after the message, in this order, so the post an
// entry is about is easy to scan for.
var pinnedFields = []string{"slug", "category", "path"}

// badKey names a trailing argument that has no value pair.
const badKey = "!BADKEY"

// Options configures the console logger provider.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
}

type provider struct {
	writer   io.Writer
	clock    func() time.Time
	minLevel Level
	mu       sync.Mutex
}

// NewProvider returns a provider writing one line per entry:
//
//	<time> <LEVEL> [<module>] <message> slug=.. category=.. path=.. <other fields>
//
// The module drops its "blog." prefix. Entries go to stdout at DEBUG and
// above unless Options say otherwise.
func NewProvider(opts Options) interfaces.LoggerProvider {
	p := &provider{writer: opts.Writer, clock: opts.TimeFunc, minLevel: LevelDebug}
	if p.writer == nil {
		p.writer = os.Stdout
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if opts.MinLevel != nil {
		p.minLevel = *opts.MinLevel
	}
	return p
}

func (p *provider) GetLogger(name string) interfaces.Logger {
	return &consoleLogger{provider: p, module: name}
}

type consoleLogger struct {
	provider *provider
	module   string
	fields   map[string]any
	ctx      context.Context
}

var (
	_ interfaces.Logger       = (*consoleLogger)(nil)
	_ interfaces.FieldsLogger = (*consoleLogger)(nil)
)

func (l *consoleLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *consoleLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *consoleLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

// WithFields returns a logger carrying fields. A "module" field replaces the
// logger's module label.
func (l *consoleLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	next := l.clone()
	if next.fields == nil {
		next.fields = make(map[string]any, len(fields))
	}
	maps.Copy(next.fields, fields)
	if module, ok := fields["module"].(string); ok && module != "" {
		next.module = module
		delete(next.fields, "module")
	}
	return next
}

func (l *consoleLogger) WithContext(ctx context.Context) interfaces.Logger {
	next := l.clone()
	next.ctx = ctx
	return next
}

func (l *consoleLogger) clone() *consoleLogger {
	return &consoleLogger{
		provider: l.provider,
		module:   l.module,
		fields:   maps.Clone(l.fields),
		ctx:      l.ctx,
	}
}

func (l *consoleLogger) log(level Level, msg string, args []any) {
	if l.provider == nil || level < l.provider.minLevel {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(args)/2)
	maps.Copy(fields, l.fields)
	maps.Copy(fields, logging.ContextFields(l.ctx))
	addArgs(fields, args)
	delete(fields, "module")

	line := formatEntry(l.provider.clock().UTC(), level, shortModule(l.module), msg, fields)

	l.provider.mu.Lock()
	defer l.provider.mu.Unlock()
	_, _ = io.WriteString(l.provider.writer, line+"\n")
}

func shortModule(module string) string {
	if trimmed := strings.TrimPrefix(module, logging.RootModule+"."); trimmed != "" {
		return trimmed
	}
	return logging.RootModule
}

// addArgs reads args as key/value pairs. Non-string keys are printed with
// fmt and a trailing lone value is kept under !BADKEY.
func addArgs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i == len(args)-1 {
			fields[badKey] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
}

func formatEntry(ts time.Time, level Level, module, msg string, fields map[string]any) string {
	var b strings.Builder
	b.Grow(64 + len(msg) + len(fields)*16)
	fmt.Fprintf(&b, "%s %-5s [%s] %s", ts.Format(time.RFC3339Nano), level, module, msg)

	for _, key := range pinnedFields {
		if value, ok := fields[key]; ok {
			writeField(&b, key, value)
			delete(fields, key)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		writeField(&b, key, fields[key])
	}
	return b.String()
}

func writeField(b *strings.Builder, key string, value any) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(value))
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quoteIfNeeded(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case error:
		return quoteIfNeeded(v.Error())
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return quoteIfNeeded(fmt.Sprint(v))
	}
}

func quoteIfNeeded(value string) string {
	if value == "" || strings.ContainsFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
