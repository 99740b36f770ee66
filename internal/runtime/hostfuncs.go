package runtime

import (
	"log/slog"

	"github.com/risor-io/risor/object"
)

// toObject converts a Go value to a Risor object. Script constants arrive as
// int32, int64, string and bool; converted data objects as maps and slices.
func toObject(v any) object.Object {
	switch v := v.(type) {
	case nil:
		return object.Nil
	case object.Object:
		return v
	case int32:
		return object.NewInt(int64(v))
	case int64:
		return object.NewInt(v)
	case int:
		return object.NewInt(int64(v))
	case float64:
		return object.NewFloat(v)
	case string:
		return object.NewString(v)
	case bool:
		return object.NewBool(v)
	case []any:
		items := make([]object.Object, len(v))
		for i, item := range v {
			items[i] = toObject(item)
		}
		return object.NewList(items)
	case map[string]any:
		m := make(map[string]object.Object, len(v))
		for k, item := range v {
			m[k] = toObject(item)
		}
		return object.NewMap(m)
	}
	return object.FromGoType(v)
}

// logObject provides log.Info/Warn/Error methods to function bodies.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "risor")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "risor")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "risor")
}
