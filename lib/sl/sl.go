package sl

import (
	"fmt"
	"log/slog"
)

func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret shows only a short prefix of a sensitive value, enough to tell
// which API key was in use without leaking it to logs
func Secret(some string) slog.Attr {
	r := "***"
	if len(some) > 6 {
		r = fmt.Sprintf("%s***", some[0:6])
	}
	if some == "" {
		r = "?"
	}
	return slog.Attr{
		Key:   "key",
		Value: slog.StringValue(r),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}
