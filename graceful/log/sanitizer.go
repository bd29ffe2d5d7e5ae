package log

import (
	"context"
	"fmt"
)

// SafeError logs err at LevelError under msg. With redact set only the
// dynamic type of err is written, so addresses and payloads carried in the
// message stay out of production logs.
func SafeError(logger Logger, ctx context.Context, msg string, err error, redact bool) {
	if logger == nil || err == nil || !logger.Enabled(LevelError) {
		return
	}

	field := Err(err)
	if redact {
		field = String("error_type", fmt.Sprintf("%T", err))
	}

	logger.Log(ctx, LevelError, msg, field)
}
