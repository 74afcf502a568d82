// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and the
// context map are logged as separate attributes.
func LogError(logger *slog.Logger, msg string, err error) {
	LogErrorContext(context.Background(), logger, msg, err)
}

// LogErrorContext is LogError for request-scoped logging; ctx reaches the
// handler, which may add trace attributes from it. A nil logger logs to
// slog.Default and a nil err logs nothing.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if err == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{slog.String("error", err.Error())}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := Code(err); code != "" {
			attrs = append(attrs, slog.String("code", code))
		}
		if kv := oopsErr.Context(); len(kv) > 0 {
			attrs = append(attrs, slog.Any("context", kv))
		}
	}
	logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
