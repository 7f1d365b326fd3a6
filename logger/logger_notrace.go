//go:build !debug_trace
// +build !debug_trace

// logger_notrace.go compiles the trace-level helpers out unless `debug_trace` is set.

package logger

import (
	"context"
)

func Trace(ctx context.Context, values ...any) {}

func Tracef(ctx context.Context, format string, args ...any) {}
