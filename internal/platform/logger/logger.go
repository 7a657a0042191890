// Package logger は log/slog をアプリケーション設定に合わせて構成します。
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ogurasousui/engineer-capacity/internal/platform/config"
)

type contextKey struct{}

// New は設定に従ってロガーを生成します。w が nil の場合は標準出力へ書き込みます。
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stdout
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch cfg.Format {
	case "", "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("logger: unsupported format %q", cfg.Format)
	}

	return slog.New(h).With(slog.String("service", "engineer-capacity")), nil
}

// ParseLevel はログレベル文字列を slog.Level へ変換します。
func ParseLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logger: unsupported level %q", raw)
	}
}

// WithContext はロガーをコンテキストへ格納します。
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext はコンテキストのロガーを返し、無ければ slog.Default を返します。
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
