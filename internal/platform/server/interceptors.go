package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/engineer-capacity/internal/core/session"
	"github.com/ogurasousui/engineer-capacity/internal/platform/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	requestIDHeader     = "x-request-id"
	authorizationHeader = "authorization"
	bearerPrefix        = "bearer "
)

// RequestObserver は RPC ごとの結果を記録します。
type RequestObserver interface {
	ObserveRequest(method, code string, elapsed time.Duration)
}

// Authenticator はベアラートークンから利用者を特定します。
type Authenticator interface {
	Authenticate(token string) (session.User, error)
}

type requestIDKey struct{}

// RequestIDFromContext はリクエスト ID を返します。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDInterceptor はメタデータの x-request-id を引き継ぎ、無ければ採番します。
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		id := firstMetadata(ctx, requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, id))
		return next(context.WithValue(ctx, requestIDKey{}, id), req)
	}
}

// LoggingInterceptor はリクエスト単位のロガーをコンテキストに載せ、完了時に結果を出力します。
func LoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		l := base.With(
			slog.String("method", info.FullMethod),
			slog.String("request_id", RequestIDFromContext(ctx)),
		)
		start := time.Now()
		resp, err := next(logger.WithContext(ctx, l), req)

		code := status.Code(err)
		attrs := []any{
			slog.String("code", code.String()),
			slog.Duration("elapsed", time.Since(start)),
		}
		switch code {
		case codes.OK:
			l.Info("rpc completed", attrs...)
		case codes.Internal, codes.Unknown:
			l.Error("rpc failed", append(attrs, slog.String("error", err.Error()))...)
		default:
			l.Warn("rpc rejected", append(attrs, slog.String("error", err.Error()))...)
		}
		return resp, err
	}
}

// MetricsInterceptor は RPC の件数と所要時間を記録します。
func MetricsInterceptor(observer RequestObserver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		observer.ObserveRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// AuthInterceptor は authorization ヘッダーのベアラートークンを検証してセッションを設定します。
// ヘッダーが無い場合はセッション無しで通し、認可は各ハンドラーに委ねます。
func AuthInterceptor(auth Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		raw := firstMetadata(ctx, authorizationHeader)
		if raw == "" {
			return next(ctx, req)
		}
		if len(raw) <= len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
			return nil, status.Error(codes.Unauthenticated, "authorization header must use the Bearer scheme")
		}
		token := strings.TrimSpace(raw[len(bearerPrefix):])
		user, err := auth.Authenticate(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return next(session.WithSession(ctx, token, user), req)
	}
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
