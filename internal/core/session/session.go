package session

import (
	"context"
	"errors"
	"strings"
)

// Role は利用者の権限区分です。
type Role string

const (
	RoleManager  Role = "manager"
	RoleEngineer Role = "engineer"
)

var (
	// ErrUnauthenticated はセッションが存在しない場合に返却されます。
	ErrUnauthenticated = errors.New("session: unauthenticated")
	// ErrForbidden は権限が不足している場合に返却されます。
	ErrForbidden = errors.New("session: permission denied")
	// ErrInvalidRole は未知のロールが指定された場合に返却されます。
	ErrInvalidRole = errors.New("session: invalid role")
)

// User はログイン中の利用者です。
type User struct {
	ID    string
	Email string
	Role  Role
}

// Provider は現在のセッション情報を提供する外部協調者です。
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
	Token(ctx context.Context) (string, error)
}

type sessionContextKey struct{}

type state struct {
	user  User
	token string
}

// WithSession はトークンと利用者をコンテキストへ格納します。
func WithSession(ctx context.Context, token string, user User) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, state{user: user, token: token})
}

// ContextProvider は WithSession で格納された情報を返す Provider 実装です。
type ContextProvider struct{}

// CurrentUser は利用者を返します。
func (ContextProvider) CurrentUser(ctx context.Context) (*User, error) {
	s, ok := fromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	u := s.user
	return &u, nil
}

// Token はセッショントークンを返します。
func (ContextProvider) Token(ctx context.Context) (string, error) {
	s, ok := fromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return s.token, nil
}

func fromContext(ctx context.Context) (state, bool) {
	if ctx == nil {
		return state{}, false
	}
	s, ok := ctx.Value(sessionContextKey{}).(state)
	return s, ok
}

// ParseRole は文字列をロールへ変換します。
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleManager:
		return RoleManager, nil
	case RoleEngineer:
		return RoleEngineer, nil
	default:
		return "", ErrInvalidRole
	}
}

// RequireRole は利用者が指定ロールのいずれかを持つことを確認します。
func RequireRole(ctx context.Context, p Provider, roles ...Role) (*User, error) {
	u, err := p.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if u.Role == r {
			return u, nil
		}
	}
	return nil, ErrForbidden
}

// CanViewEngineer はマネージャーであるか本人である場合に true を返します。
func CanViewEngineer(u *User, engineerID string) bool {
	if u == nil {
		return false
	}
	return u.Role == RoleManager || u.ID == engineerID
}
