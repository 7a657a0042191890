package session

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// Credential は静的トークンと利用者の対応です。
type Credential struct {
	Token string
	User  User
}

// TokenStore は設定ファイルで与えられたベアラートークンを検証します。
type TokenStore struct {
	creds []Credential
}

// NewTokenStore は TokenStore を生成します。空のトークンや重複は拒否します。
func NewTokenStore(creds []Credential) (*TokenStore, error) {
	seen := make(map[string]struct{}, len(creds))
	out := make([]Credential, 0, len(creds))
	for i, c := range creds {
		token := strings.TrimSpace(c.Token)
		if token == "" || strings.TrimSpace(c.User.ID) == "" {
			return nil, fmt.Errorf("session: credential %d requires token and user id", i)
		}
		if c.User.Role != RoleManager && c.User.Role != RoleEngineer {
			return nil, fmt.Errorf("session: credential %d: %w", i, ErrInvalidRole)
		}
		if _, dup := seen[token]; dup {
			return nil, fmt.Errorf("session: credential %d duplicates another token", i)
		}
		seen[token] = struct{}{}
		c.Token = token
		out = append(out, c)
	}
	return &TokenStore{creds: out}, nil
}

// Authenticate はトークンに対応する利用者を返します。
func (s *TokenStore) Authenticate(token string) (User, error) {
	token = strings.TrimSpace(token)
	if s == nil || token == "" {
		return User{}, ErrUnauthenticated
	}
	for _, c := range s.creds {
		if subtle.ConstantTimeCompare([]byte(c.Token), []byte(token)) == 1 {
			return c.User, nil
		}
	}
	return User{}, ErrUnauthenticated
}
