// Package secrets хранит API-токены только в виде argon2id-хешей.
package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Token: именованный токен из конфигурации. Имя становится пользователем в журнале.
type Token struct {
	Name  string `mapstructure:"name"`
	Token string `mapstructure:"token"`
}

type entry struct {
	name string
	hash []byte
}

// TokenSet сверяет предъявленный токен со всеми известными за постоянное время.
type TokenSet struct {
	salt    []byte
	entries []entry
}

func NewTokenSet(tokens []Token) (*TokenSet, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("token salt: %w", err)
	}
	s := &TokenSet{salt: salt}
	seen := make(map[string]bool, len(tokens))
	for i, t := range tokens {
		name := strings.TrimSpace(t.Name)
		if name == "" || t.Token == "" {
			return nil, fmt.Errorf("auth token #%d: name and token are required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("auth token %q: duplicate name", name)
		}
		seen[name] = true
		s.entries = append(s.entries, entry{name: name, hash: s.hash(t.Token)})
	}
	return s, nil
}

func (s *TokenSet) hash(token string) []byte {
	return argon2.IDKey([]byte(token), s.salt, 1, 19*1024, 1, 32)
}

// Empty: токены не заданы, API открыт.
func (s *TokenSet) Empty() bool { return s == nil || len(s.entries) == 0 }

var ErrUnknownToken = errors.New("unknown token")

// Verify возвращает имя токена. Все записи проверяются без раннего выхода.
func (s *TokenSet) Verify(candidate string) (string, error) {
	if s.Empty() || candidate == "" {
		return "", ErrUnknownToken
	}
	h := s.hash(candidate)
	name := ""
	for _, e := range s.entries {
		if subtle.ConstantTimeCompare(h, e.hash) == 1 {
			name = e.name
		}
	}
	if name == "" {
		return "", ErrUnknownToken
	}
	return name, nil
}
