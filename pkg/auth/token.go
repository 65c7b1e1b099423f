package auth

import (
	"context"
	"strings"

	"github.com/aretw0/onboard/pkg/ports"
)

// StaticToken is a TokenSource returning a fixed credential.
// An empty StaticToken behaves as a missing credential.
type StaticToken string

// Token implements ports.TokenSource.
func (s StaticToken) Token(ctx context.Context) (string, bool) {
	return string(s), s != ""
}

type tokenKey struct{}

// WithToken stores a bearer credential in the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextToken is a TokenSource reading the credential stored by WithToken.
type ContextToken struct{}

// Token implements ports.TokenSource.
func (ContextToken) Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// ParseBearer extracts the credential from an Authorization header value.
func ParseBearer(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Chain returns the first credential any of the sources provides.
func Chain(sources ...ports.TokenSource) ports.TokenSource {
	return chain(sources)
}

type chain []ports.TokenSource

func (c chain) Token(ctx context.Context) (string, bool) {
	for _, src := range c {
		if token, ok := src.Token(ctx); ok {
			return token, true
		}
	}
	return "", false
}
