// Package middleware wraps session stores and histories with cross-cutting
// persistence behavior: encryption at rest and PII redaction for display.
package middleware

import "github.com/aretw0/onboard/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore
