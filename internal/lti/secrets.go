package lti

import (
	"context"
	"fmt"
)

// SecretSource resolves the shared secret for a consumer key. Every
// consumer key should carry its own secret so the provider can tell its
// consumers apart.
type SecretSource interface {
	SecretFor(ctx context.Context, consumerKey string) (string, error)
}

// StaticSecrets is an in-memory SecretSource. The map is read-only after
// construction and therefore safe for concurrent use.
type StaticSecrets map[string]string

func (s StaticSecrets) SecretFor(_ context.Context, consumerKey string) (string, error) {
	secret, ok := s[consumerKey]
	if !ok {
		return "", fmt.Errorf("consumer key %q not registered", consumerKey)
	}
	return secret, nil
}
