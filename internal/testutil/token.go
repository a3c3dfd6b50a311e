// Package testutil provides deterministic helpers for tests.
package testutil

// FixedTokenGenerator generates the same submission token every time.
//
// Unlike engine.FixedGenerator which returns tokens in sequence, this
// generator always returns the same token. Scenarios use it so every
// journal entry shares one token and golden snapshots stay
// byte-identical across runs.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for
// concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed token generator.
// If token is empty, Generate() returns "test-token-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-token-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}

// Token returns the configured token without the generator interface.
func (g *FixedTokenGenerator) Token() string {
	return g.token
}
