package translate

import (
	"context"
	"errors"
)

// ErrModelNotLoaded is returned by the local provider until a model backend
// is wired in.
var ErrModelNotLoaded = errors.New("local translation model not loaded")

// LocalModelProvider is a declared-but-inert chain member: it keeps the slot
// for an on-host model without ever being selected, since Available is false
// until a backend exists. Chain-selection logic needs no change when one
// arrives.
type LocalModelProvider struct{}

var _ Provider = (*LocalModelProvider)(nil)

// NewLocalModelProvider creates the disabled local-model provider.
func NewLocalModelProvider() *LocalModelProvider {
	return &LocalModelProvider{}
}

func (p *LocalModelProvider) Name() string              { return "local-model" }
func (p *LocalModelProvider) Confidence() float64       { return 0.8 }
func (p *LocalModelProvider) Available() bool           { return false }
func (p *LocalModelProvider) Supports(_, _ string) bool { return true }

func (p *LocalModelProvider) Translate(_ context.Context, _, _, _ string) (string, error) {
	return "", ErrModelNotLoaded
}
