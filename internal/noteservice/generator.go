package noteservice

import (
	"context"
	"errors"
)

// ErrGeneratorUnavailable is returned by a Generator that cannot serve
// requests right now.
var ErrGeneratorUnavailable = errors.New("text generator unavailable")

// Generator is an external text-generation collaborator that an assistant
// layer can feed note content to. The note service itself never calls it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NoGenerator is the Generator used when none is configured.
type NoGenerator struct{}

// Generate always fails with ErrGeneratorUnavailable.
func (NoGenerator) Generate(context.Context, string) (string, error) {
	return "", ErrGeneratorUnavailable
}
