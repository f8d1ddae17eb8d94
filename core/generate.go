package core

import (
	"context"

	"github.com/pkg/errors"
)

// ErrGenerationTimeout is returned by a ContentGenerator when the call's
// deadline expires before the upstream model responds.
var ErrGenerationTimeout = errors.New("content generation timed out")

// ContentGenerator is any service that can turn a prompt into renderable markup.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
