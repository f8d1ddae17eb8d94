package dummygen

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/darasa/core"
)

// Service is a configurable core.ContentGenerator double for tests and local
// development. It records every prompt it receives.
type Service struct {
	Response string
	Err      error
	Delay    time.Duration

	mu      sync.Mutex
	prompts []string
}

var _ core.ContentGenerator = (*Service)(nil)

func NewService(response string) *Service {
	return &Service{Response: response}
}

func (svc *Service) GenerateContent(ctx context.Context, prompt string) (string, error) {
	svc.mu.Lock()
	svc.prompts = append(svc.prompts, prompt)
	svc.mu.Unlock()

	if svc.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", core.ErrGenerationTimeout
		case <-time.After(svc.Delay):
		}
	}
	if svc.Err != nil {
		return "", svc.Err
	}
	return svc.Response, nil
}

func (svc *Service) Prompts() []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]string(nil), svc.prompts...)
}

func (svc *Service) CallCount() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.prompts)
}
