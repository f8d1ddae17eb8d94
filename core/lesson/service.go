package lesson

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound       = errors.New("lesson not found")
	ErrOutlineExists  = errors.New("a lesson with this outline already exists")
	ErrNotRegenerable = errors.New("only failed lessons can be regenerated")
)

// GenerationError wraps a content-generator failure. The reserved row has
// already been moved to StatusFailed by the time it is returned.
type GenerationError struct {
	Err     error
	Timeout bool
}

func (e *GenerationError) Error() string {
	return "generating lesson content: " + e.Err.Error()
}

type (
	Repository interface {
		CreateLesson(ctx context.Context, les Lesson) (Lesson, error)
		GetLessonByID(ctx context.Context, id int) (Lesson, error)
		GetLessonByOutline(ctx context.Context, outline string) (Lesson, error)
		// QueryAllLessons returns all lessons ordered by ascending ID.
		QueryAllLessons(ctx context.Context) ([]Lesson, error)
		// SaveGeneration writes content, StatusGenerated and the trace in a single update.
		SaveGeneration(ctx context.Context, id int, content string, trace Trace) (Lesson, error)
		MarkLessonFailed(ctx context.Context, id int, trace Trace) (Lesson, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nl NewLesson) (Result, error)
		GetByID(ctx context.Context, id int) (Lesson, error)
		QueryAll(ctx context.Context) ([]Lesson, error)
		Regenerate(ctx context.Context, id int) (Lesson, error)
	}

	// Result is the outcome of a Create call: the lesson and whether a new row
	// was created for it (false when the outline already existed).
	Result struct {
		Lesson  Lesson
		Created bool
	}

	Service struct {
		repo      Repository
		generator core.ContentGenerator
		conf      *core.Config
		logger    core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, generator core.ContentGenerator, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		conf:      conf,
		logger:    logger,
	}
}

// Create makes a lesson from a user-supplied outline: it deduplicates by
// outline, reserves a row, runs the single generation call and finalizes the
// row with the result. At most one insert, one update and one external call
// are performed per invocation.
func (svc *Service) Create(ctx context.Context, nl NewLesson) (Result, error) {
	if les, err := svc.repo.GetLessonByOutline(ctx, nl.Outline); err == nil {
		return Result{Lesson: les}, nil
	} else if errors.Cause(err) != ErrNotFound {
		return Result{}, errors.Wrap(err, "looking up lesson")
	}

	now := time.Now().UTC()
	les, err := svc.repo.CreateLesson(ctx, Lesson{
		Outline:   nl.Outline,
		Status:    StatusGenerating,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrOutlineExists {
			// lost the reservation race; the store's unique index makes the
			// concurrent row authoritative
			existing, gErr := svc.repo.GetLessonByOutline(ctx, nl.Outline)
			if gErr != nil {
				return Result{}, errors.Wrap(gErr, "fetching concurrent lesson")
			}
			return Result{Lesson: existing}, nil
		}
		return Result{}, errors.Wrap(err, "reserving lesson")
	}

	les, err = svc.generate(ctx, les)
	if err != nil {
		return Result{}, err
	}
	return Result{Lesson: les, Created: true}, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Lesson, error) {
	return svc.repo.QueryAllLessons(ctx)
}

// Regenerate re-runs the generation call for a failed lesson, keeping its
// identifier and outline.
func (svc *Service) Regenerate(ctx context.Context, id int) (Lesson, error) {
	les, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if !les.IsFailed() {
		return Lesson{}, ErrNotRegenerable
	}
	return svc.generate(ctx, les)
}

// generate runs the single external call for a reserved row and finalizes it:
// content + StatusGenerated + the two-entry trace on success, StatusFailed with
// a failure trace otherwise.
func (svc *Service) generate(ctx context.Context, les Lesson) (Lesson, error) {
	prompt := BuildPrompt(les.Outline)
	trace := Trace{{Step: StepPromptSent, Prompt: prompt}}

	genCtx := ctx
	if timeout := svc.conf.Generator.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	content, err := svc.generator.GenerateContent(genCtx, prompt)
	if err == nil && core.CleanString(content) == "" {
		err = errors.New("generator returned empty content")
	}
	if err != nil {
		trace = append(trace, TraceEntry{Step: StepGenerationFailed, Response: err.Error()})
		if _, fErr := svc.repo.MarkLessonFailed(ctx, les.ID, trace); fErr != nil {
			svc.logger.Error("marking lesson failed", fErr)
		}
		return Lesson{}, &GenerationError{
			Err:     err,
			Timeout: errors.Cause(err) == core.ErrGenerationTimeout,
		}
	}

	trace = append(trace, TraceEntry{Step: StepResponseReceived, Response: content})
	saved, err := svc.repo.SaveGeneration(ctx, les.ID, content, trace)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "saving generated lesson")
	}
	return saved, nil
}
