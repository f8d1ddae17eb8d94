package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
)

// NewConfig returns a test configuration that never touches the environment.
func NewConfig() *core.Config {
	conf := &core.Config{
		Debug:    false,
		TestMode: true,
		Env:      "TEST",
		AppName:  "Darasa",
	}
	conf.Generator.Model = "gemini-flash-latest"
	conf.Generator.Timeout = 2 * time.Second
	return conf
}

// CreateLesson seeds a lesson through the repository, optionally finalizing it
// into the wanted status.
func CreateLesson(
	t *testing.T,
	repo lesson.Repository,
	outline, content, status string,
	createdAt ...time.Time,
) lesson.Lesson {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	ctx := context.Background()
	les, err := repo.CreateLesson(ctx, lesson.Lesson{
		Outline:   outline,
		Status:    lesson.StatusGenerating,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}

	switch status {
	case lesson.StatusGenerated:
		prompt := lesson.BuildPrompt(outline)
		les, err = repo.SaveGeneration(ctx, les.ID, content, lesson.Trace{
			{Step: lesson.StepPromptSent, Prompt: prompt},
			{Step: lesson.StepResponseReceived, Response: content},
		})
	case lesson.StatusFailed:
		les, err = repo.MarkLessonFailed(ctx, les.ID, lesson.Trace{
			{Step: lesson.StepPromptSent, Prompt: lesson.BuildPrompt(outline)},
			{Step: lesson.StepGenerationFailed, Response: "boom"},
		})
	}
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return les
}

// NopLogger is a core.Logger that discards everything.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
