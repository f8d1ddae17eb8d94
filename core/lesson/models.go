package lesson

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Statuses
const (
	StatusGenerating = "generating"
	StatusGenerated  = "generated"
	StatusFailed     = "failed"
)

// Trace steps
const (
	StepPromptSent       = "Prompt Sent"
	StepResponseReceived = "Response Received"
	StepGenerationFailed = "Generation Failed"
)

type (
	// TraceEntry records one step of a generation call.
	TraceEntry struct {
		Step     string `json:"step"`
		Prompt   string `json:"prompt,omitempty"`
		Response string `json:"response,omitempty"`
	}

	// Trace is the ordered, append-only provenance of a generation call.
	// It is stored as a single jsonb column.
	Trace []TraceEntry

	Lesson struct {
		ID        int       `json:"id" db:"id"`
		Outline   string    `json:"outline" db:"outline"`
		Content   *string   `json:"content" db:"content"` // nil until generation succeeds
		Status    string    `json:"status" db:"status"`
		Trace     Trace     `json:"trace" db:"trace"`
		CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
	}

	NewLesson struct {
		Outline string `json:"outline" validate:"required,notblank"`
	}
)

func (t Trace) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *Trace) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return errors.Errorf("scanning trace: unexpected type %T", src)
	}
	return json.Unmarshal(data, t)
}

func (l *Lesson) IsGenerated() bool {
	return l.Status == StatusGenerated
}

func (l *Lesson) IsFailed() bool {
	return l.Status == StatusFailed
}
