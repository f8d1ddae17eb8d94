package tests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/trezcool/darasa/core/lesson"
	testutil "github.com/trezcool/darasa/tests"
)

type createRes struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

type lessonRes struct {
	Lesson lesson.Lesson `json:"lesson"`
}

type lessonListRes struct {
	Lessons []lesson.Lesson `json:"lessons"`
}

func Test_lessonApi_create(t *testing.T) {
	ta := setup(t)

	outlineRequired := marchallObj(t, map[string]interface{}{
		"error": map[string]string{"outline": "this field is required"},
	})

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/lesson", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: outlineRequired,
		},
		{
			name: "blank outline", method: http.MethodPost, path: "/lesson", body: []byte(`{"outline":"   "}`),
			wantCode: http.StatusBadRequest, wantData: outlineRequired,
		},
		{
			name: "new outline", method: http.MethodPost, path: "/lesson", body: []byte(`{"outline":"Photosynthesis"}`),
			wantCode: http.StatusCreated, wantData: marchallObj(t, createRes{Message: "Lesson generated successfully", ID: 1}),
		},
		{
			name: "existing outline", method: http.MethodPost, path: "/lesson", body: []byte(`{"outline":"Photosynthesis"}`),
			wantCode: http.StatusOK, wantData: marchallObj(t, createRes{Message: "Lesson already exists", ID: 1}),
		},
		{
			name: "existing outline is trimmed", method: http.MethodPost, path: "/lesson", body: []byte(`{"outline":"  Photosynthesis "}`),
			wantCode: http.StatusOK, wantData: marchallObj(t, createRes{Message: "Lesson already exists", ID: 1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// a single row, finalized in place
	les, err := ta.repo.GetLessonByOutline(context.Background(), "Photosynthesis")
	if err != nil {
		t.Fatalf("GetLessonByOutline() failed: %v", err)
	}
	if les.Status != lesson.StatusGenerated {
		t.Errorf("Status = %q, want %q", les.Status, lesson.StatusGenerated)
	}
	if les.Content == nil || *les.Content != ta.gen.Response {
		t.Errorf("Content = %v, want %q", les.Content, ta.gen.Response)
	}
	if len(les.Trace) != 2 {
		t.Errorf("len(Trace) = %d, want 2", len(les.Trace))
	}
	if n := ta.gen.CallCount(); n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
}

func Test_lessonApi_create_generatorFailure(t *testing.T) {
	ta := setup(t)
	ta.gen.Err = errors.New("quota exceeded")

	tt := httpTest{
		name: "generator failure", method: http.MethodPost, path: "/lesson", body: []byte(`{"outline":"Gravity"}`),
		wantCode: http.StatusInternalServerError,
		wantData: marchallObj(t, httpErr{Error: "generating lesson content: quota exceeded"}),
	}
	req, rec := newRequest(tt.method, tt.path, tt.body)
	ta.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// the reserved row is compensated to failed
	les, err := ta.repo.GetLessonByOutline(context.Background(), "Gravity")
	if err != nil {
		t.Fatalf("GetLessonByOutline() failed: %v", err)
	}
	if les.Status != lesson.StatusFailed {
		t.Errorf("Status = %q, want %q", les.Status, lesson.StatusFailed)
	}
}

// failingRepo refuses every store call it implements.
type failingRepo struct {
	lesson.Repository
}

var errStoreDown = errors.New("store: connection refused")

func (failingRepo) GetLessonByOutline(context.Context, string) (lesson.Lesson, error) {
	return lesson.Lesson{}, errStoreDown
}

func (failingRepo) QueryAllLessons(context.Context) ([]lesson.Lesson, error) {
	return nil, errStoreDown
}

func Test_lessonApi_storeFailure(t *testing.T) {
	ta := newTestApp(t, failingRepo{}, lesson.NewFeed())

	serverErr := marchallObj(t, httpErr{Error: http.StatusText(http.StatusInternalServerError)})
	tests := []httpTest{
		{
			name: "create", method: http.MethodPost, path: "/lesson", body: []byte(`{"outline":"Gravity"}`),
			wantCode: http.StatusInternalServerError, wantData: serverErr,
		},
		{
			name: "query", method: http.MethodGet, path: "/lesson",
			wantCode: http.StatusInternalServerError, wantData: serverErr,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// no generation was attempted against a broken store
	if n := ta.gen.CallCount(); n != 0 {
		t.Errorf("generator called %d times, want 0", n)
	}
}

func Test_lessonApi_retrieve(t *testing.T) {
	ta := setup(t)

	les := testutil.CreateLesson(t, ta.repo, "Photosynthesis", "<div>Photosynthesis</div>", lesson.StatusGenerated)
	failed := testutil.CreateLesson(t, ta.repo, "Gravity", "", lesson.StatusFailed)

	tests := []httpTest{
		{
			name: "non-numeric ID", path: "/lesson/abc",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid lesson ID"}),
		},
		{
			name: "not found", path: "/lesson/999",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "lesson not found"}),
		},
		{
			name: "found", path: "/lesson/1",
			wantCode: http.StatusOK, wantData: marchallObj(t, lessonRes{Lesson: les}),
		},
		{
			name: "found (failed lesson)", path: "/lesson/2",
			wantCode: http.StatusOK, wantData: marchallObj(t, lessonRes{Lesson: failed}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_lessonApi_query(t *testing.T) {
	ta := setup(t)

	t.Run("empty", func(t *testing.T) {
		tt := httpTest{
			path: "/lesson", wantCode: http.StatusOK,
			wantData: marchallObj(t, lessonListRes{Lessons: []lesson.Lesson{}}),
		}
		req, rec := newRequest(http.MethodGet, tt.path)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	les1 := testutil.CreateLesson(t, ta.repo, "Photosynthesis", "<div>Photosynthesis</div>", lesson.StatusGenerated)
	les2 := testutil.CreateLesson(t, ta.repo, "Gravity", "", lesson.StatusFailed)
	les3 := testutil.CreateLesson(t, ta.repo, "Mitosis", "", lesson.StatusGenerating)

	t.Run("ascending ID order", func(t *testing.T) {
		tt := httpTest{
			path: "/lesson", wantCode: http.StatusOK,
			wantData: marchallObj(t, lessonListRes{Lessons: []lesson.Lesson{les1, les2, les3}}),
		}
		req, rec := newRequest(http.MethodGet, tt.path)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

// waitForSubscribers blocks until the feed has n subscribers or the deadline passes.
func waitForSubscribers(t *testing.T, feed *lesson.Feed, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for feed.SubscriberCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("SubscriberCount() = %d, want %d", feed.SubscriberCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func Test_lessonApi_stream(t *testing.T) {
	ta := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/lesson/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ta.app.ServeHTTP(rec, req)
	}()

	waitForSubscribers(t, ta.feed, 1)
	testutil.CreateLesson(t, ta.repo, "Photosynthesis", "<div>Photosynthesis</div>", lesson.StatusGenerated)

	// give the handler a beat to flush before disconnecting
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not stop on disconnect")
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, ":ok\n\n") {
		t.Errorf("stream did not open with a comment line: %q", body)
	}
	if !strings.Contains(body, `data: {"op":"insert"`) {
		t.Errorf("stream missing insert event: %q", body)
	}
	if !strings.Contains(body, `data: {"op":"update"`) {
		t.Errorf("stream missing update event: %q", body)
	}
	if !strings.Contains(body, "Photosynthesis") {
		t.Errorf("stream missing lesson payload: %q", body)
	}
}

func Test_lessonApi_streamWS(t *testing.T) {
	ta := setup(t)

	srv := httptest.NewServer(ta.app)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/lesson/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("websocket.Dial() failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	waitForSubscribers(t, ta.feed, 1)
	les := testutil.CreateLesson(t, ta.repo, "Gravity", "", lesson.StatusGenerating)

	msgType, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("conn.Read() failed: %v", err)
	}
	if msgType != websocket.MessageText {
		t.Errorf("message type = %v, want %v", msgType, websocket.MessageText)
	}

	var evt lesson.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshaling event: %v", err)
	}
	if evt.Op != lesson.OpInsert {
		t.Errorf("Op = %q, want %q", evt.Op, lesson.OpInsert)
	}
	if evt.Lesson.ID != les.ID || evt.Lesson.Outline != les.Outline {
		t.Errorf("event lesson = %+v, want %+v", evt.Lesson, les)
	}
}
