package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/darasa/core/lesson"
)

type lessonRepository struct {
	db   *lessonTable
	feed *lesson.Feed
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

// NewLessonRepository returns an in-memory lesson.Repository. When a feed is
// given, insert/update events are published to it the way the real store's
// trigger would.
func NewLessonRepository(db *DB, feed ...*lesson.Feed) lesson.Repository {
	repo := &lessonRepository{db: db.lesson}
	if len(feed) > 0 {
		repo.feed = feed[0]
	}
	return repo
}

func (repo *lessonRepository) publish(op string, les lesson.Lesson) {
	if repo.feed != nil {
		repo.feed.Publish(lesson.Event{Op: op, Lesson: les})
	}
}

func (repo *lessonRepository) CreateLesson(_ context.Context, les lesson.Lesson) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, l := range repo.db.table {
		if l.Outline == les.Outline {
			return lesson.Lesson{}, lesson.ErrOutlineExists
		}
	}

	repo.db.pkCount++
	les.ID = repo.db.pkCount
	repo.db.table[les.ID] = &les
	repo.publish(lesson.OpInsert, les)
	return les, nil
}

func (repo *lessonRepository) GetLessonByID(_ context.Context, id int) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if les, ok := repo.db.table[id]; ok {
		return *les, nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) GetLessonByOutline(_ context.Context, outline string) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, les := range repo.db.table {
		if les.Outline == outline {
			return *les, nil
		}
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) QueryAllLessons(_ context.Context) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]lesson.Lesson, 0, len(repo.db.table))
	for _, les := range repo.db.table {
		lessons = append(lessons, *les)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].ID < lessons[j].ID })
	return lessons, nil
}

func (repo *lessonRepository) SaveGeneration(_ context.Context, id int, content string, trace lesson.Trace) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	les, ok := repo.db.table[id]
	if !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	les.Content = &content
	les.Status = lesson.StatusGenerated
	les.Trace = trace
	les.UpdatedAt = time.Now().UTC()
	repo.publish(lesson.OpUpdate, *les)
	return *les, nil
}

func (repo *lessonRepository) MarkLessonFailed(_ context.Context, id int, trace lesson.Trace) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	les, ok := repo.db.table[id]
	if !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	les.Status = lesson.StatusFailed
	les.Trace = trace
	les.UpdatedAt = time.Now().UTC()
	repo.publish(lesson.OpUpdate, *les)
	return *les, nil
}
