package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
)

// uniqueViolation is the Postgres error code raised by the unique index on
// lessons.outline; the repository turns it into lesson.ErrOutlineExists so the
// service can resolve the duplicate-submission race.
const uniqueViolation = "23505"

var allOrdering = core.DBOrdering{Field: "id", Ascending: true}

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{db: sqlx.NewDb(db, "postgres")}
}

// trapNoRowsErr maps psql "no rows" err to lesson.ErrNotFound
func (repo lessonRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return lesson.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo lessonRepository) CreateLesson(ctx context.Context, les lesson.Lesson) (lesson.Lesson, error) {
	var created lesson.Lesson
	err := repo.db.GetContext(ctx, &created, `
		INSERT INTO lessons (outline, status, trace, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
		les.Outline, les.Status, les.Trace, les.CreatedAt, les.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return lesson.Lesson{}, lesson.ErrOutlineExists
		}
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return created, nil
}

func (repo lessonRepository) GetLessonByID(ctx context.Context, id int) (lesson.Lesson, error) {
	var les lesson.Lesson
	if err := repo.db.GetContext(ctx, &les, `SELECT * FROM lessons WHERE id = $1`, id); err != nil {
		return lesson.Lesson{}, repo.trapNoRowsErr(err, "getting lesson by id")
	}
	return les, nil
}

func (repo lessonRepository) GetLessonByOutline(ctx context.Context, outline string) (lesson.Lesson, error) {
	var les lesson.Lesson
	if err := repo.db.GetContext(ctx, &les, `SELECT * FROM lessons WHERE outline = $1`, outline); err != nil {
		return lesson.Lesson{}, repo.trapNoRowsErr(err, "getting lesson by outline")
	}
	return les, nil
}

func (repo lessonRepository) QueryAllLessons(ctx context.Context) ([]lesson.Lesson, error) {
	lessons := make([]lesson.Lesson, 0)
	err := repo.db.SelectContext(ctx, &lessons, `SELECT * FROM lessons ORDER BY `+allOrdering.String())
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	return lessons, nil
}

func (repo lessonRepository) SaveGeneration(ctx context.Context, id int, content string, trace lesson.Trace) (lesson.Lesson, error) {
	var les lesson.Lesson
	err := repo.db.GetContext(ctx, &les, `
		UPDATE lessons
		SET content = $2, status = $3, trace = $4, updated_at = $5
		WHERE id = $1
		RETURNING *`,
		id, content, lesson.StatusGenerated, trace, time.Now().UTC(),
	)
	if err != nil {
		return lesson.Lesson{}, repo.trapNoRowsErr(err, "saving generated lesson")
	}
	return les, nil
}

func (repo lessonRepository) MarkLessonFailed(ctx context.Context, id int, trace lesson.Trace) (lesson.Lesson, error) {
	var les lesson.Lesson
	err := repo.db.GetContext(ctx, &les, `
		UPDATE lessons
		SET status = $2, trace = $3, updated_at = $4
		WHERE id = $1
		RETURNING *`,
		id, lesson.StatusFailed, trace, time.Now().UTC(),
	)
	if err != nil {
		return lesson.Lesson{}, repo.trapNoRowsErr(err, "marking lesson failed")
	}
	return les, nil
}
