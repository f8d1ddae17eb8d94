package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/lesson"
)

type (
	DB struct {
		lesson *lessonTable
	}

	lessonTable struct {
		sync.RWMutex
		table   map[int]*lesson.Lesson
		pkCount int
	}
)

func Open() (*DB, error) {
	db := &DB{
		lesson: &lessonTable{table: make(map[int]*lesson.Lesson)},
	}
	return db, nil
}
