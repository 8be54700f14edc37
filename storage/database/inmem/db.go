// Package inmemdb is a map backed store used by the tests and the "memory" driver.
package inmemdb

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/course"
	"github.com/coding7860/sparkminds-backend/core/schedule"
	"github.com/coding7860/sparkminds-backend/core/user"
)

type tables struct {
	users     map[int]user.User
	courses   map[int]course.Course
	modules   map[int]course.Module
	subtopics map[int]course.Subtopic
	classes   map[int]schedule.Class
}

func (t tables) clone() tables {
	return tables{
		users:     maps.Clone(t.users),
		courses:   maps.Clone(t.courses),
		modules:   maps.Clone(t.modules),
		subtopics: maps.Clone(t.subtopics),
		classes:   maps.Clone(t.classes),
	}
}

// DB holds every table in memory. It is safe for concurrent use.
type DB struct {
	mu   sync.RWMutex
	txMu sync.RWMutex // held by InTx for the whole unit of work
	tables
	seq int
}

var _ core.Transactor = (*DB)(nil)

func NewDB() *DB {
	return &DB{
		tables: tables{
			users:     make(map[int]user.User),
			courses:   make(map[int]course.Course),
			modules:   make(map[int]course.Module),
			subtopics: make(map[int]course.Subtopic),
			classes:   make(map[int]schedule.Class),
		},
	}
}

// nextID must be called with mu held.
func (db *DB) nextID() int {
	db.seq++
	return db.seq
}

// txExecutor is handed to the InTx callback. Repository calls made with it join the running unit of work.
type txExecutor struct {
	core.DBExecutor
}

// guard makes a repository call wait for the running unit of work, unless the call is part of it.
// Outside calls then neither see partial writes nor get undone by a rollback.
func (db *DB) guard(exec []core.DBExecutor) func() {
	for _, e := range exec {
		if _, ok := e.(txExecutor); ok {
			return func() {}
		}
	}
	db.txMu.RLock()
	return db.txMu.RUnlock
}

// InTx runs fn against a snapshot of the tables. The snapshot is restored if fn fails or panics.
// Units of work are serialized, and repository calls outside fn wait for them.
// Inside fn, repositories must be given exec.
func (db *DB) InTx(_ context.Context, fn func(exec core.DBExecutor) error) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.tables.clone()
	db.mu.RUnlock()

	rollback := func() {
		db.mu.Lock()
		db.tables = snapshot
		db.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(txExecutor{}); err != nil {
		rollback()
	}
	return err
}

// Flush empties every table.
func (db *DB) Flush() {
	defer db.guard(nil)()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[int]user.User)
	db.courses = make(map[int]course.Course)
	db.modules = make(map[int]course.Module)
	db.subtopics = make(map[int]course.Subtopic)
	db.classes = make(map[int]schedule.Class)
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// page slices items with limit and offset. A limit of 0 keeps everything after offset.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
