// Package dummydb is an in-memory store implementing every repository, for tests and local runs.
package dummydb

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type (
	DB struct {
		mu   sync.RWMutex // guards t
		txMu sync.Mutex   // serializes transactions
		t    *tables
	}

	// tables holds rows by id. Joined (read only) fields are never stored.
	tables struct {
		seq int64
		ord map[string]int64 // {id: insertion order}

		users         map[string]user.User
		students      map[string]user.Student
		teachers      map[string]user.Teacher
		parents       map[string]user.Parent
		courses       map[string]course.Course
		modules       map[string]course.Module
		enrollments   map[string]course.Enrollment
		marks         map[string]mark.Mark
		attendance    map[string]attendance.Record
		assignments   map[string]assignment.Assignment
		submissions   map[string]assignment.Submission
		announcements map[string]announcement.Announcement
	}
)

func Open() *DB {
	return &DB{t: newTables()}
}

func newTables() *tables {
	return &tables{
		ord:           make(map[string]int64),
		users:         make(map[string]user.User),
		students:      make(map[string]user.Student),
		teachers:      make(map[string]user.Teacher),
		parents:       make(map[string]user.Parent),
		courses:       make(map[string]course.Course),
		modules:       make(map[string]course.Module),
		enrollments:   make(map[string]course.Enrollment),
		marks:         make(map[string]mark.Mark),
		attendance:    make(map[string]attendance.Record),
		assignments:   make(map[string]assignment.Assignment),
		submissions:   make(map[string]assignment.Submission),
		announcements: make(map[string]announcement.Announcement),
	}
}

// clone deep copies the tables. Rows are values; the only shared pointers are
// submission marks and graded_at, which are never mutated in place.
func (t *tables) clone() *tables {
	c := newTables()
	c.seq = t.seq
	for k, v := range t.ord {
		c.ord[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.teachers {
		c.teachers[k] = v
	}
	for k, v := range t.parents {
		c.parents[k] = v
	}
	for k, v := range t.courses {
		c.courses[k] = v
	}
	for k, v := range t.modules {
		c.modules[k] = v
	}
	for k, v := range t.enrollments {
		c.enrollments[k] = v
	}
	for k, v := range t.marks {
		c.marks[k] = v
	}
	for k, v := range t.attendance {
		c.attendance[k] = v
	}
	for k, v := range t.assignments {
		c.assignments[k] = v
	}
	for k, v := range t.submissions {
		c.submissions[k] = v
	}
	for k, v := range t.announcements {
		c.announcements[k] = v
	}
	return c
}

// newID returns a fresh primary key and records its insertion order.
func (t *tables) newID() string {
	id := uuid.New().String()
	t.seq++
	t.ord[id] = t.seq
	return id
}

// Reset drops every row.
func (db *DB) Reset() {
	db.mu.Lock()
	db.t = newTables()
	db.mu.Unlock()
}

func (db *DB) read(fn func(t *tables)) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(db.t)
}

// write applies fn under the table lock. Writes outside of a transaction wait for any running one
// to finish so that a rollback never drops them.
func (db *DB) write(exec []core.DBExecutor, fn func(t *tables) error) error {
	if !inTx(exec) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.t)
}

var errTxExec = errors.New("dummy: transaction marker cannot run queries")

// txExec marks repository calls made from within WithinTx.
type txExec struct{}

func (*txExec) Exec(string, ...interface{}) (sql.Result, error) { return nil, errTxExec }
func (*txExec) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errTxExec
}
func (*txExec) Query(string, ...interface{}) (*sql.Rows, error) { return nil, errTxExec }
func (*txExec) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errTxExec
}
func (*txExec) QueryRow(string, ...interface{}) *sql.Row                         { return nil }
func (*txExec) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

func inTx(exec []core.DBExecutor) bool {
	for _, e := range exec {
		if _, ok := e.(*txExec); ok {
			return true
		}
	}
	return false
}

type transactor struct {
	db *DB
}

var _ core.Transactor = (*transactor)(nil) // interface compliance check

// NewTransactor returns a Transactor restoring the tables as they were before fn whenever fn fails.
// Repository writes belong to the transaction only when given the executor passed to fn.
func NewTransactor(db *DB) core.Transactor {
	return &transactor{db: db}
}

func (tx *transactor) WithinTx(_ context.Context, fn core.TxFunc) (err error) {
	tx.db.txMu.Lock()
	defer tx.db.txMu.Unlock()

	var snapshot *tables
	tx.db.read(func(t *tables) { snapshot = t.clone() })

	rollback := func() {
		tx.db.mu.Lock()
		tx.db.t = snapshot
		tx.db.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(&txExec{}); err != nil {
		rollback()
	}
	return err
}
