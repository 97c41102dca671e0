package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) DeleteDay(_ context.Context, courseID string, date time.Time, exec ...core.DBExecutor) error {
	return repo.db.write(exec, func(t *tables) error {
		for id, r := range t.attendance {
			if r.CourseID == courseID && sameDay(r.Date, date) {
				delete(t.attendance, id)
			}
		}
		return nil
	})
}

func (repo *attendanceRepository) InsertRecords(_ context.Context, records []attendance.Record, exec ...core.DBExecutor) error {
	return repo.db.write(exec, func(t *tables) error {
		for _, rec := range records {
			for _, r := range t.attendance {
				if r.StudentID == rec.StudentID && r.CourseID == rec.CourseID && sameDay(r.Date, rec.Date) {
					return attendance.ErrRecordExists
				}
			}
			rec.ID = t.newID()
			t.attendance[rec.ID] = rec
		}
		return nil
	})
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.Filter, _ ...core.DBExecutor) ([]attendance.Entry, error) {
	entries := make([]attendance.Entry, 0)
	repo.db.read(func(t *tables) {
		for _, r := range t.attendance {
			switch {
			case filter.CourseID != "" && r.CourseID != filter.CourseID,
				filter.StudentID != "" && r.StudentID != filter.StudentID,
				!filter.Date.IsZero() && !sameDay(r.Date, filter.Date):
				continue
			}
			st, _ := t.student(r.StudentID)
			crs := t.courses[r.CourseID]
			entries = append(entries, attendance.Entry{
				Record:             r,
				StudentName:        st.FullName,
				RegistrationNumber: st.RegistrationNumber,
				CourseName:         crs.Name,
				CourseCode:         crs.Code,
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			if !entries[i].Date.Equal(entries[j].Date) {
				return entries[i].Date.After(entries[j].Date)
			}
			return t.ord[entries[i].ID] < t.ord[entries[j].ID]
		})
	})
	return entries, nil
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format(core.DateLayout) == b.UTC().Format(core.DateLayout)
}
