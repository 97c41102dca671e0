package dummydb

import (
	"context"
	"sort"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
	"github.com/saadqamar22/LMS-2.0-sub000/core/stats"
)

type markRepository struct {
	db *DB
}

var _ mark.Repository = (*markRepository)(nil) // interface compliance check

func NewMarkRepository(db *DB) mark.Repository {
	return &markRepository{db: db}
}

func (repo *markRepository) UpsertMark(_ context.Context, m mark.Mark, exec ...core.DBExecutor) (mark.Mark, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if _, ok := t.modules[m.ModuleID]; !ok {
			return course.ErrModuleNotFound
		}
		for id, orig := range t.marks {
			if orig.StudentID == m.StudentID && orig.ModuleID == m.ModuleID {
				orig.ObtainedMarks = m.ObtainedMarks
				orig.UpdatedAt = m.UpdatedAt
				t.marks[id] = orig
				m = orig
				return nil
			}
		}
		m.ID = t.newID()
		m.Statistics.Count = 0
		t.marks[m.ID] = m
		return nil
	})
	if err != nil {
		return mark.Mark{}, err
	}
	return m, nil
}

func (repo *markRepository) ModuleScores(_ context.Context, moduleID string, _ ...core.DBExecutor) ([]float64, error) {
	scores := make([]float64, 0)
	repo.db.read(func(t *tables) {
		for _, m := range t.marks {
			if m.ModuleID == moduleID {
				scores = append(scores, m.ObtainedMarks)
			}
		}
	})
	return scores, nil
}

func (repo *markRepository) SetModuleStatistics(_ context.Context, moduleID string, s stats.Summary, exec ...core.DBExecutor) error {
	s.Count = 0 // not stored
	return repo.db.write(exec, func(t *tables) error {
		for id, m := range t.marks {
			if m.ModuleID == moduleID {
				m.Statistics = s
				t.marks[id] = m
			}
		}
		return nil
	})
}

func (repo *markRepository) QueryMarks(_ context.Context, filter mark.Filter, _ ...core.DBExecutor) ([]mark.Detail, error) {
	details := make([]mark.Detail, 0)
	repo.db.read(func(t *tables) {
		for _, m := range t.marks {
			mod := t.modules[m.ModuleID]
			crs := t.courses[mod.CourseID]
			switch {
			case filter.ModuleID != "" && m.ModuleID != filter.ModuleID,
				filter.CourseID != "" && mod.CourseID != filter.CourseID,
				filter.StudentID != "" && m.StudentID != filter.StudentID,
				filter.TeacherID != "" && crs.TeacherID != filter.TeacherID:
				continue
			}

			st, _ := t.student(m.StudentID)
			details = append(details, mark.Detail{
				Mark:               m,
				ModuleName:         mod.Name,
				TotalMarks:         mod.TotalMarks,
				CourseID:           crs.ID,
				CourseName:         crs.Name,
				CourseCode:         crs.Code,
				StudentName:        st.FullName,
				RegistrationNumber: st.RegistrationNumber,
			})
		}
		sort.Slice(details, func(i, j int) bool {
			mi, mj := t.ord[details[i].ModuleID], t.ord[details[j].ModuleID]
			if mi != mj {
				return mi < mj
			}
			return t.ord[details[i].ID] < t.ord[details[j].ID]
		})
	})
	return details, nil
}
