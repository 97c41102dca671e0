package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (t *tables) assignment(id string) (assignment.Assignment, bool) {
	asg, ok := t.assignments[id]
	if ok {
		asg.CourseName = t.courses[asg.CourseID].Name
	}
	return asg, ok
}

func (t *tables) submission(id string) (assignment.Submission, bool) {
	sub, ok := t.submissions[id]
	if ok {
		st, _ := t.student(sub.StudentID)
		sub.StudentName = st.FullName
		sub.RegistrationNumber = st.RegistrationNumber
	}
	return sub, ok
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if _, ok := t.courses[asg.CourseID]; !ok {
			return course.ErrNotFound
		}
		asg.ID = t.newID()
		asg.CourseName = ""
		t.assignments[asg.ID] = asg
		asg, _ = t.assignment(asg.ID)
		return nil
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id string, _ ...core.DBExecutor) (assignment.Assignment, error) {
	var (
		asg   assignment.Assignment
		found bool
	)
	repo.db.read(func(t *tables) { asg, found = t.assignment(id) })
	if !found {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return asg, nil
}

func (repo *assignmentRepository) SetAssignmentFile(_ context.Context, id, fileURL, fileName string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := repo.db.write(exec, func(t *tables) error {
		orig, ok := t.assignments[id]
		if !ok {
			return assignment.ErrNotFound
		}
		orig.FileURL, orig.FileName = fileURL, fileName
		t.assignments[id] = orig
		asg, _ = t.assignment(id)
		return nil
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.Filter, _ ...core.DBExecutor) ([]assignment.Assignment, error) {
	asgs := make([]assignment.Assignment, 0)
	repo.db.read(func(t *tables) {
		for id, a := range t.assignments {
			if filter.CourseIDs != nil && !contains(filter.CourseIDs, a.CourseID) {
				continue
			}
			asg, _ := t.assignment(id)
			asgs = append(asgs, asg)
		}
		sort.Slice(asgs, func(i, j int) bool {
			if !asgs[i].Deadline.Equal(asgs[j].Deadline) {
				return asgs[i].Deadline.Before(asgs[j].Deadline)
			}
			return t.ord[asgs[i].ID] < t.ord[asgs[j].ID]
		})
	})
	return asgs, nil
}

func (repo *assignmentRepository) UpsertSubmission(_ context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if _, ok := t.assignments[sub.AssignmentID]; !ok {
			return assignment.ErrNotFound
		}
		for id, orig := range t.submissions {
			if orig.AssignmentID == sub.AssignmentID && orig.StudentID == sub.StudentID {
				orig.TextAnswer = sub.TextAnswer
				orig.FilePath = sub.FilePath
				orig.FileName = sub.FileName
				orig.SubmittedAt = sub.SubmittedAt
				t.submissions[id] = orig
				sub, _ = t.submission(id)
				return nil
			}
		}
		sub.ID = t.newID()
		sub.Marks, sub.Feedback, sub.GradedAt = nil, "", nil
		sub.StudentName, sub.RegistrationNumber = "", ""
		t.submissions[sub.ID] = sub
		sub, _ = t.submission(sub.ID)
		return nil
	})
	if err != nil {
		return assignment.Submission{}, err
	}
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(_ context.Context, id string, _ ...core.DBExecutor) (assignment.Submission, error) {
	var (
		sub   assignment.Submission
		found bool
	)
	repo.db.read(func(t *tables) { sub, found = t.submission(id) })
	if !found {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return sub, nil
}

func (repo *assignmentRepository) QuerySubmissions(_ context.Context, filter assignment.SubmissionFilter, _ ...core.DBExecutor) ([]assignment.Submission, error) {
	subs := make([]assignment.Submission, 0)
	repo.db.read(func(t *tables) {
		for id, s := range t.submissions {
			if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
				continue
			}
			if filter.StudentID != "" && s.StudentID != filter.StudentID {
				continue
			}
			sub, _ := t.submission(id)
			subs = append(subs, sub)
		}
		sort.Slice(subs, func(i, j int) bool {
			if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
				return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
			}
			return t.ord[subs[i].ID] > t.ord[subs[j].ID]
		})
	})
	return subs, nil
}

func (repo *assignmentRepository) GradeSubmission(
	_ context.Context,
	id string,
	marks float64,
	feedback string,
	gradedAt time.Time,
	exec ...core.DBExecutor,
) (assignment.Submission, error) {
	var sub assignment.Submission
	err := repo.db.write(exec, func(t *tables) error {
		orig, ok := t.submissions[id]
		if !ok {
			return assignment.ErrSubmissionNotFound
		}
		orig.Marks = &marks
		orig.Feedback = feedback
		orig.GradedAt = &gradedAt
		t.submissions[id] = orig
		sub, _ = t.submission(id)
		return nil
	})
	if err != nil {
		return assignment.Submission{}, err
	}
	return sub, nil
}
