package dummydb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
)

func TestWithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("rollback discards tx writes", func(t *testing.T) {
		db := Open()
		repo := NewCourseRepository(db)
		errFail := errors.New("fail")

		err := NewTransactor(db).WithinTx(ctx, func(exec core.DBExecutor) error {
			if _, err := repo.CreateCourse(ctx, course.Course{Name: "Physics", Code: "PHY-101"}, core.Execs(exec)...); err != nil {
				return err
			}
			return errFail
		})
		require.Equal(t, errFail, err)

		crss, err := repo.QueryCourses(ctx, course.CourseFilter{})
		require.NoError(t, err)
		assert.Empty(t, crss)
	})

	t.Run("rollback keeps writes made outside the tx", func(t *testing.T) {
		db := Open()
		repo := NewCourseRepository(db)

		started, release := make(chan struct{}), make(chan struct{})
		txDone := make(chan error)
		go func() {
			txDone <- NewTransactor(db).WithinTx(ctx, func(exec core.DBExecutor) error {
				close(started)
				<-release
				return errors.New("fail")
			})
		}()
		<-started

		created := make(chan course.Course)
		go func() {
			crs, err := repo.CreateCourse(ctx, course.Course{Name: "Chemistry", Code: "CHM-101"})
			assert.NoError(t, err)
			created <- crs
		}()

		time.Sleep(20 * time.Millisecond)
		close(release)
		assert.Error(t, <-txDone)

		crs := <-created
		got, err := repo.GetCourse(ctx, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, "CHM-101", got.Code)
	})
}
