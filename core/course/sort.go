package course

import (
	"sort"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

func sortEnrolledStudents(students []EnrolledStudent) {
	less := core.NameLess()
	sort.SliceStable(students, func(i, j int) bool { return less(students[i].FullName, students[j].FullName) })
}

func sortEnrolledCourses(courses []EnrolledCourse) {
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].EnrolledAt.After(courses[j].EnrolledAt) })
}
