package mark

// PoolStrategy turns the marks of a course into the flat pool of scores the course-wide
// average and standard deviation are computed from.
type PoolStrategy func(marks []Detail) []float64

// RawPool pools obtained marks as they are, mixing modules with different totals.
func RawPool(marks []Detail) []float64 {
	pool := make([]float64, 0, len(marks))
	for _, m := range marks {
		pool = append(pool, m.ObtainedMarks)
	}
	return pool
}

// NormalizedPool pools obtained marks as percentages of their module total.
func NormalizedPool(marks []Detail) []float64 {
	pool := make([]float64, 0, len(marks))
	for _, m := range marks {
		if m.TotalMarks > 0 {
			pool = append(pool, m.ObtainedMarks/m.TotalMarks*100)
		}
	}
	return pool
}
