package memory

import "time"

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// windowPlusOne returns rows[offset : offset+limit+1], the same page-plus-one
// that the postgres readers fetch.
func windowPlusOne[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit+1 {
		rows = rows[:limit+1]
	}
	return rows
}
