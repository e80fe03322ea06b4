package report

import "time"

// WeekRange - понедельник и воскресенье недели, содержащей t, в полночь UTC
func WeekRange(t time.Time) (time.Time, time.Time) {
	y, m, d := t.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	offset := int(day.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := day.AddDate(0, 0, -offset+1)
	end := start.AddDate(0, 0, 6)
	return start, end
}
