package report

import (
	"math"
	"sort"
	"time"
	"workTracker/internal/models/timeentry"

	"github.com/google/uuid"
)

const (
	NoProject     = "no project"
	NoDescription = "no description"

	secondsPerHour = 3600
	// 100% в сотых долях процента
	percentUnits = 10000
)

// Group - строка разбивки по проекту или по описанию
type Group struct {
	ProjectID  *uuid.UUID  `json:"project_id,omitempty"`
	Label      string      `json:"label"`
	Duration   int64       `json:"duration"`
	Hours      float64     `json:"hours"`
	Count      int         `json:"count"`
	Percentage float64     `json:"percentage"`
	EntryIDs   []uuid.UUID `json:"entry_ids"`
}

type Day struct {
	Date     string  `json:"date"`
	Duration int64   `json:"duration"`
	Hours    float64 `json:"hours"`
}

// Item - запись в плоском виде для отрисовки на клиенте
type Item struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	ProjectName *string    `json:"project_name,omitempty"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	TaskTitle   *string    `json:"task_title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Duration    int64      `json:"duration"`
	Hours       float64    `json:"hours"`
	ReportDate  string     `json:"report_date"`
}

type Report struct {
	UserID        uuid.UUID `json:"user_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	TotalDuration int64     `json:"total_duration"`
	TotalHours    float64   `json:"total_hours"`
	ByProject     []*Group  `json:"by_project"`
	ByActivity    []*Group  `json:"by_activity"`
	ByDay         []*Day    `json:"by_day"`
	Entries       []*Item   `json:"entries"`
}

// Aggregate строит отчёт за один проход. Группы идут в порядке первого появления,
// записи внутри групп - в хронологическом порядке
func Aggregate(entries []*timeentry.Resolved) *Report {
	ordered := append([]*timeentry.Resolved(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ReportDate.Equal(ordered[j].ReportDate) {
			return ordered[i].ReportDate.Before(ordered[j].ReportDate)
		}
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	rep := &Report{
		ByProject:  []*Group{},
		ByActivity: []*Group{},
		ByDay:      []*Day{},
		Entries:    make([]*Item, 0, len(ordered)),
	}

	projects := make(map[string]*Group)
	activities := make(map[string]*Group)
	days := make(map[string]*Day)

	for _, e := range ordered {
		rep.TotalDuration += e.Duration

		projectKey, projectLabel := NoProject, NoProject
		if e.ProjectID != nil {
			projectKey = e.ProjectID.String()
			projectLabel = projectKey
			if e.ProjectName != nil {
				projectLabel = *e.ProjectName
			}
		}
		g, ok := projects[projectKey]
		if !ok {
			g = &Group{ProjectID: e.ProjectID, Label: projectLabel, EntryIDs: []uuid.UUID{}}
			projects[projectKey] = g
			rep.ByProject = append(rep.ByProject, g)
		}
		g.add(e)

		label := NoDescription
		if e.Description != nil && *e.Description != "" {
			label = *e.Description
		}
		a, ok := activities[label]
		if !ok {
			a = &Group{Label: label, EntryIDs: []uuid.UUID{}}
			activities[label] = a
			rep.ByActivity = append(rep.ByActivity, a)
		}
		a.add(e)

		dayKey := e.ReportDate.Format(timeentry.ReportDateLayout)
		d, ok := days[dayKey]
		if !ok {
			d = &Day{Date: dayKey}
			days[dayKey] = d
			rep.ByDay = append(rep.ByDay, d)
		}
		d.Duration += e.Duration

		rep.Entries = append(rep.Entries, newItem(e))
	}

	rep.TotalHours = Hours(rep.TotalDuration)
	for _, groups := range [][]*Group{rep.ByProject, rep.ByActivity} {
		for _, g := range groups {
			g.Hours = Hours(g.Duration)
		}
		apportion(groups, rep.TotalDuration)
	}
	for _, d := range rep.ByDay {
		d.Hours = Hours(d.Duration)
	}
	return rep
}

func (g *Group) add(e *timeentry.Resolved) {
	g.Duration += e.Duration
	g.Count++
	g.EntryIDs = append(g.EntryIDs, e.UUID)
}

func newItem(e *timeentry.Resolved) *Item {
	item := &Item{
		ID:          e.UUID,
		ProjectID:   e.ProjectID,
		ProjectName: e.ProjectName,
		TaskID:      e.TaskID,
		TaskTitle:   e.TaskTitle,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Duration:    e.Duration,
		Hours:       Hours(e.Duration),
		ReportDate:  e.ReportDate.Format(timeentry.ReportDateLayout),
	}
	if item.TaskID == nil {
		item.TaskID = e.SharedTaskID
	}
	return item
}

func Hours(seconds int64) float64 {
	return round2(float64(seconds) / secondsPerHour)
}

// apportion раскладывает 100% по группам с точностью до сотых методом наибольшего остатка,
// так что сумма процентов ровно 100. При нулевом итоге все проценты 0
func apportion(groups []*Group, total int64) {
	if total == 0 {
		for _, g := range groups {
			g.Percentage = 0
		}
		return
	}

	units := make([]int64, len(groups))
	remainders := make([]int64, len(groups))
	var assigned int64
	for i, g := range groups {
		units[i] = g.Duration * percentUnits / total
		remainders[i] = g.Duration * percentUnits % total
		assigned += units[i]
	}

	// при равных остатках единица достаётся группе, появившейся раньше
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for i := int64(0); i < percentUnits-assigned; i++ {
		units[order[i]]++
	}

	for i, g := range groups {
		g.Percentage = float64(units[i]) / 100
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
