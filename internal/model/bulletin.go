package model

// Placeholder is shown in a display slot when the field it maps to is absent or empty.
const Placeholder = "—"

// Bulletin represents one week's church bulletin.
type Bulletin struct {
	WeekOf        *string        `json:"week_of,omitempty"`
	ServiceTime   *string        `json:"service_time,omitempty"`
	SermonLeader  *string        `json:"sermon_leader,omitempty"`
	WorshipLeader *string        `json:"worship_leader,omitempty"`
	SundaySchool  *SundaySchool  `json:"sunday_school,omitempty"`
	Announcements []Announcement `json:"announcements"`
}

// SundaySchool holds the teacher assigned to each Sunday school class.
type SundaySchool struct {
	Adults   *string `json:"adults,omitempty"`
	Youth    *string `json:"youth,omitempty"`
	Pre      *string `json:"pre,omitempty"`
	Children *string `json:"children,omitempty"`
}

// Announcement is a single bulletin notice.
type Announcement struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Str returns a pointer to s, for building optional fields.
func Str(s string) *string {
	return &s
}

// Value returns the value of an optional field and whether it is set.
// An empty string counts as unset.
func Value(p *string) (string, bool) {
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

// OrPlaceholder returns the optional value, or Placeholder when unset.
func OrPlaceholder(p *string) string {
	if v, ok := Value(p); ok {
		return v
	}
	return Placeholder
}

func (b Bulletin) Week() (string, bool)    { return Value(b.WeekOf) }
func (b Bulletin) Service() (string, bool) { return Value(b.ServiceTime) }

func (b Bulletin) SermonLeaderText() string  { return OrPlaceholder(b.SermonLeader) }
func (b Bulletin) WorshipLeaderText() string { return OrPlaceholder(b.WorshipLeader) }

// MetaLine combines service time and week into the single header line.
//
//	week and time set:  "Domingo 9:00 · Semana: 2026-02-01"
//	only week:          "Semana: 2026-02-01"
//	only time:          "Domingo 9:00"
//	neither:            Placeholder
func (b Bulletin) MetaLine() string {
	service, hasService := b.Service()
	week, hasWeek := b.Week()
	if !hasWeek {
		if hasService {
			return service
		}
		return Placeholder
	}
	prefix := ""
	if hasService {
		prefix = service + " · "
	}
	return prefix + "Semana: " + week
}

// School returns the Sunday school assignments, never nil.
func (b Bulletin) School() SundaySchool {
	if b.SundaySchool == nil {
		return SundaySchool{}
	}
	return *b.SundaySchool
}

func (s SundaySchool) AdultsText() string   { return OrPlaceholder(s.Adults) }
func (s SundaySchool) YouthText() string    { return OrPlaceholder(s.Youth) }
func (s SundaySchool) PreText() string      { return OrPlaceholder(s.Pre) }
func (s SundaySchool) ChildrenText() string { return OrPlaceholder(s.Children) }
