package oza

// SchoolOption is one entry of the campus selector.
type SchoolOption struct {
	ID    string
	Label string
}

// AttendanceRow is one data row of the day's session table, stamped
// by the crawler with the (date, school, course) coordinates it was
// fetched under.
type AttendanceRow struct {
	Limit         string
	StartTime     string // "HH:MM", empty when the label had no time
	ClassName     string
	ExpectedCount int
	TrialCount    int
	HasClass      bool
	SchoolName    string
	Date          string
	SchoolID      string
	CourseID      int
}

// DetailLink points at a class detail page. Both addressing forms the
// portal emits (plain href, inline callPlanDetail onclick) resolve to
// the same canonical absolute URL before they end up here.
type DetailLink struct {
	ClassName string
	URL       string
}

type StudentRecord struct {
	Name     string
	ID       string
	Attended bool // checkbox state only, status text is kept separately
	Status   string
	Memo     string
}

type ClassDetailRecord struct {
	TeacherID         string
	TeacherName       string
	TeacherAttendance string
	TeacherMemo       string

	AttendanceCount             int
	AttendanceCountRegular      int
	AttendanceCountSubstitution int
	AbsentCount                 int

	ClassName  string
	Date       string
	StartTime  string
	SchoolName string
	SchoolID   string
	CourseID   int

	// WorkType is never set by the parser; callers that already know
	// the engagement kind may fill it in before export/push.
	WorkType string

	Students []StudentRecord
}
