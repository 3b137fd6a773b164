package attendance

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"oza-scraper/lib/scrapers/oza"
)

// ActiveSlot is one (date, campus, start time) combination with the
// has-class flag OR-ed over every course/school context it was
// observed under.
type ActiveSlot struct {
	Date       string
	SchoolName string
	StartTime  string
	EndTime    string
	HasClass   bool
}

// SlotRecord is an ActiveSlot renamed into the external schema.
type SlotRecord struct {
	SlotDate   string
	CampusName string
	SlotStart  string
	SlotEnd    string
	Memo       string
}

// PreparedDetailRow is the webhook payload shape for one class whose
// teacher was present.
type PreparedDetailRow struct {
	Date              string `json:"date"`
	SchoolID          string `json:"school_id"`
	SchoolName        string `json:"school_name"`
	ClassName         string `json:"class_name"`
	CourseID          int    `json:"course_id"`
	StartTime         string `json:"start_time"`
	TeacherID         string `json:"teacher_id"`
	TeacherName       string `json:"teacher_name"`
	TeacherAttendance string `json:"teacher_attendance"`
	AttendanceCount   int    `json:"attendance_count"`
	WorkType          string `json:"work_type"`
}

const (
	WorkTypeClass   = "授業"
	WorkTypeStandby = "待機"

	slotMinutes = 50
)

// the first three evening slots do not run back to back, their end
// times are fixed by the timetable rather than derived
var endTimeOverrides = map[string]string{
	"16:05": "16:55",
	"17:00": "17:50",
	"17:55": "18:45",
}

func parseHHMM(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hh*60 + mm, true
}

// MapEndTime derives a slot's end time from its start time: the fixed
// timetable pairs first, otherwise start plus the standard slot
// length, rolling over midnight. Unparseable input yields "".
func MapEndTime(start string) string {
	if start == "" {
		return ""
	}
	if end, ok := endTimeOverrides[start]; ok {
		return end
	}
	minutes, ok := parseHHMM(start)
	if !ok {
		return ""
	}
	minutes = (minutes + slotMinutes) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type slotKey struct {
	date   string
	school string
	start  string
}

// AggregateActiveSlots groups rows by (date, campus, start time) and
// ORs the has-class flag across the group. Course and school ids are
// deliberately not part of the key: the same physical time slot seen
// under different course contexts is still one slot. Rows missing a
// start time or a campus name have no complete key and drop out here.
func AggregateActiveSlots(rows []oza.AttendanceRow) []ActiveSlot {
	group := map[slotKey]bool{}
	for _, row := range rows {
		if row.StartTime == "" || row.SchoolName == "" {
			continue
		}
		key := slotKey{date: row.Date, school: row.SchoolName, start: row.StartTime}
		group[key] = group[key] || row.HasClass
	}

	slots := make([]ActiveSlot, 0, len(group))
	for key, hasClass := range group {
		slots = append(slots, ActiveSlot{
			Date:       key.date,
			SchoolName: key.school,
			StartTime:  key.start,
			EndTime:    MapEndTime(key.start),
			HasClass:   hasClass,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.SchoolName != b.SchoolName {
			return a.SchoolName < b.SchoolName
		}
		return a.StartTime < b.StartTime
	})
	return slots
}

// FinalSlots keeps the slots that actually had a class and renames
// them into the export schema, stamping the provenance memo.
func FinalSlots(slots []ActiveSlot) []SlotRecord {
	var out []SlotRecord
	for _, slot := range slots {
		if !slot.HasClass {
			continue
		}
		out = append(out, SlotRecord{
			SlotDate:   slot.Date,
			CampusName: slot.SchoolName,
			SlotStart:  slot.StartTime,
			SlotEnd:    slot.EndTime,
			Memo:       "scraped",
		})
	}
	return out
}

var hhmmPattern = regexp.MustCompile(`(\d{1,2}:\d{2})`)

// NormalizeStartTime extracts the first HH:MM occurrence from a raw
// start-time label; labels without one pass through trimmed.
func NormalizeStartTime(value string) string {
	text := strings.TrimSpace(value)
	if m := hhmmPattern.FindString(text); m != "" {
		return m
	}
	return text
}

// PrepareDetailRows shapes class details for the webhook push. A
// record without a teacher id never qualifies; neither does one whose
// teacher-attendance text exists but lacks the attended token, no
// matter what its student counts say.
func PrepareDetailRows(details []oza.ClassDetailRecord, rules oza.Rules) []PreparedDetailRow {
	var prepared []PreparedDetailRow
	for _, detail := range details {
		teacherID := strings.TrimSpace(detail.TeacherID)
		if teacherID == "" {
			continue
		}
		teacherAttendance := strings.TrimSpace(detail.TeacherAttendance)
		if teacherAttendance != "" && !strings.Contains(teacherAttendance, rules.AttendedToken) {
			continue
		}
		if teacherAttendance == "" {
			teacherAttendance = rules.AttendedToken
		}

		workType := strings.TrimSpace(detail.WorkType)
		if workType == "" {
			workType = WorkTypeStandby
			if detail.AttendanceCount > 0 {
				workType = WorkTypeClass
			}
		}

		prepared = append(prepared, PreparedDetailRow{
			Date:              detail.Date,
			SchoolID:          detail.SchoolID,
			SchoolName:        detail.SchoolName,
			ClassName:         detail.ClassName,
			CourseID:          detail.CourseID,
			StartTime:         NormalizeStartTime(detail.StartTime),
			TeacherID:         teacherID,
			TeacherName:       detail.TeacherName,
			TeacherAttendance: teacherAttendance,
			AttendanceCount:   detail.AttendanceCount,
			WorkType:          workType,
		})
	}
	return prepared
}
