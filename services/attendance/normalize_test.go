package attendance

import (
	"testing"

	"oza-scraper/lib/scrapers/oza"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMapEndTime(t *testing.T) {
	cases := []struct {
		start string
		end   string
	}{
		{"16:05", "16:55"},
		{"17:00", "17:50"},
		{"17:55", "18:45"},
		{"18:40", "19:30"},
		{"19:35", "20:25"},
		{"23:45", "00:35"},
		{"00:00", "00:50"},
		{"", ""},
		{"garbage", ""},
		{"16", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.end, MapEndTime(c.start), "start %q", c.start)
	}
}

func TestAggregateActiveSlots(t *testing.T) {
	rows := []oza.AttendanceRow{
		// same physical slot under two course contexts, flag ORs
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "16:05", HasClass: false, CourseID: 2, SchoolID: "11"},
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "16:05", HasClass: true, CourseID: 145, SchoolID: "42"},
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "17:00", HasClass: false},
		{Date: "2025-07-01", SchoolName: "池袋校", StartTime: "16:05", HasClass: true},
		// rows without a start time are not slots
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "", HasClass: true},
		// neither are rows without a campus, e.g. when the page had no
		// selected school option
		{Date: "2025-07-01", SchoolName: "", StartTime: "16:05", HasClass: true},
	}

	got := AggregateActiveSlots(rows)
	want := []ActiveSlot{
		{Date: "2025-07-01", SchoolName: "池袋校", StartTime: "16:05", EndTime: "16:55", HasClass: true},
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "16:05", EndTime: "16:55", HasClass: true},
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "17:00", EndTime: "17:50", HasClass: false},
	}
	require.Empty(t, cmp.Diff(want, got))

	// feeding the same rows twice changes nothing
	again := AggregateActiveSlots(append(append([]oza.AttendanceRow{}, rows...), rows...))
	require.Empty(t, cmp.Diff(got, again))
}

func TestFinalSlots(t *testing.T) {
	slots := []ActiveSlot{
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "16:05", EndTime: "16:55", HasClass: true},
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "17:00", EndTime: "17:50", HasClass: false},
	}
	got := FinalSlots(slots)
	want := []SlotRecord{
		{SlotDate: "2025-07-01", CampusName: "渋谷校", SlotStart: "16:05", SlotEnd: "16:55", Memo: "scraped"},
	}
	require.Empty(t, cmp.Diff(want, got))
	require.Nil(t, FinalSlots(nil))
}

func TestNormalizeStartTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"16:05", "16:05"},
		{" 16:05～16:55 ", "16:05"},
		{"開始 9:30 予定", "9:30"},
		{"未定", "未定"},
		{"  ", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NormalizeStartTime(c.in), "in %q", c.in)
	}
}

func TestPrepareDetailRows(t *testing.T) {
	rules := oza.DefaultRules()
	details := []oza.ClassDetailRecord{
		{
			Date: "2025-07-01", SchoolID: "11", SchoolName: "渋谷校",
			ClassName: "小3算数", CourseID: 2, StartTime: "16:05～16:55",
			TeacherID: "8211256", TeacherName: "竹内 真奈美",
			TeacherAttendance: "出席", AttendanceCount: 3,
		},
		// empty attendance text backfills to the attended token
		{
			Date: "2025-07-01", SchoolID: "11", SchoolName: "渋谷校",
			ClassName: "小4国語", CourseID: 2, StartTime: "17:00",
			TeacherID: "9001", TeacherName: "山田 太郎",
			TeacherAttendance: "", AttendanceCount: 0,
		},
		// absent teacher is excluded even with students present
		{
			TeacherID: "9002", TeacherName: "佐藤 花子",
			TeacherAttendance: "欠席", AttendanceCount: 5,
		},
		// no teacher id never qualifies
		{
			TeacherName: "欠損 講師", TeacherAttendance: "出席", AttendanceCount: 2,
		},
		// explicit work type survives untouched
		{
			TeacherID: "9003", TeacherName: "鈴木 次郎",
			TeacherAttendance: "出席", AttendanceCount: 4, WorkType: "研修",
		},
	}

	got := PrepareDetailRows(details, rules)
	require.Len(t, got, 3)

	require.Equal(t, "8211256", got[0].TeacherID)
	require.Equal(t, "16:05", got[0].StartTime)
	require.Equal(t, WorkTypeClass, got[0].WorkType)

	require.Equal(t, "9001", got[1].TeacherID)
	require.Equal(t, "出席", got[1].TeacherAttendance)
	require.Equal(t, WorkTypeStandby, got[1].WorkType)

	require.Equal(t, "研修", got[2].WorkType)
}

// the worked example: two sessions at 16:05 (one with students, one
// without) and an empty 17:00 search yield exactly one final slot.
func TestSlotPipeline(t *testing.T) {
	rows := []oza.AttendanceRow{
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "16:05", ClassName: "小3算数", ExpectedCount: 3, HasClass: true},
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "16:05", ClassName: "小5英語", ExpectedCount: 0, HasClass: false},
		{Date: "2025-07-01", SchoolName: "渋谷校", StartTime: "17:00", ClassName: "小4国語", ExpectedCount: 0, HasClass: false},
	}
	final := FinalSlots(AggregateActiveSlots(rows))
	want := []SlotRecord{
		{SlotDate: "2025-07-01", CampusName: "渋谷校", SlotStart: "16:05", SlotEnd: "16:55", Memo: "scraped"},
	}
	require.Empty(t, cmp.Diff(want, final))
}
