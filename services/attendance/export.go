package attendance

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook persists the crawl artifacts as named sheets: the raw
// rows, the aggregated slots, the filtered final slots, and (when
// details were fetched) per-class summaries plus one row per student.
func WriteWorkbook(path string, res Result, active []ActiveSlot, final []SlotRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	rawRows := make([][]any, 0, len(res.Rows))
	for _, r := range res.Rows {
		rawRows = append(rawRows, []any{
			r.Date, r.CourseID, r.SchoolID, r.SchoolName, r.Limit,
			r.StartTime, r.ClassName, r.ExpectedCount, r.TrialCount, r.HasClass,
		})
	}
	err := addSheet(f, "Raw",
		[]any{"date", "course_id", "school_id", "school_name", "limit",
			"start_time", "class_name", "expected_count", "trial_count", "has_class"},
		rawRows)
	if err != nil {
		return err
	}

	activeRows := make([][]any, 0, len(active))
	for _, s := range active {
		activeRows = append(activeRows, []any{
			s.Date, s.SchoolName, s.StartTime, s.EndTime, s.HasClass,
		})
	}
	err = addSheet(f, "ActiveSlots",
		[]any{"date", "school_name", "start_time", "end_time", "has_class"},
		activeRows)
	if err != nil {
		return err
	}

	finalRows := make([][]any, 0, len(final))
	for _, s := range final {
		finalRows = append(finalRows, []any{
			s.SlotDate, s.CampusName, s.SlotStart, s.SlotEnd, s.Memo,
		})
	}
	err = addSheet(f, "T_Slot",
		[]any{"slot_date", "campus_name", "slot_start", "slot_end", "memo"},
		finalRows)
	if err != nil {
		return err
	}

	if len(res.Details) > 0 {
		if err := addDetailSheets(f, res); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func addDetailSheets(f *excelize.File, res Result) error {
	summaryRows := make([][]any, 0, len(res.Details))
	var studentRows [][]any
	for _, d := range res.Details {
		summaryRows = append(summaryRows, []any{
			d.Date, d.CourseID, d.SchoolName, d.SchoolID, d.ClassName, d.StartTime,
			d.TeacherID, d.TeacherName, d.TeacherAttendance, d.TeacherMemo,
			d.AttendanceCount, d.AttendanceCountRegular, d.AttendanceCountSubstitution,
			d.AbsentCount, len(d.Students),
		})
		for _, s := range d.Students {
			studentRows = append(studentRows, []any{
				d.Date, d.CourseID, d.SchoolName, d.ClassName, d.TeacherName,
				s.Name, s.ID, s.Status, s.Memo,
			})
		}
	}

	err := addSheet(f, "ClassDetails",
		[]any{"date", "course_id", "school_name", "school_id", "class_name", "start_time",
			"teacher_id", "teacher_name", "teacher_attendance", "teacher_memo",
			"attendance_count", "attendance_count_regular", "attendance_count_substitution",
			"absent_count", "total_students"},
		summaryRows)
	if err != nil {
		return err
	}

	if len(studentRows) == 0 {
		return nil
	}
	return addSheet(f, "StudentDetails",
		[]any{"date", "course_id", "school_name", "class_name", "teacher_name",
			"student_name", "student_id", "status", "memo"},
		studentRows)
}

func addSheet(f *excelize.File, name string, header []any, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &rows[i]); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", name, i+2, err)
		}
	}
	return nil
}
