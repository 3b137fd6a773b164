package oza

// FieldNames holds the WebForms control identifiers the driver posts
// against and the parser selects on. Server-side names use '$'
// separators, the matching client-side element ids use '_'. All of
// them are config-overridable since the portal is free to rename its
// controls between releases.
type FieldNames struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	LoginButton string `json:"login_button"`

	CourseSelect   string `json:"course_select"`
	SchoolSelect   string `json:"school_select"`
	SchoolSelectID string `json:"school_select_id"`
	GroupIndex     string `json:"group_index"`
	TargetDate     string `json:"target_date"`
	SearchButton   string `json:"search_button"`

	WorkEndTarget string `json:"work_end_target"`
	WorkEndID     string `json:"work_end_id"`

	DataTableID string `json:"data_table_id"`

	ClassNameLabelID  string `json:"class_name_label_id"`
	PlanDateLabelID   string `json:"plan_date_label_id"`
	StartTimeLabelID  string `json:"start_time_label_id"`
	SchoolNameLabelID string `json:"school_name_label_id"`

	DetailPage string `json:"detail_page"`
}

func DefaultFieldNames() FieldNames {
	return FieldNames{
		Username:    "txtLog_ID",
		Password:    "txtLog_PW",
		LoginButton: "btnLoginRun",

		CourseSelect:   "ctl00$CPH$ddlSeachCourseID",
		SchoolSelect:   "ctl00$CPH$ddlSeachSchoolID",
		SchoolSelectID: "ctl00_CPH_ddlSeachSchoolID",
		GroupIndex:     "ctl00$CPH$txtSeachCGP_INDEX",
		TargetDate:     "ctl00$CPH$txtTargetDate",
		SearchButton:   "ctl00$CPH$btnSeach",

		WorkEndTarget: "ctl00$btnWorkEnd",
		WorkEndID:     "ctl00_btnWorkEnd",

		DataTableID: "TblDataList",

		ClassNameLabelID:  "ctl00_CPH_lblClassGroupName",
		PlanDateLabelID:   "ctl00_CPH_lblPlanDate",
		StartTimeLabelID:  "ctl00_CPH_lblStartRealTime",
		SchoolNameLabelID: "ctl00_CPH_lblSchoolName",

		DetailPage: "toDayAttendanceDetail.aspx",
	}
}
