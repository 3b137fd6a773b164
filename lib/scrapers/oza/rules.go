package oza

import "strings"

// Rules is the locale rule set the parser and login heuristic match
// against. The portal reports state through rendered Japanese UI text
// rather than anything machine-readable, so these substring checks
// silently misclassify if the wording ever changes. Keeping them in
// one overridable value (instead of literals inside the parser) at
// least makes a wording change a config edit rather than a code hunt.
type Rules struct {
	// markers whose presence on the post-login page mean the login worked
	LogoutMarkers []string `json:"logout_markers"`
	// path fragment the post-login URL lands under when authenticated
	AdminAreaPath string `json:"admin_area_path"`
	// status text meaning attended / absent
	AttendedToken string `json:"attended_token"`
	AbsentToken   string `json:"absent_token"`
	// memo substrings marking a substitution attendance
	SubstitutionMarkers []string `json:"substitution_markers"`
	// second-row text of a data table with no scheduled sessions
	NoScheduleText string `json:"no_schedule_text"`
	// header cell texts identifying a genuine class listing table
	ClassHeaderNames []string `json:"class_header_names"`
	// prefix of the teacher id cell, e.g. "ID:8211256"
	TeacherIDPrefix string `json:"teacher_id_prefix"`
}

func DefaultRules() Rules {
	return Rules{
		LogoutMarkers:       []string{"btnLogout", "ログアウト"},
		AdminAreaPath:       "/AdminArea/",
		AttendedToken:       "出席",
		AbsentToken:         "欠席",
		SubstitutionMarkers: []string{"振替", "振り替え"},
		NoScheduleText:      "授業予定はありません",
		ClassHeaderNames:    []string{"クラス名", "名称"},
		TeacherIDPrefix:     "ID:",
	}
}

func (r Rules) IsSubstitution(memo string) bool {
	for _, marker := range r.SubstitutionMarkers {
		if marker != "" && strings.Contains(memo, marker) {
			return true
		}
	}
	return false
}
