package portal

// Selectors is the markup contract of one portal deployment: every CSS
// selector the concrete bindings query. Districts override these in
// config; the defaults match the reference portal markup.
type Selectors struct {
	LoggedInMarker string `json:"logged_in_marker"`
	UsernameField  string `json:"username_field"`
	PasswordField  string `json:"password_field"`
	SubmitButton   string `json:"submit_button"`

	AssignmentsPath string `json:"assignments_path"`
	AssignmentRow   string `json:"assignment_row"`
	RowTitle        string `json:"row_title"`
	RowCourse       string `json:"row_course"`
	RowStatus       string `json:"row_status"`
	RowDue          string `json:"row_due"`
	RowLink         string `json:"row_link"`
	// points selectors have no default; portals that do not render
	// point totals leave them empty and the fields stay null
	RowPointsPossible string `json:"row_points_possible"`
	RowPointsEarned   string `json:"row_points_earned"`

	GradesPath  string `json:"grades_path"`
	CourseCard  string `json:"course_card"`
	CourseName  string `json:"course_name"`
	HistoryRow  string `json:"history_row"`
	HistoryDate string `json:"history_date"`
	HistoryPct  string `json:"history_pct"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		LoggedInMarker: "a[href*='logout']",
		UsernameField:  "input[name='username']",
		PasswordField:  "input[name='password']",
		SubmitButton:   "button[type='submit']",

		AssignmentsPath: "/assignments",
		AssignmentRow:   ".assignment-row",
		RowTitle:        ".title",
		RowCourse:       ".course",
		RowStatus:       ".status",
		RowDue:          ".due",
		RowLink:         "a",

		GradesPath:  "/grades",
		CourseCard:  ".course-card",
		CourseName:  ".course-name",
		HistoryRow:  ".grade-history tr",
		HistoryDate: "td:nth-child(1)",
		HistoryPct:  "td:nth-child(2)",
	}
}

// Merge fills any selector left empty by a config override with its
// default, so partial overrides stay usable.
func (s Selectors) Merge(defaults Selectors) Selectors {
	merge := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Selectors{
		LoggedInMarker: merge(s.LoggedInMarker, defaults.LoggedInMarker),
		UsernameField:  merge(s.UsernameField, defaults.UsernameField),
		PasswordField:  merge(s.PasswordField, defaults.PasswordField),
		SubmitButton:   merge(s.SubmitButton, defaults.SubmitButton),

		AssignmentsPath: merge(s.AssignmentsPath, defaults.AssignmentsPath),
		AssignmentRow:   merge(s.AssignmentRow, defaults.AssignmentRow),
		RowTitle:        merge(s.RowTitle, defaults.RowTitle),
		RowCourse:       merge(s.RowCourse, defaults.RowCourse),
		RowStatus:       merge(s.RowStatus, defaults.RowStatus),
		RowDue:          merge(s.RowDue, defaults.RowDue),
		RowLink:         merge(s.RowLink, defaults.RowLink),

		RowPointsPossible: merge(s.RowPointsPossible, defaults.RowPointsPossible),
		RowPointsEarned:   merge(s.RowPointsEarned, defaults.RowPointsEarned),

		GradesPath:  merge(s.GradesPath, defaults.GradesPath),
		CourseCard:  merge(s.CourseCard, defaults.CourseCard),
		CourseName:  merge(s.CourseName, defaults.CourseName),
		HistoryRow:  merge(s.HistoryRow, defaults.HistoryRow),
		HistoryDate: merge(s.HistoryDate, defaults.HistoryDate),
		HistoryPct:  merge(s.HistoryPct, defaults.HistoryPct),
	}
}
