package textutil

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"course_name":     "course_name",
		"Course Name":     "course_name",
		" course-name\n":  "course_name",
		"COURSE__NAME":    "course_name",
		"academic  year_": "academic_year",
		"grade":           "grade",
	}
	for input, expected := range cases {
		if got := NormalizeKey(input); got != expected {
			t.Errorf("NormalizeKey(%q) = %q, expected %q", input, got, expected)
		}
	}
}
