package textutil

import (
	"regexp"
	"strings"
)

var separatorRegex = regexp.MustCompile(`[\s\-_]+`)

// NormalizeKey turns a user written name like "Course Name" or "course-name"
// into the snake case key "course_name".
func NormalizeKey(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t-_")
	name = separatorRegex.ReplaceAllString(name, "_")
	return name
}
