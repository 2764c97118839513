package gradecheck

import (
	"errors"
	"fmt"
	"gradewatch/lib/transcript"
	"strings"
)

const (
	WarningTitle   = "Warning: the transcript changed in a way that could not be fully detected, log in to the portal to check your latest grades!"
	NewGradesTitle = "You received new grades, open for details."
	Delimiter      = "-----"
)

// fields rendered for every added record, in order
var bodyFields = []transcript.Field{
	transcript.FieldCourseName,
	transcript.FieldGrade,
	transcript.FieldCredit,
	transcript.FieldCourseCode,
}

var DefaultTitleFields = []string{"course_name", "grade"}

// Message is a rendered notification, the zero Message means there is
// nothing to report.
type Message struct {
	Title string
	Body  string
}

func (m Message) Empty() bool {
	return m.Title == "" && m.Body == ""
}

// Text is the payload pushed to a channel.
func (m Message) Text() string {
	if m.Empty() {
		return ""
	}
	return m.Title + "\n" + Delimiter + "\n" + m.Body
}

type Formatter struct {
	titleFields []transcript.Field
}

// NewFormatter builds a Formatter that puts `titleFields` of the first new
// record in the title when asked to, nil uses DefaultTitleFields.
func NewFormatter(titleFields []string) (Formatter, error) {
	if titleFields == nil {
		titleFields = DefaultTitleFields
	}
	if len(titleFields) == 0 {
		return Formatter{}, errors.New("at least one title field is required")
	}
	fields := make([]transcript.Field, len(titleFields))
	for i, name := range titleFields {
		f, err := transcript.LookupField(name)
		if err != nil {
			return Formatter{}, err
		}
		fields[i] = f
	}
	return Formatter{titleFields: fields}, nil
}

func (f Formatter) title(added []transcript.Record, mismatch, showInTitle bool) string {
	if mismatch {
		return WarningTitle
	}
	if !showInTitle || len(f.titleFields) == 0 {
		return NewGradesTitle
	}
	var parts []string
	for _, field := range f.titleFields {
		if value := strings.TrimSpace(added[0].Get(field)); value != "" {
			parts = append(parts, value)
		}
	}
	if len(parts) == 0 {
		return NewGradesTitle
	}
	return strings.Join(parts, " ")
}

func (f Formatter) body(added []transcript.Record) string {
	var b strings.Builder
	for _, r := range added {
		for _, field := range bodyFields {
			fmt.Fprintf(&b, "%s: %s\n", field.Label(), r.Get(field))
		}
		b.WriteString(Delimiter + "\n")
	}
	return b.String()
}

// Format renders the result of a diff. a mismatch always gets the warning
// title while the body still lists whatever was detected.
func (f Formatter) Format(added []transcript.Record, mismatch, showInTitle bool) Message {
	if len(added) == 0 && !mismatch {
		return Message{}
	}
	return Message{
		Title: f.title(added, mismatch, showInTitle),
		Body:  f.body(added),
	}
}
