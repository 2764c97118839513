package transcript

import (
	"encoding/json"
	"fmt"
	"gradewatch/lib/textutil"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// Field names a column of a transcript row.
type Field int

const (
	FieldCourseCode Field = iota
	FieldAcademicYear
	FieldTerm
	FieldCourseName
	FieldCredit
	FieldGrade
)

type fieldInfo struct {
	// key used in configuration files
	name  string
	label string
	// column index in the rows returned by the data endpoint
	column int
}

// fieldTable maps every Field to its column in a transcript row.
var fieldTable = [...]fieldInfo{
	FieldCourseCode:   {name: "course_code", label: "Course Code", column: 0},
	FieldAcademicYear: {name: "academic_year", label: "Academic Year", column: 1},
	FieldTerm:         {name: "term", label: "Term", column: 2},
	FieldCourseName:   {name: "course_name", label: "Course Name", column: 3},
	FieldCredit:       {name: "credit", label: "Credit", column: 4},
	FieldGrade:        {name: "grade", label: "Grade", column: 5},
}

// FieldCount is the minimum number of columns a row must have.
const FieldCount = len(fieldTable)

func Fields() []Field {
	out := make([]Field, FieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

func (f Field) valid() bool {
	return f >= 0 && int(f) < FieldCount
}

func (f Field) Name() string {
	if !f.valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldTable[f].name
}

func (f Field) Label() string {
	if !f.valid() {
		return f.Name()
	}
	return fieldTable[f].label
}

func (f Field) Column() int {
	if !f.valid() {
		return -1
	}
	return fieldTable[f].column
}

func (f Field) String() string {
	return f.Name()
}

// LookupField resolves a configured field name, on failure the error
// suggests the most similar known name.
func LookupField(name string) (Field, error) {
	normalized := textutil.NormalizeKey(name)
	for _, f := range Fields() {
		if f.Name() == normalized {
			return f, nil
		}
	}

	suggestion := ""
	var similarity float64
	for _, f := range Fields() {
		sim := matchr.JaroWinkler(normalized, f.Name(), false)
		if sim > similarity {
			similarity = sim
			suggestion = f.Name()
		}
	}
	if suggestion == "" {
		return 0, fmt.Errorf("unknown transcript field %q", name)
	}
	return 0, fmt.Errorf("unknown transcript field %q, did you mean %q?", name, suggestion)
}

// cellKind keeps JSON strings apart from other JSON values with the same
// text, the cells "3" and 3 are not equal.
type cellKind byte

const (
	cellString cellKind = iota
	cellLiteral
	cellNull
)

// Record is one transcript row. values are kept exactly as the server sent
// them, JSON strings unquoted, null as "" and any other JSON value as its
// literal text.
type Record struct {
	values []string
	// nil means every cell is a string
	kinds []cellKind
}

func NewRecord(values ...string) Record {
	return Record{values: slices.Clone(values)}
}

func (r Record) kind(i int) cellKind {
	if r.kinds == nil {
		return cellString
	}
	return r.kinds[i]
}

func (r Record) Get(f Field) string {
	col := f.Column()
	if col < 0 || col >= len(r.values) {
		return ""
	}
	return r.values[col]
}

func (r Record) Values() []string {
	return slices.Clone(r.values)
}

func (r Record) Len() int {
	return len(r.values)
}

// Equal compares the whole tuple, column by column, including whether a
// cell was a JSON string.
func (r Record) Equal(other Record) bool {
	if !slices.Equal(r.values, other.values) {
		return false
	}
	for i := range r.values {
		if r.kind(i) != other.kind(i) {
			return false
		}
	}
	return true
}

// key is an injective encoding of the tuple for set lookups.
func (r Record) key() string {
	var b strings.Builder
	for i, v := range r.values {
		fmt.Fprintf(&b, "%d%d:%s;", r.kind(i), len(v), v)
	}
	return b.String()
}

// cells returns the row as JSON values, the inverse of how it was parsed.
func (r Record) cells() []any {
	out := make([]any, len(r.values))
	for i, v := range r.values {
		switch r.kind(i) {
		case cellNull:
			out[i] = nil
		case cellLiteral:
			out[i] = json.RawMessage(v)
		default:
			out[i] = v
		}
	}
	return out
}

func (r Record) String() string {
	return "(" + strings.Join(r.values, ", ") + ")"
}

// RecordSet answers membership queries by full-tuple equality.
type RecordSet struct {
	keys map[string]struct{}
}

func NewRecordSet(records []Record) RecordSet {
	keys := make(map[string]struct{}, len(records))
	for _, r := range records {
		keys[r.key()] = struct{}{}
	}
	return RecordSet{keys: keys}
}

func (s RecordSet) Contains(r Record) bool {
	_, ok := s.keys[r.key()]
	return ok
}
