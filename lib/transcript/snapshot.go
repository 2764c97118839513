package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrMalformed = errors.New("malformed transcript snapshot")

// Snapshot is the record count reported by the server plus the page of
// records that was fetched with it.
type Snapshot struct {
	RecordsTotal int
	Records      []Record

	// the body this snapshot was parsed from, persisted verbatim
	raw []byte
}

// Empty is the zero snapshot used on first run and when a fetch fails.
func Empty() Snapshot {
	return Snapshot{Records: []Record{}}
}

func (s Snapshot) Raw() []byte {
	return s.raw
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func parseTotal(raw json.RawMessage) (int, error) {
	var total json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case json.Number:
		total = v
	case string:
		// some DataTables backends report counts as strings
		total = json.Number(v)
	default:
		return 0, fmt.Errorf("unexpected type %T", value)
	}
	n, err := strconv.Atoi(total.String())
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func parseCell(raw json.RawMessage) (string, cellKind) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, cellString
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return "", cellNull
	}
	return string(trimmed), cellLiteral
}

// Parse decodes a data endpoint body of the form
// {"recordsTotal": N, "data": [[...], ...]}.
func Parse(body []byte) (Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Snapshot{}, malformed("%s", err.Error())
	}
	if fields == nil {
		return Snapshot{}, malformed("body is not an object")
	}

	rawTotal, ok := fields["recordsTotal"]
	if !ok {
		return Snapshot{}, malformed("missing recordsTotal")
	}
	total, err := parseTotal(rawTotal)
	if err != nil {
		return Snapshot{}, malformed("recordsTotal: %s", err.Error())
	}

	rawData, ok := fields["data"]
	if !ok {
		return Snapshot{}, malformed("missing data")
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(rawData, &rows); err != nil {
		return Snapshot{}, malformed("data: %s", err.Error())
	}

	records := make([]Record, 0, len(rows))
	for i, rawRow := range rows {
		var cells []json.RawMessage
		if err := json.Unmarshal(rawRow, &cells); err != nil {
			return Snapshot{}, malformed("data[%d]: %s", i, err.Error())
		}
		if len(cells) < FieldCount {
			return Snapshot{}, malformed("data[%d] has %d columns, want at least %d", i, len(cells), FieldCount)
		}
		values := make([]string, len(cells))
		kinds := make([]cellKind, len(cells))
		for j, c := range cells {
			values[j], kinds[j] = parseCell(c)
		}
		records = append(records, Record{values: values, kinds: kinds})
	}

	return Snapshot{
		RecordsTotal: total,
		Records:      records,
		raw:          bytes.Clone(body),
	}, nil
}

type encodedSnapshot struct {
	RecordsTotal int     `json:"recordsTotal"`
	Data         [][]any `json:"data"`
}

// Encode returns the bytes a snapshot is persisted as, the original body
// when there is one.
func (s Snapshot) Encode() ([]byte, error) {
	if len(s.raw) > 0 {
		return bytes.Clone(s.raw), nil
	}
	data := make([][]any, len(s.Records))
	for i, r := range s.Records {
		data[i] = r.cells()
	}
	return json.Marshal(encodedSnapshot{
		RecordsTotal: s.RecordsTotal,
		Data:         data,
	})
}
