package transcript

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	body := []byte(`{"draw":1,"recordsTotal":2,"recordsFiltered":2,"data":[
		["COMP130004","2023-2024","1","Data Structures",3,"A-"],
		["MATH120001","2023-2024","2","Calculus","5.0","B",null]
	]}`)

	snap, err := Parse(body)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, snap.RecordsTotal)
	require.Equal(t, body, snap.Raw())

	expected := [][]string{
		{"COMP130004", "2023-2024", "1", "Data Structures", "3", "A-"},
		{"MATH120001", "2023-2024", "2", "Calculus", "5.0", "B", ""},
	}
	var got [][]string
	for _, r := range snap.Records {
		got = append(got, r.Values())
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeepsCellTypes(t *testing.T) {
	snap, err := Parse([]byte(`{"recordsTotal":4,"data":[
		["A","2023","1","Algebra","3","A"],
		["A","2023","1","Algebra",3,"A"],
		["A","2023","1","Algebra",3,""],
		["A","2023","1","Algebra",3,null]
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	quoted, number, blank, null := snap.Records[0], snap.Records[1], snap.Records[2], snap.Records[3]

	require.Equal(t, quoted.Values(), number.Values())
	require.False(t, quoted.Equal(number))
	require.Equal(t, blank.Values(), null.Values())
	require.False(t, blank.Equal(null))

	set := NewRecordSet([]Record{quoted, blank})
	require.False(t, set.Contains(number))
	require.False(t, set.Contains(null))
	require.True(t, set.Contains(NewRecord("A", "2023", "1", "Algebra", "3", "A")))

	// the canonical encoding preserves the types
	encoded, err := Snapshot{RecordsTotal: 4, Records: snap.Records}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(t, `{"recordsTotal":4,"data":[
		["A","2023","1","Algebra","3","A"],
		["A","2023","1","Algebra",3,"A"],
		["A","2023","1","Algebra",3,""],
		["A","2023","1","Algebra",3,null]
	]}`, string(encoded))
	reparsed, err := Parse(encoded)
	if err != nil {
		t.Fatal(err)
	}
	for i := range snap.Records {
		require.True(t, reparsed.Records[i].Equal(snap.Records[i]))
	}
}

func TestParseStringTotal(t *testing.T) {
	snap, err := Parse([]byte(`{"recordsTotal":"7","data":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 7, snap.RecordsTotal)
	require.Empty(t, snap.Records)
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>login</html>`},
		{name: "null", body: `null`},
		{name: "array", body: `[]`},
		{name: "missing total", body: `{"data":[]}`},
		{name: "missing data", body: `{"recordsTotal":0}`},
		{name: "negative total", body: `{"recordsTotal":-1,"data":[]}`},
		{name: "fractional total", body: `{"recordsTotal":1.5,"data":[]}`},
		{name: "data not a list", body: `{"recordsTotal":1,"data":{}}`},
		{name: "row not a list", body: `{"recordsTotal":1,"data":["x"]}`},
		{name: "short row", body: `{"recordsTotal":1,"data":[["a","b"]]}`},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.body))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncode(t *testing.T) {
	empty, err := Empty().Encode()
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(t, `{"recordsTotal":0,"data":[]}`, string(empty))

	built := Snapshot{
		RecordsTotal: 1,
		Records:      []Record{NewRecord("A", "2023", "1", "Algebra", "4", "A")},
	}
	encoded, err := built.Encode()
	if err != nil {
		t.Fatal(err)
	}
	reparsed, err := Parse(encoded)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, reparsed.RecordsTotal)
	require.True(t, reparsed.Records[0].Equal(built.Records[0]))

	// parsed snapshots are persisted byte for byte
	body := []byte(`{ "recordsTotal": 0, "data": [] }`)
	parsed, err := Parse(body)
	if err != nil {
		t.Fatal(err)
	}
	encoded, err = parsed.Encode()
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, body, encoded)
}
