package gradecheck

import "gradewatch/lib/transcript"

type DiffResult struct {
	// records of the new snapshot that the old one doesn't have, in the
	// order the server returned them
	Added []transcript.Record
	// the change in recordsTotal is not explained by Added
	Mismatch bool
	Delta    int
}

// Diff compares two snapshots. recordsTotal decides whether anything changed
// at all, when it did the fetched pages are compared tuple by tuple.
func Diff(old, new transcript.Snapshot) DiffResult {
	delta := new.RecordsTotal - old.RecordsTotal
	if delta == 0 {
		return DiffResult{}
	}

	seen := transcript.NewRecordSet(old.Records)
	var added []transcript.Record
	for _, r := range new.Records {
		if !seen.Contains(r) {
			added = append(added, r)
		}
	}

	return DiffResult{
		Added:    added,
		Mismatch: delta != len(added),
		Delta:    delta,
	}
}
