package model

// ScoreRecord is a student's running tally for one test. Created lazily on the
// student's first answer submission; counters are only ever incremented.
type ScoreRecord struct {
	StudentID int    `json:"SID"`
	TestID    string `json:"testID"`
	Correct   int    `json:"correct"`
	Incorrect int    `json:"incorrect"`
}

// Answered is how many questions this record accounts for.
func (r ScoreRecord) Answered() int {
	return r.Correct + r.Incorrect
}

// ScoreDelta is a single additive update to a ScoreRecord. Both fields are
// non-negative; the ledger never decrements.
type ScoreDelta struct {
	Correct   int
	Incorrect int
}
