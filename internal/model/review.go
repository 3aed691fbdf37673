package model

// Verdict is the classifier's three-way outcome for a raw record.
type Verdict string

// Verdicts.
const (
	VerdictNew       Verdict = "new"
	VerdictDuplicate Verdict = "duplicate"
	VerdictMatch     Verdict = "match"
)

// ReviewAction is what the user decided to do with a record after review.
type ReviewAction string

// Review actions.
const (
	ActionCreate ReviewAction = "create"
	ActionSkip   ReviewAction = "skip"
	ActionMerge  ReviewAction = "merge"
)

// DefaultAction maps a verdict to the action the review UI preselects.
// A match verdict still requires an explicit user decision before commit;
// this is only the starting point.
func (v Verdict) DefaultAction() ReviewAction {
	switch v {
	case VerdictDuplicate:
		return ActionSkip
	case VerdictMatch:
		return ActionMerge
	default:
		return ActionCreate
	}
}

// MatchCandidate is a scored pairing between one raw record and one
// existing unreconciled ledger entry. Transient, never persisted.
type MatchCandidate struct {
	Entry        LedgerEntry
	DateDistance int // absolute days between entry date and record date
}

// Classification is the per-record result of the analysis step.
type Classification struct {
	Verdict Verdict
	// Matched is the best match candidate for a match verdict, or the
	// hash-owning entry for a duplicate verdict (display only).
	Matched *LedgerEntry
}

// ReviewRecord is one row sent to the review step.
type ReviewRecord struct {
	Record  RawRecord
	Verdict Verdict
	Matched *LedgerEntry
}

// ReviewedRecord is one row coming back from review, carrying the original
// verdict plus the user's (possibly overriding) action.
type ReviewedRecord struct {
	Record         RawRecord
	Verdict        Verdict
	Action         ReviewAction
	MatchedEntryID string
	CategoryID     string
	PayeeID        string
}

// CommitSummary reports the outcome of committing a reviewed batch. The
// four counts always sum to the batch total; no record is silently lost.
type CommitSummary struct {
	Imported   int
	Duplicates int
	Skipped    int
	Errors     int
}

// Total returns the number of records accounted for.
func (s CommitSummary) Total() int {
	return s.Imported + s.Duplicates + s.Skipped + s.Errors
}
