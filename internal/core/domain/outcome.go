package domain

// OutcomeKind is the terminal state of one processed item.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the result of retrieving one item.
type Outcome struct {
	Kind OutcomeKind

	// Source is the name of the endpoint that produced Content (success only).
	Source string

	// ResolvedID is the identifier the content was fetched under. It differs
	// from the requested id when a replacement was followed.
	ResolvedID ItemID

	Content string
	Reason  string
}

func Success(source string, resolved ItemID, content string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Source: source, ResolvedID: resolved, Content: content}
}

func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

// AuditStatus is the status column vocabulary of the audit log.
type AuditStatus string

const (
	StatusOK   AuditStatus = "ok"
	StatusFail AuditStatus = "fail"
	StatusSkip AuditStatus = "skip"
)

// AuditRecord is one row of the audit log. Records are never mutated once written.
type AuditRecord struct {
	ID         ItemID
	SourceFile string
	Source     string
	Status     AuditStatus
	Note       string
}

// FailedItem is an identifier that exhausted every source and replacement.
type FailedItem struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	ItemID       ItemID `json:"item_id"`
	SourceFile   string `json:"source_file"`
	Error        string `json:"error_msg"`
	FailureCount int    `json:"failure_count"`
	LastAttempt  int64  `json:"last_attempt"`
}
