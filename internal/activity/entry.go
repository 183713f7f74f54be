// Package activity is the append-only audit trail of a case. Every state
// change in the case, submission and account machines emits one Entry,
// committed together with the change itself.
package activity

import (
	"encoding/json"
	"time"

	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
)

// Action is the human-readable label shown in the case history.
type Action string

const (
	ActionCaseCreated          Action = "Case Created"
	ActionCaseUpdated          Action = "Case Updated"
	ActionPartyLinked          Action = "Party Linked"
	ActionDocumentSubmitted    Action = "Document Submitted"
	ActionDocumentReviewed     Action = "Document Reviewed"
	ActionCommentAdded         Action = "Comment Added"
	ActionAccountProposed      Action = "Account Proposed"
	ActionAccountStatusChanged Action = "Account Status Changed"
	ActionAccountActivated     Action = "Account Activated"
	ActionApprovalRecorded     Action = "Approval Recorded"
)

// StatusChanged labels a case status transition.
func StatusChanged(to workflow.State) Action {
	return Action("Status Changed to " + string(to))
}

// Type groups actions for filtering.
type Type string

const (
	TypeCreate       Type = "CREATE"
	TypeUpdate       Type = "UPDATE"
	TypeStatusChange Type = "STATUS_CHANGE"
	TypeLink         Type = "LINK"
	TypeSubmit       Type = "SUBMIT"
	TypeReview       Type = "REVIEW"
	TypeComment      Type = "COMMENT"
	TypeApprove      Type = "APPROVE"
)

// Subject is the kind of entity an entry is about.
type Subject string

const (
	SubjectCase       Subject = "CASE"
	SubjectParty      Subject = "PARTY"
	SubjectSubmission Subject = "SUBMISSION"
	SubjectAccount    Subject = "ACCOUNT"
	SubjectSnapshot   Subject = "SNAPSHOT"
)

// Entry is one immutable audit record.
type Entry struct {
	ID            domain.ActivityID `json:"id" db:"id"`
	CaseID        domain.CaseID     `json:"case_id" db:"case_id"`
	Timestamp     time.Time         `json:"timestamp" db:"occurred_at"`
	ActorID       string            `json:"actor_id" db:"actor_id"`
	ActorName     string            `json:"actor_name" db:"actor_name"`
	ActorRole     domain.Role       `json:"actor_role" db:"actor_role"`
	Action        Action            `json:"action" db:"action"`
	Type          Type              `json:"action_type" db:"action_type"`
	Subject       Subject           `json:"entity_type" db:"entity_type"`
	SubjectID     string            `json:"entity_id" db:"entity_id"`
	Details       string            `json:"details,omitempty" db:"details"`
	PreviousValue string            `json:"previous_value,omitempty" db:"previous_value"`
	NewValue      string            `json:"new_value,omitempty" db:"new_value"`
	RequestID     string            `json:"request_id,omitempty" db:"request_id"`
	ClientIP      string            `json:"client_ip,omitempty" db:"client_ip"`
	Client        string            `json:"client,omitempty" db:"client"`
}

// Log is an append-only sequence of entries. Entries appended since the
// log was restored from storage are reported by Pending.
type Log struct {
	entries   []Entry
	persisted int
}

// Restore rebuilds a log from stored entries; all of them count as persisted.
func Restore(entries []Entry) Log {
	cp := append([]Entry(nil), entries...)
	return Log{entries: cp, persisted: len(cp)}
}

func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Entries returns a copy of every entry in append order.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Pending returns entries appended since Restore or MarkPersisted.
func (l *Log) Pending() []Entry {
	return append([]Entry(nil), l.entries[l.persisted:]...)
}

// MarkPersisted records that every current entry has been stored.
func (l *Log) MarkPersisted() {
	l.persisted = len(l.entries)
}

// Clone returns an independent copy that keeps the persisted mark.
func (l Log) Clone() Log {
	return Log{entries: append([]Entry(nil), l.entries...), persisted: l.persisted}
}

func (l Log) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

func (l *Log) UnmarshalJSON(b []byte) error {
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	*l = Restore(entries)
	return nil
}

// StatusWalk extracts the sequence of case statuses recorded in entries:
// the creation status followed by the target of every case status change.
func StatusWalk(entries []Entry) []workflow.State {
	var walk []workflow.State
	for _, e := range entries {
		if e.Subject != SubjectCase {
			continue
		}
		switch e.Type {
		case TypeCreate, TypeStatusChange:
			walk = append(walk, workflow.State(e.NewValue))
		}
	}
	return walk
}
