package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "casedesk/pkg/domain-errors"
)

// Identifiers are opaque strings. Generated ids carry a type prefix followed by
// a UUIDv7, so they sort by creation time and never collide across processes.
// Parsed ids only need to be short, printable and free of separators that
// could escape a URL path or a SQL literal.

const maxIDLength = 64

// Prefixes for generated identifiers.
const (
	prefixCase       = "CASE-"
	prefixSubmission = "SUB-"
	prefixLink       = "LNK-"
	prefixComment    = "COM-"
	prefixAccount    = "ACC-"
	prefixActivity   = "ACT-"
	prefixSnapshot   = "SNP-"
	prefixDocLink    = "DOC-"
)

type (
	CaseID       string
	PartyID      string
	SubmissionID string
	LinkID       string
	CommentID    string
	AccountID    string
	ActivityID   string
	SnapshotID   string
	DocLinkID    string
)

func newID(prefix string) string {
	// NewV7 only fails when the random source fails.
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return prefix + u.String()
}

func NewCaseID() CaseID             { return CaseID(newID(prefixCase)) }
func NewSubmissionID() SubmissionID { return SubmissionID(newID(prefixSubmission)) }
func NewLinkID() LinkID             { return LinkID(newID(prefixLink)) }
func NewCommentID() CommentID       { return CommentID(newID(prefixComment)) }
func NewAccountID() AccountID       { return AccountID(newID(prefixAccount)) }
func NewActivityID() ActivityID     { return ActivityID(newID(prefixActivity)) }
func NewSnapshotID() SnapshotID     { return SnapshotID(newID(prefixSnapshot)) }
func NewDocLinkID() DocLinkID       { return DocLinkID(newID(prefixDocLink)) }

// parseID enforces the shared identifier invariant:
// non-empty, at most 64 bytes, ASCII letters, digits, '-' or '_'.
func parseID(kind, s string) (string, error) {
	if s == "" || strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, kind+" contains invalid characters")
		}
	}
	return s, nil
}

func ParseCaseID(s string) (CaseID, error) {
	v, err := parseID("case id", s)
	return CaseID(v), err
}

func ParsePartyID(s string) (PartyID, error) {
	v, err := parseID("party id", s)
	return PartyID(v), err
}

func ParseSubmissionID(s string) (SubmissionID, error) {
	v, err := parseID("submission id", s)
	return SubmissionID(v), err
}

func ParseAccountID(s string) (AccountID, error) {
	v, err := parseID("account id", s)
	return AccountID(v), err
}

func (id CaseID) String() string       { return string(id) }
func (id PartyID) String() string      { return string(id) }
func (id SubmissionID) String() string { return string(id) }
func (id LinkID) String() string       { return string(id) }
func (id CommentID) String() string    { return string(id) }
func (id AccountID) String() string    { return string(id) }
func (id ActivityID) String() string   { return string(id) }
func (id SnapshotID) String() string   { return string(id) }
func (id DocLinkID) String() string    { return string(id) }

func (id CaseID) IsNil() bool    { return id == "" }
func (id PartyID) IsNil() bool   { return id == "" }
func (id AccountID) IsNil() bool { return id == "" }
