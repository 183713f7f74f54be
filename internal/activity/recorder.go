package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/mssola/useragent"

	"casedesk/pkg/domain"
	"casedesk/pkg/requestcontext"
)

// Recorder builds entries stamped with the request-scoped actor, time,
// request id and client metadata.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Option fills in the optional parts of an entry.
type Option func(*Entry)

func On(subject Subject, id string) Option {
	return func(e *Entry) {
		e.Subject = subject
		e.SubjectID = id
	}
}

func Change(previous, next string) Option {
	return func(e *Entry) {
		e.PreviousValue = previous
		e.NewValue = next
	}
}

func Details(details string) Option {
	return func(e *Entry) {
		e.Details = details
	}
}

// Record builds one entry. Callers append it to the case log inside the
// same unit of work as the change it describes.
func (r *Recorder) Record(ctx context.Context, caseID domain.CaseID, action Action, kind Type, opts ...Option) Entry {
	actor := requestcontext.Actor(ctx)
	e := Entry{
		ID:        domain.NewActivityID(),
		CaseID:    caseID,
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actor.ID,
		ActorName: actor.Label(),
		ActorRole: actor.Role,
		Action:    action,
		Type:      kind,
		Subject:   SubjectCase,
		SubjectID: string(caseID),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Client:    DescribeClient(requestcontext.UserAgent(ctx)),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// DescribeClient renders a user agent as "Browser version on OS", or a
// bot marker. Unparseable agents are returned trimmed to 128 bytes.
func DescribeClient(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot: " + name
	}
	name, version := ua.Browser()
	os := ua.OS()
	switch {
	case name != "" && os != "":
		return fmt.Sprintf("%s %s on %s", name, version, os)
	case name != "":
		return strings.TrimSpace(name + " " + version)
	}
	if len(raw) > 128 {
		raw = raw[:128]
	}
	return raw
}
