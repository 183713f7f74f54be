package testutil

import (
	"net/http"
	"time"

	"casedesk/pkg/domain"
	"casedesk/pkg/requestcontext"
)

// AsActor puts actor on the request context, as the auth middleware does
// for a valid bearer token.
func AsActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// At pins the request time, so handlers and services see a fixed clock.
func At(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
