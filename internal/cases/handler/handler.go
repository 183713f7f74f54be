package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/internal/cases/service"
	"casedesk/internal/requirements"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/httputil"
	"casedesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the case workflow operations exposed over HTTP.
type Service interface {
	CreateCase(ctx context.Context, cmd service.CreateCaseCommand) (*models.Case, error)
	GetCase(ctx context.Context, id domain.CaseID) (*models.Case, error)
	ListCases(ctx context.Context, filter models.Filter) ([]*models.Case, error)
	UpdateCase(ctx context.Context, id domain.CaseID, cmd service.UpdateCaseCommand) (*models.Case, error)
	LinkParty(ctx context.Context, id domain.CaseID, cmd service.LinkPartyCommand) (*models.Case, error)
	Checklist(ctx context.Context, id domain.CaseID) (*requirements.Checklist, error)
	TransitionCase(ctx context.Context, id domain.CaseID, target workflow.State, comment string) (*models.Case, error)
	CreateSubmission(ctx context.Context, id domain.CaseID, requirementID string, data models.SubmissionData) (*models.Case, error)
	ReviewSubmission(ctx context.Context, id domain.CaseID, submissionID domain.SubmissionID, target workflow.State, comment string) (*models.Case, error)
	AddComment(ctx context.Context, id domain.CaseID, submissionID domain.SubmissionID, cmd service.AddCommentCommand) (*models.Case, error)
	ProposeAccount(ctx context.Context, id domain.CaseID, data models.AccountData) (*models.Case, error)
	TransitionAccount(ctx context.Context, id domain.CaseID, accountID domain.AccountID, target workflow.State) (*models.Case, error)
	ActivateAccount(ctx context.Context, id domain.CaseID, accountID domain.AccountID, accountNumber string) (*models.Case, error)
	Approve(ctx context.Context, id domain.CaseID, cmd service.ApproveCommand) (*approval.Snapshot, error)
	ListActivities(ctx context.Context, id domain.CaseID) ([]activity.Entry, error)
	ListSnapshots(ctx context.Context, id domain.CaseID) ([]approval.Snapshot, error)
}

const maxListLimit = 200

// Handler wires case endpoints to the case service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the case endpoints on r. Callers install the actor
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cases", func(r chi.Router) {
		r.Post("/", h.HandleCreateCase)
		r.Get("/", h.HandleListCases)
		r.Route("/{caseID}", func(r chi.Router) {
			r.Get("/", h.HandleGetCase)
			r.Patch("/", h.HandleUpdateCase)
			r.Post("/parties", h.HandleLinkParty)
			r.Get("/checklist", h.HandleChecklist)
			r.Post("/status", h.HandleTransitionCase)
			r.Post("/requirements/{requirementID}/submissions", h.HandleCreateSubmission)
			r.Post("/submissions/{submissionID}/review", h.HandleReviewSubmission)
			r.Post("/submissions/{submissionID}/comments", h.HandleAddComment)
			r.Post("/accounts", h.HandleProposeAccount)
			r.Post("/accounts/{accountID}/status", h.HandleTransitionAccount)
			r.Post("/accounts/{accountID}/activate", h.HandleActivateAccount)
			r.Post("/approvals", h.HandleApprove)
			r.Get("/activities", h.HandleListActivities)
			r.Get("/snapshots", h.HandleListSnapshots)
		})
	})
}

func (h *Handler) HandleCreateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateCaseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.CreateCase(ctx, req.Command())
	if err != nil {
		h.writeError(ctx, w, "create case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCase(c))
}

// HandleListCases handles GET /cases?status=&assigned_to=&limit=.
func (h *Handler) HandleListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := models.Filter{
		Status:     workflow.State(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		AssignedTo: strings.TrimSpace(q.Get("assigned_to")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and "+strconv.Itoa(maxListLimit)))
			return
		}
		filter.Limit = limit
	}
	cases, err := h.service.ListCases(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, "list cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCases(cases))
}

func (h *Handler) HandleGetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.service.GetCase(ctx, caseID(r))
	if err != nil {
		h.writeError(ctx, w, "get case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

func (h *Handler) HandleUpdateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateCaseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respondCase(ctx, w, "update case")(h.service.UpdateCase(ctx, caseID(r), req.Command()))
}

func (h *Handler) HandleLinkParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[LinkPartyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respondCase(ctx, w, "link party")(h.service.LinkParty(ctx, caseID(r), req.Command()))
}

func (h *Handler) HandleChecklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cl, err := h.service.Checklist(ctx, caseID(r))
	if err != nil {
		h.writeError(ctx, w, "resolve checklist", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromChecklist(cl))
}

func (h *Handler) HandleTransitionCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respondCase(ctx, w, "transition case")(h.service.TransitionCase(ctx, caseID(r), req.Target(), strings.TrimSpace(req.Comment)))
}

func (h *Handler) HandleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SubmissionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.CreateSubmission(ctx, caseID(r), chi.URLParam(r, "requirementID"), req.Data())
	if err != nil {
		h.writeError(ctx, w, "create submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCase(c))
}

func (h *Handler) HandleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respondCase(ctx, w, "review submission")(h.service.ReviewSubmission(ctx, caseID(r), submissionID(r),
		workflow.State(req.Status), strings.TrimSpace(req.Comment)))
}

func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CommentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respondCase(ctx, w, "add comment")(h.service.AddComment(ctx, caseID(r), submissionID(r), service.AddCommentCommand{
		Text:     req.Text,
		Internal: req.Internal,
	}))
}

func (h *Handler) HandleProposeAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ProposeAccountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.ProposeAccount(ctx, caseID(r), req.Data())
	if err != nil {
		h.writeError(ctx, w, "propose account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCase(c))
}

func (h *Handler) HandleTransitionAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respondCase(ctx, w, "transition account")(h.service.TransitionAccount(ctx, caseID(r), accountID(r), req.Target()))
}

func (h *Handler) HandleActivateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ActivateAccountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respondCase(ctx, w, "activate account")(h.service.ActivateAccount(ctx, caseID(r), accountID(r), req.AccountNumber))
}

// HandleApprove records a KYC or account approval and returns the snapshot.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ApproveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.Approve(ctx, caseID(r), req.Command())
	if err != nil {
		h.writeError(ctx, w, "approve", err)
		return
	}
	h.logger.InfoContext(ctx, "approval recorded",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", string(snap.CaseID),
		"snapshot_id", string(snap.ID),
		"type", string(snap.Type),
		"decision", string(snap.Decision),
	)
	httputil.WriteJSON(w, http.StatusCreated, snap)
}

func (h *Handler) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.service.ListActivities(ctx, caseID(r))
	if err != nil {
		h.writeError(ctx, w, "list activities", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActivitiesResponse{Activities: nonNil(entries)})
}

func (h *Handler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snaps, err := h.service.ListSnapshots(ctx, caseID(r))
	if err != nil {
		h.writeError(ctx, w, "list snapshots", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SnapshotsResponse{Snapshots: nonNil(snaps)})
}

// respondCase writes the case returned by a mutation, or its error.
func (h *Handler) respondCase(ctx context.Context, w http.ResponseWriter, op string) func(*models.Case, error) {
	return func(c *models.Case, err error) {
		if err != nil {
			h.writeError(ctx, w, op, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromCase(c))
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func caseID(r *http.Request) domain.CaseID {
	return domain.CaseID(chi.URLParam(r, "caseID"))
}

func submissionID(r *http.Request) domain.SubmissionID {
	return domain.SubmissionID(chi.URLParam(r, "submissionID"))
}

func accountID(r *http.Request) domain.AccountID {
	return domain.AccountID(chi.URLParam(r, "accountID"))
}
