package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	CreatePolicy(w http.ResponseWriter, r *http.Request)
	UpdatePolicy(w http.ResponseWriter, r *http.Request)
	GetPolicy(w http.ResponseWriter, r *http.Request)
	ListPolicies(w http.ResponseWriter, r *http.Request)
	ActivatePolicy(w http.ResponseWriter, r *http.Request)
	DeactivatePolicy(w http.ResponseWriter, r *http.Request)
	RetirePolicy(w http.ResponseWriter, r *http.Request)
	ArchivePolicy(w http.ResponseWriter, r *http.Request)
	RestorePolicy(w http.ResponseWriter, r *http.Request)

	CreateBalance(w http.ResponseWriter, r *http.Request)
	UpdateBalance(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetBalanceDetail(w http.ResponseWriter, r *http.Request)
	ListBalances(w http.ResponseWriter, r *http.Request)
	ListTransactions(w http.ResponseWriter, r *http.Request)
	AdjustBalance(w http.ResponseWriter, r *http.Request)
	EncashBalance(w http.ResponseWriter, r *http.Request)
	CarryOverBalance(w http.ResponseWriter, r *http.Request)
	CloseBalance(w http.ResponseWriter, r *http.Request)
	ReopenBalance(w http.ResponseWriter, r *http.Request)
	FinalizeBalance(w http.ResponseWriter, r *http.Request)
	ArchiveBalance(w http.ResponseWriter, r *http.Request)
	RestoreBalance(w http.ResponseWriter, r *http.Request)
	GenerateBalances(w http.ResponseWriter, r *http.Request)

	CreateRequest(w http.ResponseWriter, r *http.Request)
	UpdateRequest(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	ListRequests(w http.ResponseWriter, r *http.Request)
	FindOverlaps(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	RejectRequest(w http.ResponseWriter, r *http.Request)
	CancelRequest(w http.ResponseWriter, r *http.Request)
	ReviewRequest(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
	}
}

// CreatePolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req leave.CreatePolicyRequest
	if !decodeJSON(w, r, &req, "CreatePolicy") {
		return
	}

	policy, err := l.leaveService.CreatePolicy(r.Context(), req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave policy created successfully", policy)
}

// UpdatePolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req leave.UpdatePolicyRequest
	if !decodeJSON(w, r, &req, "UpdatePolicy") {
		return
	}

	policy, err := l.leaveService.UpdatePolicy(r.Context(), id, req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave policy updated successfully", policy)
}

// GetPolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	policy, err := l.leaveService.GetPolicy(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, policy)
}

// ListPolicies implements LeaveHandler.
func (l *LeaveHandlerImpl) ListPolicies(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	filter := leave.PolicyFilter{
		LeaveTypeID:     q.int64Ptr("leave_type_id"),
		IncludeArchived: q.flag("include_archived"),
		Page:            q.num("page"),
		Limit:           q.num("limit"),
	}
	if status := q.stringPtr("status"); status != nil {
		s := leave.PolicyStatus(*status)
		filter.Status = &s
	}
	if err := q.err(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.ListPolicies(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Paginated(w, result)
}

// ActivatePolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) ActivatePolicy(w http.ResponseWriter, r *http.Request) {
	l.policyTransition(w, r, l.leaveService.ActivatePolicy, "Leave policy activated successfully")
}

// DeactivatePolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) DeactivatePolicy(w http.ResponseWriter, r *http.Request) {
	l.policyTransition(w, r, l.leaveService.DeactivatePolicy, "Leave policy deactivated successfully")
}

// RetirePolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) RetirePolicy(w http.ResponseWriter, r *http.Request) {
	l.policyTransition(w, r, l.leaveService.RetirePolicy, "Leave policy retired successfully")
}

// ArchivePolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) ArchivePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := l.leaveService.ArchivePolicy(r.Context(), id, currentPrincipal(r).UserID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave policy archived successfully", nil)
}

// RestorePolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) RestorePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := l.leaveService.RestorePolicy(r.Context(), id, currentPrincipal(r).UserID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave policy restored successfully", nil)
}

type policyAction func(ctx context.Context, id int64, actorID int64) (leave.LeavePolicy, error)

func (l *LeaveHandlerImpl) policyTransition(w http.ResponseWriter, r *http.Request, action policyAction, message string) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	policy, err := action(r.Context(), id, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, policy)
}

// ---- helpers ----

// currentPrincipal returns the caller loaded by middleware.AuthRequired.
// Routes are only mounted behind that middleware.
func currentPrincipal(r *http.Request) user.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}

// canViewAll reports whether the caller may read other employees' leave.
func canViewAll(p user.Principal) bool {
	return user.HasPermission(p.Role, user.PermissionLeaveViewAll)
}

func authorizeEmployee(p user.Principal, employeeID int64) error {
	if canViewAll(p) || p.OwnsEmployee(employeeID) {
		return nil
	}
	return user.ErrNotOwnEmployee
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON that also accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	slog.Error(op+" decode error", "error", err)
	response.BadRequest(w, "Invalid request format", nil)
	return false
}

func urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.HandleError(w, validator.ValidationErrors{{Field: "id", Message: "id must be a positive integer"}})
		return 0, false
	}
	return id, true
}

// queryParser collects typed query parameters and their parse errors.
type queryParser struct {
	r    *http.Request
	errs validator.ValidationErrors
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{r: r}
}

func (p *queryParser) stringPtr(key string) *string {
	v := p.r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	return &v
}

func (p *queryParser) str(key string) string {
	return p.r.URL.Query().Get(key)
}

func (p *queryParser) int64Ptr(key string) *int64 {
	v := p.r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		p.errs.Add(key, key+" must be a positive integer")
		return nil
	}
	return &n
}

// num ignores malformed values; paging falls back to its defaults.
func (p *queryParser) num(key string) int {
	n, err := strconv.Atoi(p.r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func (p *queryParser) flag(key string) bool {
	b, _ := strconv.ParseBool(p.r.URL.Query().Get(key))
	return b
}

func (p *queryParser) err() error {
	return p.errs.Err()
}
