package http

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
)

// CreateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	principal := currentPrincipal(r)

	var req leave.CreateLeaveRequestRequest
	if !decodeJSON(w, r, &req, "CreateRequest") {
		return
	}

	// Filing for oneself is the default.
	if req.EmployeeID == 0 && principal.EmployeeID != nil {
		req.EmployeeID = *principal.EmployeeID
	}
	if err := authorizeEmployee(principal, req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	request, err := l.leaveService.CreateLeaveRequest(r.Context(), req, principal.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", request)
}

// UpdateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	existing, ok := l.visibleRequest(w, r)
	if !ok {
		return
	}
	var req leave.UpdateLeaveRequestRequest
	if !decodeJSON(w, r, &req, "UpdateRequest") {
		return
	}

	request, err := l.leaveService.UpdateLeaveRequest(r.Context(), existing.ID, req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request updated successfully", request)
}

// GetRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, ok := l.visibleRequest(w, r)
	if !ok {
		return
	}
	response.Success(w, request)
}

// ListRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
	principal := currentPrincipal(r)
	q := newQueryParser(r)
	filter := leave.LeaveRequestFilter{
		EmployeeID:  q.int64Ptr("employee_id"),
		LeaveTypeID: q.int64Ptr("leave_type_id"),
		BalanceID:   q.int64Ptr("balance_id"),
		Page:        q.num("page"),
		Limit:       q.num("limit"),
	}
	if status := q.stringPtr("status"); status != nil {
		s := leave.RequestStatus(*status)
		filter.Status = &s
	}
	if err := q.err(); err != nil {
		response.HandleError(w, err)
		return
	}

	if !canViewAll(principal) {
		if principal.EmployeeID == nil {
			response.HandleError(w, user.ErrNotOwnEmployee)
			return
		}
		filter.EmployeeID = principal.EmployeeID
	}

	result, err := l.leaveService.ListLeaveRequests(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Paginated(w, result)
}

// FindOverlaps implements LeaveHandler.
func (l *LeaveHandlerImpl) FindOverlaps(w http.ResponseWriter, r *http.Request) {
	principal := currentPrincipal(r)
	q := newQueryParser(r)
	query := leave.OverlapQuery{
		StartDate: q.str("start_date"),
		EndDate:   q.str("end_date"),
		ExcludeID: q.int64Ptr("exclude_id"),
	}
	if employeeID := q.int64Ptr("employee_id"); employeeID != nil {
		query.EmployeeID = *employeeID
	} else if principal.EmployeeID != nil {
		query.EmployeeID = *principal.EmployeeID
	}
	if err := q.err(); err != nil {
		response.HandleError(w, err)
		return
	}
	if query.EmployeeID != 0 {
		if err := authorizeEmployee(principal, query.EmployeeID); err != nil {
			response.HandleError(w, err)
			return
		}
	}

	requests, err := l.leaveService.FindOverlappingRequests(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, requests)
}

// ApproveRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	l.reviewAction(w, r, l.leaveService.ApproveLeaveRequest, "Leave request approved successfully")
}

// RejectRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) RejectRequest(w http.ResponseWriter, r *http.Request) {
	l.reviewAction(w, r, l.leaveService.RejectLeaveRequest, "Leave request rejected successfully")
}

// ReviewRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) ReviewRequest(w http.ResponseWriter, r *http.Request) {
	l.reviewAction(w, r, l.leaveService.ReviewLeaveRequest, "Leave request reviewed successfully")
}

// CancelRequest implements LeaveHandler. Approvers may cancel any request,
// everyone else only their own.
func (l *LeaveHandlerImpl) CancelRequest(w http.ResponseWriter, r *http.Request) {
	principal := currentPrincipal(r)
	if !principal.CanApprove() {
		if _, ok := l.visibleRequest(w, r); !ok {
			return
		}
	}
	l.reviewAction(w, r, l.leaveService.CancelLeaveRequest, "Leave request cancelled successfully")
}

type reviewFunc func(ctx context.Context, id int64, req leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error)

func (l *LeaveHandlerImpl) reviewAction(w http.ResponseWriter, r *http.Request, action reviewFunc, message string) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	var req leave.ReviewLeaveRequestRequest
	if !decodeOptionalJSON(w, r, &req, "ReviewRequest") {
		return
	}
	// The reviewer is always the caller; a body may only repeat it.
	callerID := currentPrincipal(r).UserID
	if req.ApproverID != nil && *req.ApproverID != callerID {
		response.HandleError(w, user.ErrReviewerMismatch)
		return
	}
	req.ApproverID = &callerID

	request, err := action(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, request)
}

// visibleRequest loads the request named in the URL and checks the caller may read it.
func (l *LeaveHandlerImpl) visibleRequest(w http.ResponseWriter, r *http.Request) (leave.LeaveRequest, bool) {
	id, ok := urlID(w, r)
	if !ok {
		return leave.LeaveRequest{}, false
	}

	request, err := l.leaveService.GetLeaveRequest(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return leave.LeaveRequest{}, false
	}
	if err := authorizeEmployee(currentPrincipal(r), request.EmployeeID); err != nil {
		response.HandleError(w, err)
		return leave.LeaveRequest{}, false
	}

	return request, true
}
