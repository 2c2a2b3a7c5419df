package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
)

// CreateBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateBalance(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateBalanceRequest
	if !decodeJSON(w, r, &req, "CreateBalance") {
		return
	}

	balance, err := l.leaveService.CreateBalance(r.Context(), req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave balance created successfully", balance)
}

// UpdateBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req leave.UpdateBalanceRequest
	if !decodeJSON(w, r, &req, "UpdateBalance") {
		return
	}

	balance, err := l.leaveService.UpdateBalance(r.Context(), id, req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave balance updated successfully", balance)
}

// GetBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, ok := l.visibleBalance(w, r)
	if !ok {
		return
	}
	response.Success(w, balance)
}

// GetBalanceDetail implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalanceDetail(w http.ResponseWriter, r *http.Request) {
	balance, ok := l.visibleBalance(w, r)
	if !ok {
		return
	}

	detail, err := l.leaveService.GetBalanceDetail(r.Context(), balance.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, detail)
}

// ListTransactions implements LeaveHandler.
func (l *LeaveHandlerImpl) ListTransactions(w http.ResponseWriter, r *http.Request) {
	balance, ok := l.visibleBalance(w, r)
	if !ok {
		return
	}

	transactions, err := l.leaveService.ListTransactions(r.Context(), balance.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, transactions)
}

// ListBalances implements LeaveHandler.
func (l *LeaveHandlerImpl) ListBalances(w http.ResponseWriter, r *http.Request) {
	principal := currentPrincipal(r)
	q := newQueryParser(r)
	filter := leave.BalanceFilter{
		EmployeeID:      q.int64Ptr("employee_id"),
		LeaveTypeID:     q.int64Ptr("leave_type_id"),
		Year:            q.stringPtr("year"),
		IncludeArchived: q.flag("include_archived"),
		Page:            q.num("page"),
		Limit:           q.num("limit"),
	}
	if status := q.stringPtr("status"); status != nil {
		s := leave.BalanceStatus(*status)
		filter.Status = &s
	}
	if err := q.err(); err != nil {
		response.HandleError(w, err)
		return
	}

	// Employees only ever see their own balances.
	if !canViewAll(principal) {
		if principal.EmployeeID == nil {
			response.HandleError(w, user.ErrNotOwnEmployee)
			return
		}
		filter.EmployeeID = principal.EmployeeID
	}

	result, err := l.leaveService.ListBalances(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Paginated(w, result)
}

// AdjustBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req leave.AdjustBalanceRequest
	if !decodeJSON(w, r, &req, "AdjustBalance") {
		return
	}

	balance, err := l.leaveService.AdjustBalance(r.Context(), id, req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave balance adjusted successfully", balance)
}

// EncashBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) EncashBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req leave.EncashBalanceRequest
	if !decodeJSON(w, r, &req, "EncashBalance") {
		return
	}

	balance, err := l.leaveService.EncashBalance(r.Context(), id, req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave balance encashed successfully", balance)
}

// CarryOverBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) CarryOverBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req leave.CarryOverRequest
	if !decodeJSON(w, r, &req, "CarryOverBalance") {
		return
	}

	target, err := l.leaveService.CarryOverBalance(r.Context(), id, req, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave balance carried over successfully", target)
}

// CloseBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) CloseBalance(w http.ResponseWriter, r *http.Request) {
	l.balanceTransition(w, r, leave.BalanceEventClose, "Leave balance closed successfully")
}

// ReopenBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) ReopenBalance(w http.ResponseWriter, r *http.Request) {
	l.balanceTransition(w, r, leave.BalanceEventReopen, "Leave balance reopened successfully")
}

// FinalizeBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) FinalizeBalance(w http.ResponseWriter, r *http.Request) {
	l.balanceTransition(w, r, leave.BalanceEventFinalize, "Leave balance finalized successfully")
}

// ArchiveBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) ArchiveBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := l.leaveService.ArchiveBalance(r.Context(), id, currentPrincipal(r).UserID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave balance archived successfully", nil)
}

// RestoreBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) RestoreBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := l.leaveService.RestoreBalance(r.Context(), id, currentPrincipal(r).UserID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave balance restored successfully", nil)
}

// GenerateBalances implements LeaveHandler.
func (l *LeaveHandlerImpl) GenerateBalances(w http.ResponseWriter, r *http.Request) {
	var req leave.GenerateBalancesRequest
	if !decodeJSON(w, r, &req, "GenerateBalances") {
		return
	}

	actorID := currentPrincipal(r).UserID
	result, err := l.leaveService.GenerateBalancesForAllEmployees(r.Context(), req, &actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave balances generated", result)
}

func (l *LeaveHandlerImpl) balanceTransition(w http.ResponseWriter, r *http.Request, event leave.BalanceEvent, message string) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	balance, err := l.leaveService.TransitionBalance(r.Context(), id, event, currentPrincipal(r).UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, balance)
}

// visibleBalance loads the balance named in the URL and checks the caller may read it.
func (l *LeaveHandlerImpl) visibleBalance(w http.ResponseWriter, r *http.Request) (leave.LeaveBalance, bool) {
	id, ok := urlID(w, r)
	if !ok {
		return leave.LeaveBalance{}, false
	}

	balance, err := l.leaveService.GetBalance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return leave.LeaveBalance{}, false
	}
	if err := authorizeEmployee(currentPrincipal(r), balance.EmployeeID); err != nil {
		response.HandleError(w, err)
		return leave.LeaveBalance{}, false
	}

	return balance, true
}
