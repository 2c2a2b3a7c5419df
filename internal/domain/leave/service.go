package leave

import (
	"context"
)

type LeaveService interface {
	// Policy
	CreatePolicy(ctx context.Context, req CreatePolicyRequest, actorID int64) (LeavePolicy, error)
	UpdatePolicy(ctx context.Context, id int64, req UpdatePolicyRequest, actorID int64) (LeavePolicy, error)
	GetPolicy(ctx context.Context, id int64) (LeavePolicy, error)
	ListPolicies(ctx context.Context, filter PolicyFilter) (ListResult[LeavePolicy], error)
	ActivatePolicy(ctx context.Context, id int64, actorID int64) (LeavePolicy, error)
	DeactivatePolicy(ctx context.Context, id int64, actorID int64) (LeavePolicy, error)
	RetirePolicy(ctx context.Context, id int64, actorID int64) (LeavePolicy, error)
	ArchivePolicy(ctx context.Context, id int64, actorID int64) error
	RestorePolicy(ctx context.Context, id int64, actorID int64) error
	// Balance
	CreateBalance(ctx context.Context, req CreateBalanceRequest, actorID int64) (LeaveBalance, error)
	UpdateBalance(ctx context.Context, id int64, req UpdateBalanceRequest, actorID int64) (LeaveBalance, error)
	GetBalance(ctx context.Context, id int64) (LeaveBalance, error)
	GetBalanceDetail(ctx context.Context, id int64) (BalanceDetail, error)
	ListBalances(ctx context.Context, filter BalanceFilter) (ListResult[LeaveBalance], error)
	ListTransactions(ctx context.Context, balanceID int64) ([]LeaveTransaction, error)
	AdjustBalance(ctx context.Context, id int64, req AdjustBalanceRequest, actorID int64) (LeaveBalance, error)
	EncashBalance(ctx context.Context, id int64, req EncashBalanceRequest, actorID int64) (LeaveBalance, error)
	CarryOverBalance(ctx context.Context, id int64, req CarryOverRequest, actorID int64) (LeaveBalance, error)
	TransitionBalance(ctx context.Context, id int64, event BalanceEvent, actorID int64) (LeaveBalance, error)
	ArchiveBalance(ctx context.Context, id int64, actorID int64) error
	RestoreBalance(ctx context.Context, id int64, actorID int64) error
	GenerateBalancesForAllEmployees(ctx context.Context, req GenerateBalancesRequest, actorID *int64) (GenerateBalancesResult, error)
	// Request
	CreateLeaveRequest(ctx context.Context, req CreateLeaveRequestRequest, actorID int64) (LeaveRequest, error)
	UpdateLeaveRequest(ctx context.Context, id int64, req UpdateLeaveRequestRequest, actorID int64) (LeaveRequest, error)
	GetLeaveRequest(ctx context.Context, id int64) (LeaveRequest, error)
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) (ListResult[LeaveRequest], error)
	FindOverlappingRequests(ctx context.Context, query OverlapQuery) ([]LeaveRequest, error)
	ApproveLeaveRequest(ctx context.Context, id int64, req ReviewLeaveRequestRequest) (LeaveRequest, error)
	RejectLeaveRequest(ctx context.Context, id int64, req ReviewLeaveRequestRequest) (LeaveRequest, error)
	CancelLeaveRequest(ctx context.Context, id int64, req ReviewLeaveRequestRequest) (LeaveRequest, error)
	ReviewLeaveRequest(ctx context.Context, id int64, req ReviewLeaveRequestRequest) (LeaveRequest, error)
}
