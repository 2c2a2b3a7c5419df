package leave

import (
	"fmt"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
)

type RequestEvent string

const (
	RequestEventApprove RequestEvent = "approve"
	RequestEventReject  RequestEvent = "reject"
	RequestEventCancel  RequestEvent = "cancel"
)

type PolicyEvent string

const (
	PolicyEventActivate   PolicyEvent = "activate"
	PolicyEventDeactivate PolicyEvent = "deactivate"
	PolicyEventRetire     PolicyEvent = "retire"
)

type BalanceEvent string

const (
	BalanceEventClose    BalanceEvent = "close"
	BalanceEventReopen   BalanceEvent = "reopen"
	BalanceEventFinalize BalanceEvent = "finalize"
)

var requestTransitions = map[RequestStatus]map[RequestEvent]RequestStatus{
	RequestStatusPending: {
		RequestEventApprove: RequestStatusApproved,
		RequestEventReject:  RequestStatusRejected,
		RequestEventCancel:  RequestStatusCancelled,
	},
	RequestStatusApproved: {
		RequestEventCancel: RequestStatusCancelled,
	},
}

var policyTransitions = map[PolicyStatus]map[PolicyEvent]PolicyStatus{
	PolicyStatusDraft: {
		PolicyEventActivate:   PolicyStatusActive,
		PolicyEventDeactivate: PolicyStatusInactive,
		PolicyEventRetire:     PolicyStatusRetired,
	},
	PolicyStatusInactive: {
		PolicyEventActivate: PolicyStatusActive,
		PolicyEventRetire:   PolicyStatusRetired,
	},
	PolicyStatusActive: {
		PolicyEventDeactivate: PolicyStatusInactive,
		PolicyEventRetire:     PolicyStatusRetired,
	},
}

var balanceTransitions = map[BalanceStatus]map[BalanceEvent]BalanceStatus{
	BalanceStatusOpen: {
		BalanceEventClose: BalanceStatusClosed,
	},
	BalanceStatusClosed: {
		BalanceEventReopen:   BalanceStatusReopened,
		BalanceEventFinalize: BalanceStatusFinalized,
	},
	BalanceStatusReopened: {
		BalanceEventClose: BalanceStatusClosed,
	},
}

func transitionError(entity string, from, event string) error {
	return apperror.Wrap(ErrInvalidTransition, apperror.KindConflict, "INVALID_STATUS_TRANSITION",
		fmt.Sprintf("cannot %s %s in status %s", event, entity, from))
}

// Next returns the status reached by applying e, or a conflict error when e is not allowed from s.
func (s RequestStatus) Next(e RequestEvent) (RequestStatus, error) {
	if to, ok := requestTransitions[s][e]; ok {
		return to, nil
	}
	return s, transitionError("leave request", string(s), string(e))
}

func (s PolicyStatus) Next(e PolicyEvent) (PolicyStatus, error) {
	if to, ok := policyTransitions[s][e]; ok {
		return to, nil
	}
	return s, transitionError("leave policy", string(s), string(e))
}

func (s BalanceStatus) Next(e BalanceEvent) (BalanceStatus, error) {
	if to, ok := balanceTransitions[s][e]; ok {
		return to, nil
	}
	return s, transitionError("leave balance", string(s), string(e))
}

// IsUsable reports whether a balance in this status may be debited or credited.
func (s BalanceStatus) IsUsable() bool {
	return s == BalanceStatusOpen || s == BalanceStatusReopened
}

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

func (s PolicyStatus) IsValid() bool {
	switch s {
	case PolicyStatusDraft, PolicyStatusActive, PolicyStatusInactive, PolicyStatusRetired:
		return true
	}
	return false
}

func (s BalanceStatus) IsValid() bool {
	switch s {
	case BalanceStatusOpen, BalanceStatusClosed, BalanceStatusReopened, BalanceStatusFinalized:
		return true
	}
	return false
}
