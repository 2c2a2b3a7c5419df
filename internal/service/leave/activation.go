package leave

import (
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
)

// ActivationDecision tells the caller what must happen before a policy goes ACTIVE.
type ActivationDecision struct {
	// RetirePolicyID is set when another policy of the same leave type is ACTIVE
	// and has to be retired in the same transaction.
	RetirePolicyID *int64
}

// ActivationService gates policy state changes. It holds no state and never writes.
type ActivationService struct{}

func NewActivationService() *ActivationService {
	return &ActivationService{}
}

func (a *ActivationService) ValidateParameters(policy leave.LeavePolicy) error {
	return leave.ValidatePolicyParameters(policy)
}

// CanActivate decides whether newPolicy may become ACTIVE given the leave type's
// currently active policy (nil when there is none).
func (a *ActivationService) CanActivate(newPolicy leave.LeavePolicy, existing *leave.LeavePolicy) (ActivationDecision, error) {
	if newPolicy.Status == leave.PolicyStatusActive {
		return ActivationDecision{}, leave.ErrPolicyAlreadyActive
	}
	if newPolicy.IsArchived() {
		return ActivationDecision{}, leave.ErrAlreadyArchived
	}
	if _, err := newPolicy.Status.Next(leave.PolicyEventActivate); err != nil {
		return ActivationDecision{}, err
	}
	if !newPolicy.HasValidWindow() {
		return ActivationDecision{}, leave.ErrInvalidPolicyWindow
	}
	if err := a.ValidateParameters(newPolicy); err != nil {
		return ActivationDecision{}, err
	}

	var decision ActivationDecision
	if existing != nil && existing.ID != newPolicy.ID && existing.LeaveTypeID == newPolicy.LeaveTypeID {
		id := existing.ID
		decision.RetirePolicyID = &id
	}
	return decision, nil
}

// CanUpdate allows field edits on DRAFT and INACTIVE policies only.
func (a *ActivationService) CanUpdate(policy leave.LeavePolicy) error {
	if policy.IsArchived() {
		return leave.ErrAlreadyArchived
	}
	switch policy.Status {
	case leave.PolicyStatusDraft, leave.PolicyStatusInactive:
		return nil
	}
	return leave.ErrPolicyImmutable
}

func (a *ActivationService) CanRetire(policy leave.LeavePolicy) error {
	if policy.Status == leave.PolicyStatusRetired {
		return leave.ErrPolicyAlreadyRetired
	}
	_, err := policy.Status.Next(leave.PolicyEventRetire)
	return err
}
