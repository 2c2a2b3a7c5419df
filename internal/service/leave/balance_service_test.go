package leave

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBalance(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(nil)

	created, err := f.svc.CreateBalance(context.Background(), leave.CreateBalanceRequest{
		EmployeeID:       7,
		LeaveTypeID:      1,
		PolicyID:         policy.ID,
		Year:             " 2025 ",
		BeginningBalance: dec("2"),
		Earned:           dec("10"),
		Used:             dec("3"),
	}, adminID)
	require.NoError(t, err)

	assert.Equal(t, "2025", created.Year)
	assert.Equal(t, leave.BalanceStatusOpen, created.Status)
	assert.True(t, created.Remaining.Equal(dec("9")))

	t.Run("duplicate year conflicts", func(t *testing.T) {
		_, err := f.svc.CreateBalance(context.Background(), leave.CreateBalanceRequest{
			EmployeeID: 7, LeaveTypeID: 1, PolicyID: policy.ID, Year: "2025", Earned: dec("15"),
		}, adminID)
		assert.ErrorIs(t, err, leave.ErrBalanceExists)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("policy of another leave type", func(t *testing.T) {
		_, err := f.svc.CreateBalance(context.Background(), leave.CreateBalanceRequest{
			EmployeeID: 7, LeaveTypeID: 2, PolicyID: policy.ID, Year: "2025", Earned: dec("15"),
		}, adminID)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("used beyond the ledger", func(t *testing.T) {
		_, err := f.svc.CreateBalance(context.Background(), leave.CreateBalanceRequest{
			EmployeeID: 8, LeaveTypeID: 1, PolicyID: policy.ID, Year: "2025", Earned: dec("1"), Used: dec("4"),
		}, adminID)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestUpdateBalance(t *testing.T) {
	f := newFixture()
	b := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")

	t.Run("inconsistent fields violate the ledger", func(t *testing.T) {
		remaining := dec("99")
		_, err := f.svc.UpdateBalance(context.Background(), b.ID, leave.UpdateBalanceRequest{Remaining: &remaining}, adminID)

		assert.ErrorIs(t, err, leave.ErrLedgerInvariant)
		assert.True(t, apperror.IsValidation(err))
		assert.True(t, f.s.balance(b.ID).Remaining.Equal(dec("15")))
	})

	t.Run("consistent fields are written", func(t *testing.T) {
		earned, remaining := dec("20"), dec("20")
		got, err := f.svc.UpdateBalance(context.Background(), b.ID, leave.UpdateBalanceRequest{Earned: &earned, Remaining: &remaining}, adminID)
		require.NoError(t, err)
		assert.True(t, got.Remaining.Equal(dec("20")))
		assert.True(t, got.Remaining.Equal(got.ExpectedRemaining()))
	})

	t.Run("empty update", func(t *testing.T) {
		_, err := f.svc.UpdateBalance(context.Background(), b.ID, leave.UpdateBalanceRequest{}, adminID)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestAdjustBalance(t *testing.T) {
	f := newFixture()
	b := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")

	got, err := f.svc.AdjustBalance(context.Background(), b.ID, leave.AdjustBalanceRequest{Days: dec("2.5"), Remarks: strPtr("anniversary")}, adminID)
	require.NoError(t, err)

	assert.True(t, got.Earned.Equal(dec("17.5")))
	assert.True(t, got.Remaining.Equal(dec("17.5")))
	txns := f.s.transactionsFor(b.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, leave.TransactionTypeAdjustment, txns[0].Type)
	assert.True(t, txns[0].Days.Equal(dec("2.5")))
	require.NotNil(t, txns[0].CreatedBy)
	assert.Equal(t, adminID, *txns[0].CreatedBy)

	t.Run("cannot go below zero", func(t *testing.T) {
		_, err := f.svc.AdjustBalance(context.Background(), b.ID, leave.AdjustBalanceRequest{Days: dec("-20")}, adminID)
		assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
		assert.Len(t, f.s.transactionsFor(b.ID), 1)
	})

	t.Run("zero is rejected", func(t *testing.T) {
		_, err := f.svc.AdjustBalance(context.Background(), b.ID, leave.AdjustBalanceRequest{Days: dec("0")}, adminID)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("more than two decimals is rejected", func(t *testing.T) {
		_, err := f.svc.AdjustBalance(context.Background(), b.ID, leave.AdjustBalanceRequest{Days: dec("0.125")}, adminID)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestEncashBalance(t *testing.T) {
	f := newFixture()
	b := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")

	got, err := f.svc.EncashBalance(context.Background(), b.ID, leave.EncashBalanceRequest{Days: dec("2")}, adminID)
	require.NoError(t, err)

	assert.True(t, got.Encashed.Equal(dec("2")))
	assert.True(t, got.Remaining.Equal(dec("13")))
	txns := f.s.transactionsFor(b.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, leave.TransactionTypeEncashment, txns[0].Type)
	assert.True(t, txns[0].Days.Equal(dec("-2")))

	t.Run("limit is cumulative", func(t *testing.T) {
		_, err := f.svc.EncashBalance(context.Background(), b.ID, leave.EncashBalanceRequest{Days: dec("1.5")}, adminID)
		assert.ErrorIs(t, err, leave.ErrEncashLimitExceeded)
		assert.True(t, f.s.balance(b.ID).Encashed.Equal(dec("2")))
	})

	t.Run("exact limit is allowed", func(t *testing.T) {
		got, err := f.svc.EncashBalance(context.Background(), b.ID, leave.EncashBalanceRequest{Days: dec("1")}, adminID)
		require.NoError(t, err)
		assert.True(t, got.Encashed.Equal(dec("3")))
	})
}

func TestCarryOverBalance(t *testing.T) {
	t.Run("creates the target year from the entitlement", func(t *testing.T) {
		f := newFixture()
		source := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")

		target, err := f.svc.CarryOverBalance(context.Background(), source.ID, leave.CarryOverRequest{TargetYear: "2026"}, adminID)
		require.NoError(t, err)

		assert.Equal(t, "2026", target.Year)
		assert.True(t, target.Earned.Equal(dec("15")))
		assert.True(t, target.CarriedOver.Equal(dec("5")))
		assert.True(t, target.Remaining.Equal(dec("20")))
		assert.Equal(t, leave.BalanceStatusClosed, f.s.balance(source.ID).Status)

		txns := f.s.transactionsFor(target.ID)
		require.Len(t, txns, 1)
		assert.Equal(t, leave.TransactionTypeCarry, txns[0].Type)
		assert.True(t, txns[0].Days.Equal(dec("5")))
	})

	t.Run("carries the remaining days when below the limit", func(t *testing.T) {
		f := newFixture()
		policy := f.seedPolicy(nil)
		source := f.seedBalance(policy, 7, "2025", "3")
		existing := f.seedBalance(policy, 7, "2026", "15")

		target, err := f.svc.CarryOverBalance(context.Background(), source.ID, leave.CarryOverRequest{TargetYear: "2026"}, adminID)
		require.NoError(t, err)

		assert.Equal(t, existing.ID, target.ID)
		assert.True(t, target.CarriedOver.Equal(dec("3")))
		assert.True(t, target.Remaining.Equal(dec("18")))
	})

	t.Run("target beyond the carry window", func(t *testing.T) {
		f := newFixture()
		source := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")

		_, err := f.svc.CarryOverBalance(context.Background(), source.ID, leave.CarryOverRequest{TargetYear: "2027"}, adminID)

		assert.ErrorIs(t, err, leave.ErrCarryOverNotAllowed)
		assert.Equal(t, leave.BalanceStatusOpen, f.s.balance(source.ID).Status)
		assert.Len(t, f.s.balances, 1)
	})

	t.Run("same year", func(t *testing.T) {
		f := newFixture()
		source := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")

		_, err := f.svc.CarryOverBalance(context.Background(), source.ID, leave.CarryOverRequest{TargetYear: "2025"}, adminID)
		assert.ErrorIs(t, err, leave.ErrCarryOverNotAllowed)
	})

	t.Run("target that cannot take credits", func(t *testing.T) {
		tests := []struct {
			name  string
			setup func(f *fixture, id int64) error
		}{
			{"closed", func(f *fixture, id int64) error {
				_, err := f.svc.TransitionBalance(context.Background(), id, leave.BalanceEventClose, adminID)
				return err
			}},
			{"archived", func(f *fixture, id int64) error {
				return f.svc.ArchiveBalance(context.Background(), id, adminID)
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				policy := f.seedPolicy(nil)
				source := f.seedBalance(policy, 7, "2025", "15")
				existing := f.seedBalance(policy, 7, "2026", "15")
				require.NoError(t, tt.setup(f, existing.ID))

				_, err := f.svc.CarryOverBalance(context.Background(), source.ID, leave.CarryOverRequest{TargetYear: "2026"}, adminID)

				assert.ErrorIs(t, err, leave.ErrBalanceNotUsable)
				assert.True(t, apperror.IsConflict(err))
				assert.True(t, f.s.balance(existing.ID).CarriedOver.IsZero())
				assert.Empty(t, f.s.transactionsFor(existing.ID))
				assert.Equal(t, leave.BalanceStatusOpen, f.s.balance(source.ID).Status)
			})
		}
	})

	t.Run("closed source", func(t *testing.T) {
		f := newFixture()
		source := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")
		_, err := f.svc.TransitionBalance(context.Background(), source.ID, leave.BalanceEventClose, adminID)
		require.NoError(t, err)

		_, err = f.svc.CarryOverBalance(context.Background(), source.ID, leave.CarryOverRequest{TargetYear: "2026"}, adminID)
		assert.ErrorIs(t, err, leave.ErrBalanceNotUsable)
	})
}

func TestTransitionBalance(t *testing.T) {
	f := newFixture()
	b := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")

	closed, err := f.svc.TransitionBalance(context.Background(), b.ID, leave.BalanceEventClose, adminID)
	require.NoError(t, err)
	assert.Equal(t, leave.BalanceStatusClosed, closed.Status)

	_, err = f.svc.CreateLeaveRequest(context.Background(), leave.CreateLeaveRequestRequest{
		EmployeeID: 7, LeaveTypeID: 1, BalanceID: b.ID,
		StartDate: "2025-01-06", EndDate: "2025-01-06", TotalDays: dec("1"), Reason: "x",
	}, 7)
	assert.ErrorIs(t, err, leave.ErrBalanceNotUsable)

	reopened, err := f.svc.TransitionBalance(context.Background(), b.ID, leave.BalanceEventReopen, adminID)
	require.NoError(t, err)
	assert.Equal(t, leave.BalanceStatusReopened, reopened.Status)
	createRequest(t, f, b, "2025-01-06", "2025-01-06", "1")

	_, err = f.svc.TransitionBalance(context.Background(), b.ID, leave.BalanceEventFinalize, adminID)
	assert.True(t, apperror.IsConflict(err))

	_, err = f.svc.TransitionBalance(context.Background(), b.ID, leave.BalanceEventClose, adminID)
	require.NoError(t, err)
	finalized, err := f.svc.TransitionBalance(context.Background(), b.ID, leave.BalanceEventFinalize, adminID)
	require.NoError(t, err)
	assert.Equal(t, leave.BalanceStatusFinalized, finalized.Status)

	_, err = f.svc.TransitionBalance(context.Background(), b.ID, leave.BalanceEventReopen, adminID)
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
}

func TestArchiveBalance(t *testing.T) {
	f := newFixture()
	b := f.seedBalance(f.seedPolicy(nil), 7, "2025", "15")
	req := createRequest(t, f, b, "2025-01-06", "2025-01-07", "2")
	_, err := f.svc.ApproveLeaveRequest(context.Background(), req.ID, review(leave.RequestStatusApproved))
	require.NoError(t, err)

	require.NoError(t, f.svc.ArchiveBalance(context.Background(), b.ID, adminID))
	assert.ErrorIs(t, f.svc.ArchiveBalance(context.Background(), b.ID, adminID), leave.ErrAlreadyArchived)

	_, err = f.svc.AdjustBalance(context.Background(), b.ID, leave.AdjustBalanceRequest{Days: dec("1")}, adminID)
	assert.ErrorIs(t, err, leave.ErrAlreadyArchived)

	t.Run("cancelling against an archived balance is refused", func(t *testing.T) {
		_, err := f.svc.CancelLeaveRequest(context.Background(), req.ID, review(leave.RequestStatusCancelled))
		assert.ErrorIs(t, err, leave.ErrAlreadyArchived)
		assert.Equal(t, leave.RequestStatusApproved, f.s.request(req.ID).Status)
	})

	require.NoError(t, f.svc.RestoreBalance(context.Background(), b.ID, adminID))
	assert.ErrorIs(t, f.svc.RestoreBalance(context.Background(), b.ID, adminID), leave.ErrNotArchived)

	_, err = f.svc.CancelLeaveRequest(context.Background(), req.ID, review(leave.RequestStatusCancelled))
	require.NoError(t, err)
	assert.True(t, f.s.balance(b.ID).Remaining.Equal(dec("15")))
}

func TestGetBalanceDetail(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(nil)
	b := f.seedBalance(policy, 7, "2025", "15")

	empty, err := f.svc.GetBalanceDetail(context.Background(), b.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty.Transactions)
	assert.NotNil(t, empty.Requests)
	assert.Empty(t, empty.Transactions)

	req := createRequest(t, f, b, "2025-01-06", "2025-01-07", "2")
	_, err = f.svc.ApproveLeaveRequest(context.Background(), req.ID, review(leave.RequestStatusApproved))
	require.NoError(t, err)

	detail, err := f.svc.GetBalanceDetail(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, detail.Balance.Remaining.Equal(dec("13")))
	require.NotNil(t, detail.Policy)
	assert.Equal(t, policy.ID, detail.Policy.ID)
	assert.Len(t, detail.Transactions, 1)
	require.Len(t, detail.Requests, 1)
	assert.Equal(t, req.ID, detail.Requests[0].ID)

	_, err = f.svc.GetBalanceDetail(context.Background(), 404)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListTransactionsAndBalances(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(nil)
	b := f.seedBalance(policy, 7, "2025", "15")
	f.seedBalance(policy, 8, "2025", "15")

	txns, err := f.svc.ListTransactions(context.Background(), b.ID)
	require.NoError(t, err)
	assert.NotNil(t, txns)
	assert.Empty(t, txns)

	_, err = f.svc.ListTransactions(context.Background(), 404)
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)

	employeeID := int64(7)
	page, err := f.svc.ListBalances(context.Background(), leave.BalanceFilter{EmployeeID: &employeeID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, b.ID, page.Items[0].ID)
	assert.Equal(t, int64(1), page.TotalCount)
}
