package activitylog

import (
	"context"
	"time"
)

const (
	EntityLeavePolicy  = "leave_policy"
	EntityLeaveBalance = "leave_balance"
	EntityLeaveRequest = "leave_request"
	// EntityBalanceRun marks batch generation entries; EntityID is 0.
	EntityBalanceRun = "leave_balance_run"
)

// Entry is one audit record written per successful mutation.
type Entry struct {
	ID            int64
	UserID        *int64
	Action        string
	EntityType    string
	EntityID      int64
	Details       map[string]interface{}
	CorrelationID string
	CreatedAt     time.Time
}

type Repository interface {
	Create(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]Entry, error)
}

type correlationKey struct{}

// WithCorrelationID attaches the id that ties audit entries to the originating call.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
