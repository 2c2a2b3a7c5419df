package leave

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

// store is an in-memory database shared by the fake repositories.
type store struct {
	mu sync.Mutex

	leaveTypes   map[int64]string
	policies     map[int64]leave.LeavePolicy
	balances     map[int64]leave.LeaveBalance
	requests     map[int64]leave.LeaveRequest
	transactions []leave.LeaveTransaction
	entries      []activitylog.Entry
	employees    []employee.EligibleEmployee
	locked       []int64
	nextID       int64

	failBulkCreate error
	failAudit      error
	failLock       error
}

type snapshot struct {
	policies     map[int64]leave.LeavePolicy
	balances     map[int64]leave.LeaveBalance
	requests     map[int64]leave.LeaveRequest
	transactions []leave.LeaveTransaction
	entries      []activitylog.Entry
}

func newStore() *store {
	return &store{
		leaveTypes: map[int64]string{1: "Vacation Leave", 2: "Sick Leave"},
		policies:   map[int64]leave.LeavePolicy{},
		balances:   map[int64]leave.LeaveBalance{},
		requests:   map[int64]leave.LeaveRequest{},
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		policies:     make(map[int64]leave.LeavePolicy, len(s.policies)),
		balances:     make(map[int64]leave.LeaveBalance, len(s.balances)),
		requests:     make(map[int64]leave.LeaveRequest, len(s.requests)),
		transactions: append([]leave.LeaveTransaction(nil), s.transactions...),
		entries:      append([]activitylog.Entry(nil), s.entries...),
	}
	for k, v := range s.policies {
		snap.policies[k] = v
	}
	for k, v := range s.balances {
		snap.balances[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	return snap
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = snap.policies
	s.balances = snap.balances
	s.requests = snap.requests
	s.transactions = snap.transactions
	s.entries = snap.entries
}

func (s *store) transactionsFor(balanceID int64) []leave.LeaveTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []leave.LeaveTransaction
	for _, t := range s.transactions {
		if t.BalanceID == balanceID {
			out = append(out, t)
		}
	}
	return out
}

func (s *store) balance(id int64) leave.LeaveBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[id]
}

func (s *store) request(id int64) leave.LeaveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

func (s *store) policy(id int64) leave.LeavePolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policies[id]
}

// fakeTransactor serialises transactions, which stands in for row locks, and
// restores the store when fn fails.
type fakeTransactor struct {
	mu      sync.Mutex
	s       *store
	actions []string
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)

	snap := f.s.snapshot()
	if err := fn(ctx); err != nil {
		f.s.restore(snap)
		return err
	}
	return nil
}

// ---- policies ----

type fakePolicyRepo struct{ s *store }

func (r *fakePolicyRepo) Create(ctx context.Context, p leave.LeavePolicy) (leave.LeavePolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	name, ok := r.s.leaveTypes[p.LeaveTypeID]
	if !ok {
		return leave.LeavePolicy{}, leave.ErrLeaveTypeNotFound
	}
	p.ID = r.s.id()
	p.LeaveTypeName = name
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.s.policies[p.ID] = p
	return p, nil
}

func (r *fakePolicyRepo) GetByID(ctx context.Context, id int64) (leave.LeavePolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.policies[id]
	if !ok {
		return leave.LeavePolicy{}, leave.ErrPolicyNotFound
	}
	return p, nil
}

func (r *fakePolicyRepo) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeavePolicy, error) {
	return r.GetByID(ctx, id)
}

func (r *fakePolicyRepo) List(ctx context.Context, filter leave.PolicyFilter) ([]leave.LeavePolicy, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.LeavePolicy
	for _, p := range r.s.policies {
		if filter.LeaveTypeID != nil && p.LeaveTypeID != *filter.LeaveTypeID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if !filter.IncludeArchived && p.IsArchived() {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *fakePolicyRepo) Update(ctx context.Context, p leave.LeavePolicy, expected leave.PolicyStatus) (leave.LeavePolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.policies[p.ID]
	if !ok || current.Status != expected || current.IsArchived() {
		return leave.LeavePolicy{}, leave.ErrPolicyStale
	}
	p.Status = current.Status
	p.UpdatedAt = time.Now()
	r.s.policies[p.ID] = p
	return p, nil
}

func (r *fakePolicyRepo) UpdateStatus(ctx context.Context, id int64, from, to leave.PolicyStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.policies[id]
	if !ok || current.Status != from {
		return leave.ErrPolicyStale
	}
	if to == leave.PolicyStatusActive {
		for _, other := range r.s.policies {
			if other.ID != id && other.LeaveTypeID == current.LeaveTypeID && other.Status == leave.PolicyStatusActive {
				return leave.ErrActivePolicyExists
			}
		}
	}
	current.Status = to
	r.s.policies[id] = current
	return nil
}

func (r *fakePolicyRepo) SetArchived(ctx context.Context, id int64, archivedAt *time.Time, archivedBy *int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.policies[id]
	if !ok || current.IsArchived() == (archivedAt != nil) {
		return leave.ErrPolicyStale
	}
	current.ArchivedAt = archivedAt
	current.ArchivedBy = archivedBy
	r.s.policies[id] = current
	return nil
}

func (r *fakePolicyRepo) GetActiveByLeaveTypeForUpdate(ctx context.Context, leaveTypeID int64) (*leave.LeavePolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.policies {
		if p.LeaveTypeID == leaveTypeID && p.Status == leave.PolicyStatusActive {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakePolicyRepo) RetrieveActivePolicies(ctx context.Context) ([]leave.LeavePolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.LeavePolicy
	for _, p := range r.s.policies {
		if p.Status == leave.PolicyStatusActive && !p.IsArchived() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveTypeID < out[j].LeaveTypeID })
	return out, nil
}

// ---- balances ----

type fakeBalanceRepo struct{ s *store }

func (r *fakeBalanceRepo) exists(b leave.LeaveBalance) bool {
	for _, other := range r.s.balances {
		if other.EmployeeID == b.EmployeeID && other.LeaveTypeID == b.LeaveTypeID && other.Year == b.Year {
			return true
		}
	}
	return false
}

func (r *fakeBalanceRepo) insert(b leave.LeaveBalance) leave.LeaveBalance {
	b.ID = r.s.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.s.balances[b.ID] = b
	return b
}

func (r *fakeBalanceRepo) Create(ctx context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.exists(b) {
		return leave.LeaveBalance{}, leave.ErrBalanceExists
	}
	return r.insert(b), nil
}

func (r *fakeBalanceRepo) BulkCreate(ctx context.Context, balances []leave.LeaveBalance) ([]leave.LeaveBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var created []leave.LeaveBalance
	for _, b := range balances {
		if r.exists(b) {
			continue
		}
		created = append(created, r.insert(b))
	}
	if r.s.failBulkCreate != nil {
		return nil, r.s.failBulkCreate
	}
	return created, nil
}

func (r *fakeBalanceRepo) GetByID(ctx context.Context, id int64) (leave.LeaveBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.balances[id]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

func (r *fakeBalanceRepo) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeaveBalance, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBalanceRepo) FindByEmployeeTypeYearForUpdate(ctx context.Context, employeeID, leaveTypeID int64, year string) (*leave.LeaveBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.balances {
		if b.EmployeeID == employeeID && b.LeaveTypeID == leaveTypeID && b.Year == year {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeBalanceRepo) List(ctx context.Context, filter leave.BalanceFilter) ([]leave.LeaveBalance, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.LeaveBalance
	for _, b := range r.s.balances {
		if filter.EmployeeID != nil && b.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Year != nil && b.Year != *filter.Year {
			continue
		}
		if !filter.IncludeArchived && b.IsArchived() {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *fakeBalanceRepo) Update(ctx context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.balances[b.ID]
	if !ok || current.IsArchived() {
		return leave.LeaveBalance{}, fmt.Errorf("update leave balance %d: %w", b.ID, leave.ErrWriteNotApplied)
	}
	b.Status = current.Status
	b.UpdatedAt = time.Now()
	r.s.balances[b.ID] = b
	return b, nil
}

func (r *fakeBalanceRepo) UpdateStatus(ctx context.Context, id int64, from, to leave.BalanceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.balances[id]
	if !ok || current.Status != from || current.IsArchived() {
		return leave.ErrWriteNotApplied
	}
	current.Status = to
	r.s.balances[id] = current
	return nil
}

func (r *fakeBalanceRepo) SetArchived(ctx context.Context, id int64, archivedAt *time.Time, archivedBy *int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.balances[id]
	if !ok || current.IsArchived() == (archivedAt != nil) {
		return leave.ErrWriteNotApplied
	}
	current.ArchivedAt = archivedAt
	current.ArchivedBy = archivedBy
	r.s.balances[id] = current
	return nil
}

// ---- requests ----

type fakeRequestRepo struct{ s *store }

func (r *fakeRequestRepo) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = r.s.id()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.s.requests[req.ID] = req
	return req, nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id int64) (leave.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.LeaveRequest
	for _, req := range r.s.requests {
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *fakeRequestRepo) ListByBalanceID(ctx context.Context, balanceID int64) ([]leave.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.LeaveRequest
	for _, req := range r.s.requests {
		if req.BalanceID == balanceID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRequestRepo) Update(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.requests[req.ID]
	if !ok || current.Status != leave.RequestStatusPending {
		return leave.LeaveRequest{}, leave.ErrRequestStale
	}
	req.UpdatedAt = time.Now()
	r.s.requests[req.ID] = req
	return req, nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, req leave.LeaveRequest, from leave.RequestStatus) (leave.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.requests[req.ID]
	if !ok || current.Status != from {
		return leave.LeaveRequest{}, leave.ErrRequestStale
	}
	req.UpdatedAt = time.Now()
	r.s.requests[req.ID] = req
	return req, nil
}

func (r *fakeRequestRepo) FindOverlappingRequests(ctx context.Context, employeeID int64, start, end time.Time, excludeID *int64) ([]leave.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.LeaveRequest
	for _, req := range r.s.requests {
		if req.EmployeeID != employeeID || req.Status != leave.RequestStatusApproved {
			continue
		}
		if excludeID != nil && req.ID == *excludeID {
			continue
		}
		if req.Overlaps(start, end) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- transactions, employees, audit ----

type fakeTransactionRepo struct{ s *store }

func (r *fakeTransactionRepo) Create(ctx context.Context, t leave.LeaveTransaction) (leave.LeaveTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id()
	t.CreatedAt = time.Now()
	r.s.transactions = append(r.s.transactions, t)
	return t, nil
}

func (r *fakeTransactionRepo) ListByBalanceID(ctx context.Context, balanceID int64) ([]leave.LeaveTransaction, error) {
	return r.s.transactionsFor(balanceID), nil
}

type fakeEmployeeRepo struct{ s *store }

func (r *fakeEmployeeRepo) GetEmployeesEligibleForLeave(ctx context.Context, filter employee.EligibilityFilter) ([]employee.EligibleEmployee, error) {
	var out []employee.EligibleEmployee
	for _, e := range r.s.employees {
		if validator.ContainsFold(e.EmploymentType, filter.EmploymentTypes) && validator.ContainsFold(e.EmploymentStatus, filter.EmploymentStatuses) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) LockForLeave(ctx context.Context, employeeID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failLock != nil {
		return r.s.failLock
	}
	r.s.locked = append(r.s.locked, employeeID)
	return nil
}

type fakeActivityRepo struct{ s *store }

func (r *fakeActivityRepo) Create(ctx context.Context, entry activitylog.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAudit != nil {
		return r.s.failAudit
	}
	entry.ID = r.s.id()
	r.s.entries = append(r.s.entries, entry)
	return nil
}

func (r *fakeActivityRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]activitylog.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []activitylog.Entry
	for _, e := range r.s.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	// newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ---- fixture ----

var fixedNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

type fixture struct {
	s          *store
	transactor *fakeTransactor
	svc        *LeaveServiceImpl
}

func newFixture() *fixture {
	s := newStore()
	transactor := &fakeTransactor{s: s}
	svc := NewLeaveService(
		transactor,
		&fakePolicyRepo{s: s},
		&fakeBalanceRepo{s: s},
		&fakeRequestRepo{s: s},
		&fakeTransactionRepo{s: s},
		&fakeEmployeeRepo{s: s},
		&fakeActivityRepo{s: s},
	)
	svc.now = func() time.Time { return fixedNow }
	return &fixture{s: s, transactor: transactor, svc: svc}
}

// seedPolicy stores an ACTIVE Vacation Leave policy granting 15 days.
func (f *fixture) seedPolicy(mutate func(p *leave.LeavePolicy)) leave.LeavePolicy {
	p := leave.LeavePolicy{
		LeaveTypeID:             1,
		AnnualEntitlement:       dec("15"),
		CarryLimit:              dec("5"),
		EncashLimit:             dec("3"),
		CarriedOverYears:        1,
		AllowedEmploymentTypes:  []string{},
		AllowedEmployeeStatuses: []string{},
		ExcludedWeekdays:        []int{},
		Status:                  leave.PolicyStatusActive,
	}
	if mutate != nil {
		mutate(&p)
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.ID = f.s.id()
	p.LeaveTypeName = f.s.leaveTypes[p.LeaveTypeID]
	f.s.policies[p.ID] = p
	return p
}

// seedBalance stores an OPEN balance with earned = remaining = earned.
func (f *fixture) seedBalance(policy leave.LeavePolicy, employeeID int64, year, earned string) leave.LeaveBalance {
	b, err := leave.NewLeaveBalance(leave.BalanceParams{
		EmployeeID:  employeeID,
		LeaveTypeID: policy.LeaveTypeID,
		PolicyID:    policy.ID,
		Year:        year,
		Earned:      dec(earned),
	})
	if err != nil {
		panic(err)
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b.ID = f.s.id()
	f.s.balances[b.ID] = b
	return b
}

func (f *fixture) addEmployee(id int64, name, employmentType, status string, hired time.Time) {
	parts := strings.SplitN(name, " ", 2)
	e := employee.EligibleEmployee{
		ID:               id,
		FirstName:        parts[0],
		EmploymentType:   employmentType,
		EmploymentStatus: status,
		HireDate:         hired,
	}
	if len(parts) == 2 {
		e.LastName = parts[1]
	}
	f.s.employees = append(f.s.employees, e)
}
