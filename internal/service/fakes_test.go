package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/domain/address"
	"github.com/bukcare/bukcare-api/internal/domain/invitation"
	"github.com/bukcare/bukcare-api/internal/domain/otp"
	"github.com/bukcare/bukcare-api/pkg/mailer"
	"github.com/bukcare/bukcare-api/pkg/metrics"
)

// The prometheus default registry panics on duplicate registration, so the
// whole test binary shares one collector.
var (
	collectorOnce sync.Once
	collector     *metrics.Collector
)

func testCollector() *metrics.Collector {
	collectorOnce.Do(func() {
		collector = metrics.NewCollector("test")
	})
	return collector
}

func testRecorder(t *testing.T, repo ActivityRepository) *ActivityRecorder {
	t.Helper()
	rec := NewActivityRecorder(repo, testCollector(), zap.NewNop())
	t.Cleanup(rec.Shutdown)
	return rec
}

type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	createErr error
	attempts  []bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.Email] = u
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.users[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	u.ID = uuid.New()
	r.users[u.Email] = u
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	return ok, nil
}

func (r *fakeUserRepo) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, success)
	return nil
}

func (r *fakeUserRepo) CountByType(ctx context.Context, t domain.UserType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.UserType == t {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.LastLoginAt != nil && !u.LastLoginAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	q := strings.ToLower(query)
	for _, u := range r.users {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeOTPRepo struct {
	mu   sync.Mutex
	rows []*otp.Verification
}

func (r *fakeOTPRepo) Create(ctx context.Context, v *otp.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	r.rows = append(r.rows, v)
	return nil
}

func (r *fakeOTPRepo) LatestUnused(ctx context.Context, email, code string) (*otp.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *otp.Verification
	for _, v := range r.rows {
		if v.Email == email && v.Code == code && !v.Used {
			if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
				latest = v
			}
		}
	}
	if latest == nil {
		return nil, otp.ErrNotFound
	}
	return latest, nil
}

func (r *fakeOTPRepo) MarkUsed(ctx context.Context, v *otp.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.Used = true
	return nil
}

func (r *fakeOTPRepo) InvalidateUnused(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.Email == email && !v.Used {
			v.Used = true
		}
	}
	return nil
}

func (r *fakeOTPRepo) InvalidateAll(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.Email == email {
			v.Used = true
		}
	}
	return nil
}

func (r *fakeOTPRepo) HasUsed(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.Email == email && v.Used {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOTPRepo) Delete(ctx context.Context, v *otp.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == v.ID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeOTPRepo) unused(email string) []*otp.Verification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*otp.Verification
	for _, v := range r.rows {
		if v.Email == email && !v.Used {
			out = append(out, v)
		}
	}
	return out
}

type fakeAddressRepo struct {
	mu        sync.Mutex
	provinces map[string]uint
	cities    map[string]uint
	addresses uint
	upsertErr error
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{provinces: make(map[string]uint), cities: make(map[string]uint)}
}

func (r *fakeAddressRepo) Upsert(ctx context.Context, cmd *address.UpsertAddressCommand) (*address.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	if _, ok := r.provinces[cmd.Province]; !ok {
		r.provinces[cmd.Province] = uint(len(r.provinces) + 1)
	}
	cityKey := cmd.CityMunicipality + "|" + cmd.Province
	if _, ok := r.cities[cityKey]; !ok {
		r.cities[cityKey] = uint(len(r.cities) + 1)
	}
	r.addresses++
	return &address.Address{
		ID:                 r.addresses,
		Street:             cmd.Street,
		Barangay:           cmd.Barangay,
		CityMunicipalityID: r.cities[cityKey],
	}, nil
}

func (r *fakeAddressRepo) ListProvinces(ctx context.Context) ([]*address.Province, error) {
	return nil, nil
}

func (r *fakeAddressRepo) ListCities(ctx context.Context, provinceID *uint) ([]*address.CityMunicipality, error) {
	return nil, nil
}

func (r *fakeAddressRepo) LocationTree(ctx context.Context) ([]*address.ProvinceNode, error) {
	return nil, nil
}

type fakeInvitationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*invitation.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{rows: make(map[uuid.UUID]*invitation.Invitation)}
}

func (r *fakeInvitationRepo) Create(ctx context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Email == inv.Email && existing.Role == inv.Role {
			return invitation.ErrAlreadyInvited
		}
	}
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	r.rows[inv.ID] = inv
	return nil
}

func (r *fakeInvitationRepo) GetPending(ctx context.Context, id uuid.UUID) (*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.rows[id]
	if !ok || inv.Status != invitation.StatusPending {
		return nil, invitation.ErrNotFound
	}
	return inv, nil
}

func (r *fakeInvitationRepo) Update(ctx context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[inv.ID]; !ok {
		return invitation.ErrNotFound
	}
	r.rows[inv.ID] = inv
	return nil
}

func (r *fakeInvitationRepo) Delete(ctx context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, inv.ID)
	return nil
}

func (r *fakeInvitationRepo) ListPending(ctx context.Context) ([]*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invitation.Invitation
	for _, inv := range r.rows {
		if inv.Status == invitation.StatusPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) CountPending(ctx context.Context) (int64, error) {
	invs, _ := r.ListPending(ctx)
	return int64(len(invs)), nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []*domain.SystemActivity
}

func (r *fakeActivityRepo) Create(ctx context.Context, a *domain.SystemActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, a)
	return nil
}

func (r *fakeActivityRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SystemActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.SystemActivity, len(r.entries))
	copy(out, r.entries)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeActivityRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) lastMessage() mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}
