package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clubdesk/internal/domain/goal"
	"clubdesk/internal/domain/identity"
	"clubdesk/internal/domain/invite"
	"clubdesk/internal/domain/membership"
	"clubdesk/internal/domain/outbox"
	"clubdesk/internal/domain/profile"
	"clubdesk/internal/domain/record"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// seqID returns a generator producing test-id-001, test-id-002, ...
func seqID() func() string {
	n := 0
	return func() string {
		n++
		return "test-id-00" + string(rune('0'+n))
	}
}

// --- identity store mock ---

// mockIdentityStore implements the identity-provider interfaces used
// across the orchestrators.
type mockIdentityStore struct {
	ids map[string]identity.Identity

	failGetClaims   bool
	failSetClaims   bool
	failClearClaims bool
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{ids: make(map[string]identity.Identity)}
}

func (m *mockIdentityStore) GetByID(_ context.Context, id string) (identity.Identity, error) {
	v, ok := m.ids[id]
	if !ok {
		return identity.Identity{}, sql.ErrNoRows
	}
	return v, nil
}

func (m *mockIdentityStore) GetByEmail(_ context.Context, email string) (identity.Identity, error) {
	for _, v := range m.ids {
		if strings.EqualFold(v.Email, email) {
			return v, nil
		}
	}
	return identity.Identity{}, sql.ErrNoRows
}

func (m *mockIdentityStore) Save(_ context.Context, v identity.Identity) error {
	m.ids[v.ID] = v
	return nil
}

func (m *mockIdentityStore) Count(_ context.Context) (int, error) {
	return len(m.ids), nil
}

func (m *mockIdentityStore) GetClaims(_ context.Context, id string) (map[string]any, error) {
	if m.failGetClaims {
		return nil, errors.New("claims store unavailable")
	}
	v, ok := m.ids[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := make(map[string]any, len(v.Claims))
	for k, val := range v.Claims {
		out[k] = val
	}
	return out, nil
}

func (m *mockIdentityStore) SetClaims(_ context.Context, id string, patch map[string]any) error {
	if m.failSetClaims {
		return errors.New("claims store unavailable")
	}
	v, ok := m.ids[id]
	if !ok {
		return sql.ErrNoRows
	}
	v.MergeClaims(patch)
	m.ids[id] = v
	return nil
}

func (m *mockIdentityStore) ClearClaims(_ context.Context, id string, keys ...string) error {
	if m.failClearClaims {
		return errors.New("claims store unavailable")
	}
	v, ok := m.ids[id]
	if !ok {
		return sql.ErrNoRows
	}
	v.ClearClaims(keys...)
	m.ids[id] = v
	return nil
}

// --- profile store mock ---

type mockProfileStore struct {
	profiles map[string]profile.UserProfile
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: make(map[string]profile.UserProfile)}
}

func (m *mockProfileStore) GetByID(_ context.Context, userID string) (profile.UserProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return profile.UserProfile{}, sql.ErrNoRows
	}
	return p, nil
}

// --- membership store mock ---

type mockMembershipStore struct {
	memberships map[string]membership.Membership
	profiles    map[string]profile.UserProfile
	failUpsert  bool
}

func newMockMembershipStore() *mockMembershipStore {
	return &mockMembershipStore{
		memberships: make(map[string]membership.Membership),
		profiles:    make(map[string]profile.UserProfile),
	}
}

func membershipKey(clubID, userID string) string { return clubID + "/" + userID }

func (m *mockMembershipStore) UpsertWithProfile(_ context.Context, mem membership.Membership, p profile.UserProfile) error {
	if m.failUpsert {
		return errors.New("membership store unavailable")
	}
	key := membershipKey(mem.ClubID, mem.UserID)
	if existing, ok := m.memberships[key]; ok {
		mem.JoinedAt = existing.JoinedAt
	}
	m.memberships[key] = mem
	if existing, ok := m.profiles[p.UserID]; ok {
		p.Email = existing.Email
		p.CreatedAt = existing.CreatedAt
	}
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockMembershipStore) RemoveWithProfile(_ context.Context, clubID, userID, resetRole string, _ time.Time) error {
	delete(m.memberships, membershipKey(clubID, userID))
	if p, ok := m.profiles[userID]; ok {
		p.Role = resetRole
		p.TeamID = ""
		m.profiles[userID] = p
	}
	return nil
}

// --- invite store mock ---

type mockInviteStore struct {
	invites map[string]invite.Invite
}

func newMockInviteStore() *mockInviteStore {
	return &mockInviteStore{invites: make(map[string]invite.Invite)}
}

func inviteKey(clubID, id string) string { return clubID + "/" + id }

func (m *mockInviteStore) GetByID(_ context.Context, clubID, id string) (invite.Invite, error) {
	inv, ok := m.invites[inviteKey(clubID, id)]
	if !ok {
		return invite.Invite{}, sql.ErrNoRows
	}
	return inv, nil
}

func (m *mockInviteStore) Save(_ context.Context, v invite.Invite) error {
	m.invites[inviteKey(v.ClubID, v.ID)] = v
	return nil
}

func (m *mockInviteStore) ListByClub(_ context.Context, clubID string) ([]invite.Invite, error) {
	var out []invite.Invite
	for _, inv := range m.invites {
		if inv.ClubID == clubID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInviteStore) ListPendingByEmail(_ context.Context, email string) ([]invite.Invite, error) {
	var out []invite.Invite
	for _, inv := range m.invites {
		if inv.IsPending() && strings.EqualFold(inv.Email, email) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInviteStore) MarkUsedIfPending(_ context.Context, clubID, id string, usedAt time.Time) (bool, error) {
	key := inviteKey(clubID, id)
	inv, ok := m.invites[key]
	if !ok || !inv.IsPending() {
		return false, nil
	}
	inv.Status = invite.StatusUsed
	inv.UsedAt = usedAt
	m.invites[key] = inv
	return true, nil
}

func (m *mockInviteStore) MarkRevokedIfPending(_ context.Context, clubID, id string) (bool, error) {
	key := inviteKey(clubID, id)
	inv, ok := m.invites[key]
	if !ok || !inv.IsPending() {
		return false, nil
	}
	inv.Status = invite.StatusRevoked
	m.invites[key] = inv
	return true, nil
}

// --- outbox store mock ---

type mockOutboxStore struct {
	entries  map[string]outbox.Entry
	failSave bool
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if m.failSave {
		return errors.New("outbox store unavailable")
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.CanRetry() && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusFailed && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

// --- goal and record store mocks ---

type mockGoalStore struct {
	goals    map[string]goal.Goal
	failSave bool
}

func newMockGoalStore() *mockGoalStore {
	return &mockGoalStore{goals: make(map[string]goal.Goal)}
}

func (m *mockGoalStore) GetByID(_ context.Context, id string) (goal.Goal, error) {
	g, ok := m.goals[id]
	if !ok {
		return goal.Goal{}, sql.ErrNoRows
	}
	return g, nil
}

func (m *mockGoalStore) Save(_ context.Context, g goal.Goal) error {
	if m.failSave {
		return errors.New("goal store unavailable")
	}
	m.goals[g.ID] = g
	return nil
}

func (m *mockGoalStore) ListByAthlete(_ context.Context, athleteID, clubID string) ([]goal.Goal, error) {
	var out []goal.Goal
	for _, g := range m.goals {
		if g.AthleteID == athleteID && g.ClubID == clubID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGoalStore) ListInProgress(_ context.Context, athleteID, clubID, categoryID string) ([]goal.Goal, error) {
	var out []goal.Goal
	for _, g := range m.goals {
		if g.AthleteID == athleteID && g.ClubID == clubID && g.CategoryID == categoryID && g.IsInProgress() {
			out = append(out, g)
		}
	}
	return out, nil
}

type mockRecordStore struct {
	records map[string]record.PerformanceRecord
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{records: make(map[string]record.PerformanceRecord)}
}

func (m *mockRecordStore) GetByID(_ context.Context, id string) (record.PerformanceRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return record.PerformanceRecord{}, sql.ErrNoRows
	}
	return r, nil
}

func (m *mockRecordStore) Save(_ context.Context, r record.PerformanceRecord) error {
	m.records[r.ID] = r
	return nil
}

func (m *mockRecordStore) ListByAthlete(_ context.Context, athleteID, clubID string) ([]record.PerformanceRecord, error) {
	var out []record.PerformanceRecord
	for _, r := range m.records {
		if r.AthleteID == athleteID && r.ClubID == clubID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecordStore) BestActive(_ context.Context, athleteID, categoryID string) (record.PerformanceRecord, bool, error) {
	var best record.PerformanceRecord
	found := false
	for _, r := range m.records {
		if !r.IsActive || r.AthleteID != athleteID || r.CategoryID != categoryID {
			continue
		}
		if !found || r.Value > best.Value {
			best = r
			found = true
		}
	}
	return best, found, nil
}

func (m *mockRecordStore) SoftDelete(_ context.Context, id string) error {
	r, ok := m.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.IsActive = false
	m.records[id] = r
	return nil
}

func (m *mockRecordStore) SoftDeleteByCategory(_ context.Context, categoryID string) (int64, error) {
	var n int64
	for id, r := range m.records {
		if r.CategoryID == categoryID && r.IsActive {
			r.IsActive = false
			m.records[id] = r
			n++
		}
	}
	return n, nil
}

// seedSuper adds a super-admin identity and returns its authz deps
// together with the backing stores.
func seedSuper(store *mockIdentityStore, userID string) AuthzDeps {
	store.ids[userID] = identity.Identity{
		ID:     userID,
		Email:  userID + "@clubdesk.test",
		Status: identity.StatusActive,
		Claims: map[string]any{identity.ClaimSuperAdmin: true},
	}
	return AuthzDeps{IdentityStore: store, ProfileStore: newMockProfileStore()}
}
