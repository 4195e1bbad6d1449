package service

import (
	"context"
	"strings"
	"sync"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub admin API
// ---------------------------------------------------------------------------

type stubAdminAPI struct {
	mu sync.Mutex

	notifications []domain.Notification
	listCalls     int
	listErr       error

	readReturnsEmpty bool
	readErr          error

	decisionErr  error
	acceptGate   chan struct{} // when set, AcceptSignup blocks until it is closed
	acceptCalls  int
	accepted     []domain.ID // reqIds accepted
	rejected     map[domain.ID]string
	approvedCos  []domain.ID
	rejectedCos  map[domain.ID]string
	activeCalls  map[domain.ID]bool
	activeErr    error
	userPages    map[int]domain.UserPage
	userCalls    int
	userQueryLog []ports.UserQuery
}

func newStubAdminAPI(list ...domain.Notification) *stubAdminAPI {
	return &stubAdminAPI{
		notifications: list,
		rejected:      make(map[domain.ID]string),
		rejectedCos:   make(map[domain.ID]string),
		activeCalls:   make(map[domain.ID]bool),
		userPages:     make(map[int]domain.UserPage),
	}
}

func (a *stubAdminAPI) ListNotifications(_ context.Context) ([]domain.Notification, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	if a.listErr != nil {
		return nil, a.listErr
	}
	out := make([]domain.Notification, len(a.notifications))
	for i := range a.notifications {
		out[i] = a.notifications[i].Clone()
	}
	return out, nil
}

func (a *stubAdminAPI) ReadNotification(_ context.Context, id domain.ID) (*domain.Notification, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.readErr != nil {
		return nil, a.readErr
	}
	if a.readReturnsEmpty {
		return nil, nil
	}
	for i := range a.notifications {
		if a.notifications[i].ID == id {
			a.notifications[i].IsRead = true
			n := a.notifications[i].Clone()
			return &n, nil
		}
	}
	return nil, domain.ErrNotFound
}

// setServerAccepted mirrors what the backend persists after a decision.
func (a *stubAdminAPI) setServerAccepted(match func(domain.Notification) bool, accepted bool) {
	for i := range a.notifications {
		if match(a.notifications[i]) {
			v := accepted
			a.notifications[i].IsAccepted = &v
			a.notifications[i].Status = "DECIDED"
		}
	}
}

func (a *stubAdminAPI) AcceptSignup(_ context.Context, reqID, _ domain.ID) error {
	a.mu.Lock()
	a.acceptCalls++
	gate := a.acceptGate
	a.mu.Unlock()
	if gate != nil {
		<-gate
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.decisionErr != nil {
		return a.decisionErr
	}
	a.accepted = append(a.accepted, reqID)
	a.setServerAccepted(func(n domain.Notification) bool { return n.ReqID == reqID }, true)
	return nil
}

func (a *stubAdminAPI) RejectSignup(_ context.Context, reqID, _ domain.ID, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.decisionErr != nil {
		return a.decisionErr
	}
	a.rejected[reqID] = reason
	a.setServerAccepted(func(n domain.Notification) bool { return n.ReqID == reqID }, false)
	return nil
}

func (a *stubAdminAPI) ApproveVerification(_ context.Context, companyID domain.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.decisionErr != nil {
		return a.decisionErr
	}
	a.approvedCos = append(a.approvedCos, companyID)
	a.setServerAccepted(func(n domain.Notification) bool { return n.CompanyID == companyID }, true)
	return nil
}

func (a *stubAdminAPI) RejectVerification(_ context.Context, companyID domain.ID, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.decisionErr != nil {
		return a.decisionErr
	}
	a.rejectedCos[companyID] = reason
	a.setServerAccepted(func(n domain.Notification) bool { return n.CompanyID == companyID }, false)
	return nil
}

func (a *stubAdminAPI) ListUsers(_ context.Context, q ports.UserQuery) (*domain.UserPage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userCalls++
	a.userQueryLog = append(a.userQueryLog, q)
	p, ok := a.userPages[q.Page]
	if !ok {
		return &domain.UserPage{Page: q.Page}, nil
	}
	return &p, nil
}

func (a *stubAdminAPI) SetUserActive(_ context.Context, userID domain.ID, active bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeErr != nil {
		return a.activeErr
	}
	a.activeCalls[userID] = active
	return nil
}

func (a *stubAdminAPI) acceptSignupCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acceptCalls
}

func (a *stubAdminAPI) calls() (list int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listCalls
}

// ---------------------------------------------------------------------------
// Map-backed query cache
// ---------------------------------------------------------------------------

type mapCache struct {
	mu          sync.Mutex
	entries     map[string]any
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]any)}
}

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *mapCache) SetAll(scope string, update func(string, any) (any, bool)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, v := range c.entries {
		if !inScope(k, scope) {
			continue
		}
		if nv, changed := update(k, v); changed {
			c.entries[k] = nv
			n++
		}
	}
	return n
}

func (c *mapCache) Invalidate(scope string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, scope)
	n := 0
	for k := range c.entries {
		if inScope(k, scope) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func inScope(key, scope string) bool {
	return key == scope || strings.HasPrefix(key, scope+"?")
}

// ---------------------------------------------------------------------------
// Dedup stub
// ---------------------------------------------------------------------------

type stubDedup struct {
	seen     map[domain.ID]bool
	checkErr error
	marked   []domain.ID
}

func newStubDedup(ids ...domain.ID) *stubDedup {
	d := &stubDedup{seen: make(map[domain.ID]bool)}
	for _, id := range ids {
		d.seen[id] = true
	}
	return d
}

func (d *stubDedup) IsDuplicate(_ context.Context, id domain.ID) (bool, error) {
	if d.checkErr != nil {
		return false, d.checkErr
	}
	return d.seen[id], nil
}

func (d *stubDedup) Mark(_ context.Context, id domain.ID) error {
	d.seen[id] = true
	d.marked = append(d.marked, id)
	return nil
}

func boolPtr(b bool) *bool { return &b }
