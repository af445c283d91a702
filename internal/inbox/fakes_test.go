package inbox

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colonyops/inbox/internal/core/notify"
)

const waitFor = time.Second

// fakeClock hands out tickers whose ticks are fired by the test.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{d: d, ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *fakeClock) last() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

type fakeTicker struct {
	d  time.Duration
	ch chan time.Time

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *fakeTicker) tick() { t.ch <- time.Now() }

// subscription is one call to fakePush.Subscribe.
type subscription struct {
	userID     string
	credential string
	handler    notify.PushHandler
	ctx        context.Context
}

// fakePush records subscriptions and blocks each until its context ends.
type fakePush struct {
	mu   sync.Mutex
	subs []subscription
}

func (p *fakePush) Subscribe(ctx context.Context, userID, credential string, h notify.PushHandler) {
	p.mu.Lock()
	p.subs = append(p.subs, subscription{userID: userID, credential: credential, handler: h, ctx: ctx})
	p.mu.Unlock()
	<-ctx.Done()
}

func (p *fakePush) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// waitSub blocks until the n-th (1-based) subscription exists and returns it.
func (p *fakePush) waitSub(t *testing.T, n int) subscription {
	t.Helper()
	require.Eventually(t, func() bool { return p.count() >= n }, waitFor, time.Millisecond)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs[n-1]
}

// fakeAPI serves canned responses and records confirmations.
type fakeAPI struct {
	mu         sync.Mutex
	list       []notify.Notification
	count      int
	listErr    error
	countErr   error
	confirmErr error

	listCalls    int
	confirmed    []int64
	confirmUsers []string
	readAllSent  int
	userIDs      []string
}

func (a *fakeAPI) FetchList(_ context.Context, userID string) ([]notify.Notification, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	a.userIDs = append(a.userIDs, userID)
	if a.listErr != nil {
		return nil, a.listErr
	}
	out := make([]notify.Notification, len(a.list))
	copy(out, a.list)
	return out, nil
}

func (a *fakeAPI) FetchUnreadCount(_ context.Context, _ string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.countErr != nil {
		return 0, a.countErr
	}
	return a.count, nil
}

func (a *fakeAPI) ConfirmRead(_ context.Context, id int64, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.confirmed = append(a.confirmed, id)
	a.confirmUsers = append(a.confirmUsers, userID)
	return a.confirmErr
}

func (a *fakeAPI) ConfirmReadAll(_ context.Context, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readAllSent++
	a.confirmUsers = append(a.confirmUsers, userID)
	return a.confirmErr
}

func (a *fakeAPI) set(fn func(a *fakeAPI)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a)
}

func (a *fakeAPI) listCallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listCalls
}

// refreshCounter is a Refresher that only counts calls.
type refreshCounter struct {
	userID string

	mu    sync.Mutex
	calls int
}

func (r *refreshCounter) UserID() string { return r.userID }

func (r *refreshCounter) Refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *refreshCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// refreshTag labels the context of one Refresh call so gatedAPI can tell
// overlapping refreshes apart.
type refreshTag struct{}

// snapshot is the server view returned to one tagged refresh once its gate
// is closed.
type snapshot struct {
	list  []notify.Notification
	count int
	gate  chan struct{}
}

// gatedAPI holds every fetch until the test releases the snapshot for the
// refresh that issued it.
type gatedAPI struct {
	fakeAPI
	snapshots map[string]*snapshot
}

func (a *gatedAPI) snapshot(ctx context.Context) *snapshot {
	return a.snapshots[ctx.Value(refreshTag{}).(string)]
}

func (a *gatedAPI) FetchList(ctx context.Context, _ string) ([]notify.Notification, error) {
	s := a.snapshot(ctx)
	<-s.gate
	out := make([]notify.Notification, len(s.list))
	copy(out, s.list)
	return out, nil
}

func (a *gatedAPI) FetchUnreadCount(ctx context.Context, _ string) (int, error) {
	s := a.snapshot(ctx)
	<-s.gate
	return s.count, nil
}

func payload(t *testing.T, n notify.Notification) []byte {
	t.Helper()
	data, err := json.Marshal(n)
	require.NoError(t, err)
	return data
}
