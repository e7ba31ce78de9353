package live

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualTimer struct {
	clock *manualClock
	at    time.Time
	fn    func()
	done  bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.done
	t.done = true
	return was
}

type manualClock struct {
	mu     sync.Mutex
	start  time.Time
	now    time.Time
	timers []*manualTimer
}

func newManualClock() *manualClock {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &manualClock{start: start, now: start}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and fires due timers on the caller's goroutine.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// Pending lists outstanding deadlines as offsets from the clock's start.
func (c *manualClock) Pending() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		if !t.done {
			out = append(out, t.at.Sub(c.start))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type fakeChannel struct {
	reads  chan []byte
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	writes []tokenMessage
	pings  int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{reads: make(chan []byte, 4), closed: make(chan struct{})}
}

func (c *fakeChannel) Read() ([]byte, error) {
	select {
	case data := <-c.reads:
		return data, nil
	case <-c.closed:
		return nil, errors.New("channel closed")
	}
}

func (c *fakeChannel) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := v.(tokenMessage)
	if !ok {
		return errors.New("unexpected message type")
	}
	c.writes = append(c.writes, msg)
	return nil
}

func (c *fakeChannel) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return nil
}

func (c *fakeChannel) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeChannel) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeChannel) Writes() []tokenMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tokenMessage(nil), c.writes...)
}

type fakeDialer struct {
	mu       sync.Mutex
	urls     []string
	channels []*fakeChannel
	// fail makes the next n dials error.
	fail    int
	release chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, rawURL string) (Channel, error) {
	d.mu.Lock()
	d.urls = append(d.urls, rawURL)
	if d.fail > 0 {
		d.fail--
		d.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	release := d.release
	d.mu.Unlock()
	if release != nil {
		<-release
	}
	ch := newFakeChannel()
	d.mu.Lock()
	d.channels = append(d.channels, ch)
	d.mu.Unlock()
	return ch, nil
}

func (d *fakeDialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

func (d *fakeDialer) Channel(i int) *fakeChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.channels) {
		return nil
	}
	return d.channels[i]
}

type fakeTokens struct {
	mu        sync.Mutex
	issue     Token
	issueErr  error
	refresh   Token
	refreshed []string
}

func (f *fakeTokens) Issue(context.Context) (Token, error) {
	return f.issue, f.issueErr
}

func (f *fakeTokens) Refresh(_ context.Context, refreshToken string) (Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, refreshToken)
	return f.refresh, nil
}

func (f *fakeTokens) Refreshed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refreshed...)
}

type statusLog struct {
	mu      sync.Mutex
	updates []StatusUpdate
}

func (s *statusLog) record(u StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
}

func (s *statusLog) Last() StatusUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return StatusUpdate{}
	}
	return s.updates[len(s.updates)-1]
}

type harness struct {
	clock   *manualClock
	dialer  *fakeDialer
	status  *statusLog
	cancel  context.CancelFunc
	result  chan error
	message chan []byte
}

func startManager(t *testing.T, dialer *fakeDialer, tokens TokenSource, cfg Config) *harness {
	t.Helper()
	h := &harness{
		clock:   newManualClock(),
		dialer:  dialer,
		status:  &statusLog{},
		result:  make(chan error, 1),
		message: make(chan []byte, 4),
	}
	opts := Options{
		URL:       "localhost",
		Config:    cfg,
		Dialer:    dialer,
		Clock:     h.clock,
		OnMessage: func(b []byte) { h.message <- b },
		OnStatus:  h.status.record,
	}
	if tokens != nil {
		opts.Tokens = tokens
	}
	m, err := NewManager(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.result <- m.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if dialer.release != nil {
			select {
			case <-dialer.release:
			default:
				close(dialer.release)
			}
		}
	})
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop")
	}
}

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func TestManagerTokenRefreshScenario(t *testing.T) {
	dialer := &fakeDialer{}
	tokens := &fakeTokens{
		issue:   Token{Access: "a1", Refresh: "r1", ExpiresIn: 120 * time.Second},
		refresh: Token{Access: "a2", Refresh: "r2", ExpiresIn: 300 * time.Second},
	}
	h := startManager(t, dialer, tokens, Config{})

	require.Eventually(t, func() bool { return h.status.Last().Status == StatusConnected }, waitFor, tick)
	urls := dialer.URLs()
	require.Len(t, urls, 1)
	u, err := url.Parse(urls[0])
	require.NoError(t, err)
	require.Equal(t, "a1", u.Query().Get("token"))
	require.Equal(t, "localhost:"+DefaultPort, u.Host)
	require.Equal(t, []time.Duration{60 * time.Second}, h.clock.Pending())

	h.clock.Advance(60 * time.Second)
	ch := dialer.Channel(0)
	require.Eventually(t, func() bool { return len(ch.Writes()) == 1 }, waitFor, tick)
	msg := ch.Writes()[0]
	require.Equal(t, "validate_token", msg.Action)
	require.NotNil(t, msg.Token)
	require.Equal(t, "a2", *msg.Token)
	require.Equal(t, []string{"r1"}, tokens.Refreshed())

	require.Eventually(t, func() bool {
		p := h.clock.Pending()
		return len(p) == 1 && p[0] == 300*time.Second
	}, waitFor, tick)
	require.Len(t, dialer.URLs(), 1, "refresh must not redial")

	ch.reads <- []byte(`{"visitors":{"data":[]}}`)
	select {
	case got := <-h.message:
		require.JSONEq(t, `{"visitors":{"data":[]}}`, string(got))
	case <-time.After(waitFor):
		t.Fatal("message not delivered")
	}

	h.stop(t)
	require.True(t, ch.Closed())
	require.Empty(t, h.clock.Pending())
	require.Equal(t, StatusDisconnected, h.status.Last().Status)
}

func TestManagerReconnectsAfterFailedDial(t *testing.T) {
	dialer := &fakeDialer{fail: 2}
	h := startManager(t, dialer, nil, Config{BackoffFloor: time.Second, BackoffCeiling: 20 * time.Second})

	require.Eventually(t, func() bool {
		last := h.status.Last()
		return last.Status == StatusDisconnected && last.Retries == 1
	}, waitFor, tick)
	require.Equal(t, time.Second, h.status.Last().Retry)

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		last := h.status.Last()
		return last.Status == StatusDisconnected && last.Retries == 2
	}, waitFor, tick)
	require.Equal(t, 2*time.Second, h.status.Last().Retry)

	h.clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return h.status.Last().Status == StatusConnected }, waitFor, tick)
	require.Len(t, dialer.URLs(), 3)
	require.Equal(t, "ws://localhost:"+DefaultPort, dialer.URLs()[0])

	// A dropped connection starts over from the floor.
	dialer.Channel(0).Close()
	require.Eventually(t, func() bool {
		last := h.status.Last()
		return last.Status == StatusDisconnected && last.Retries == 1
	}, waitFor, tick)
	require.Equal(t, time.Second, h.status.Last().Retry)

	h.stop(t)
}

func TestManagerAuthFailureStops(t *testing.T) {
	dialer := &fakeDialer{}
	tokens := &fakeTokens{issueErr: ErrAuthRejected}
	h := startManager(t, dialer, tokens, Config{})

	require.Eventually(t, func() bool { return h.status.Last().Status == StatusAuthFailed }, waitFor, tick)
	require.Empty(t, dialer.URLs())
	require.Empty(t, h.clock.Pending())
	h.stop(t)
}

func TestManagerKeepAlivePings(t *testing.T) {
	dialer := &fakeDialer{}
	h := startManager(t, dialer, nil, Config{PingInterval: 10 * time.Second})

	require.Eventually(t, func() bool { return h.status.Last().Status == StatusConnected }, waitFor, tick)
	ch := dialer.Channel(0)
	h.clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		return ch.pings == 1
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		p := h.clock.Pending()
		return len(p) == 1 && p[0] == 20*time.Second
	}, waitFor, tick)
	h.stop(t)
}

func TestManagerClosesChannelOpenedAfterTeardown(t *testing.T) {
	dialer := &fakeDialer{release: make(chan struct{})}
	h := startManager(t, dialer, nil, Config{})

	require.Eventually(t, func() bool { return len(dialer.URLs()) == 1 }, waitFor, tick)
	h.cancel()
	close(dialer.release)

	select {
	case err := <-h.result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop")
	}
	ch := dialer.Channel(0)
	require.NotNil(t, ch)
	require.True(t, ch.Closed())
}

func TestNewManagerRejectsBadURL(t *testing.T) {
	_, err := NewManager(Options{URL: "ftp://example.com"})
	require.Error(t, err)
	_, err = NewManager(Options{})
	require.Error(t, err)
}
