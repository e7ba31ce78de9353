package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/glance/internal/logging"
)

// Options configure a Manager.
type Options struct {
	URL    string
	Config Config
	Dialer Dialer
	// Tokens enables authentication when set.
	Tokens TokenSource
	Clock  Clock
	// OnMessage receives every inbound snapshot payload.
	OnMessage func([]byte)
	// OnStatus receives outward status changes.
	OnStatus func(StatusUpdate)
}

// Manager drives a Machine: it performs its effects and feeds timer fires,
// auth results, dial results and channel reads back in as events. All machine
// access happens on the Run goroutine.
type Manager struct {
	opts    Options
	machine *Machine

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	channel   Channel
	refresh   Timer
	retry     Timer
	keepAlive Timer
}

// NewManager validates opts and builds a manager.
func NewManager(opts Options) (*Manager, error) {
	resolved, err := ResolveURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("resolve channel url: %w", err)
	}
	opts.URL = resolved
	if opts.Dialer == nil {
		opts.Dialer = WebSocketDialer{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	cfg := opts.Config
	cfg.Auth = opts.Tokens != nil
	return &Manager{
		opts:    opts,
		machine: NewMachine(cfg),
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
	}, nil
}

// Run connects and keeps the channel alive until ctx is cancelled. Terminal
// states stay put until then so the status remains visible.
func (m *Manager) Run(ctx context.Context) error {
	defer func() {
		close(m.done)
		m.wg.Wait()
		m.drain()
	}()

	m.apply(ctx, m.machine.Step(Event{Kind: EvStart}))
	for {
		select {
		case <-ctx.Done():
			m.apply(ctx, m.machine.Step(Event{Kind: EvTeardown}))
			return nil
		case ev := <-m.events:
			m.handle(ctx, ev)
		}
	}
}

func (m *Manager) handle(ctx context.Context, ev Event) {
	if ev.Kind == EvOpened {
		if ev.Gen != m.machine.Gen() || m.machine.State() != Connecting {
			logging.Debug("live", "discarding stale channel gen=%d current=%d", ev.Gen, m.machine.Gen())
			_ = ev.channel.Close()
			return
		}
		m.channel = ev.channel
		m.startReader(ev.Gen, ev.channel)
	}
	if ev.Err != nil {
		logging.Warn("live", "%s (gen %d): %v", ev.Kind, ev.Gen, ev.Err)
	}
	before := m.machine.State()
	fx := m.machine.Step(ev)
	if after := m.machine.State(); after != before {
		logging.Info("live", "%s → %s on %s", before, after, ev.Kind)
	}
	m.apply(ctx, fx)
}

// drain closes channels whose open event arrived after teardown.
func (m *Manager) drain() {
	for {
		select {
		case ev := <-m.events:
			if ev.channel != nil {
				_ = ev.channel.Close()
			}
		default:
			return
		}
	}
}

func (m *Manager) post(ev Event) {
	select {
	case m.events <- ev:
	case <-m.done:
		if ev.channel != nil {
			_ = ev.channel.Close()
		}
	}
}

func (m *Manager) apply(ctx context.Context, fx []Effect) {
	for _, e := range fx {
		m.perform(ctx, e)
	}
}

func (m *Manager) perform(ctx context.Context, e Effect) {
	switch e.Kind {
	case FxFetchToken:
		gen := e.Gen
		m.goAsync(func() {
			tok, err := m.opts.Tokens.Issue(ctx)
			if err != nil {
				m.post(Event{Kind: EvAuthErr, Gen: gen, Err: err})
				return
			}
			m.post(Event{Kind: EvAuthOK, Gen: gen, Token: tok})
		})

	case FxDial:
		gen, target := e.Gen, WithToken(m.opts.URL, e.Token)
		m.goAsync(func() {
			ch, err := m.opts.Dialer.Dial(ctx, target)
			if err != nil {
				m.post(Event{Kind: EvClosed, Gen: gen, Err: err})
				return
			}
			m.post(Event{Kind: EvOpened, Gen: gen, channel: ch})
		})

	case FxCloseChannel:
		if m.channel != nil {
			_ = m.channel.Close()
			m.channel = nil
		}

	case FxScheduleRefresh:
		stopTimer(&m.refresh)
		m.refresh = m.opts.Clock.AfterFunc(e.Delay, func() {
			m.post(Event{Kind: EvRefreshDue})
		})

	case FxCancelRefresh:
		stopTimer(&m.refresh)

	case FxScheduleRetry:
		stopTimer(&m.retry)
		gen := e.Gen
		m.retry = m.opts.Clock.AfterFunc(e.Delay, func() {
			m.post(Event{Kind: EvRetryDue, Gen: gen})
		})

	case FxCancelRetry:
		stopTimer(&m.retry)

	case FxStartKeepAlive:
		stopTimer(&m.keepAlive)
		gen := e.Gen
		m.keepAlive = m.opts.Clock.AfterFunc(e.Delay, func() {
			m.post(Event{Kind: EvKeepAliveDue, Gen: gen})
		})

	case FxStopKeepAlive:
		stopTimer(&m.keepAlive)

	case FxSendPing:
		if m.channel != nil {
			if err := m.channel.Ping(); err != nil {
				logging.Debug("live", "ping failed: %v", err)
			}
		}

	case FxRequestRefresh:
		refreshToken := e.Token
		m.goAsync(func() {
			tok, err := m.opts.Tokens.Refresh(ctx, refreshToken)
			if err != nil {
				m.post(Event{Kind: EvRefreshErr, Err: err})
				return
			}
			m.post(Event{Kind: EvRefreshOK, Token: tok})
		})

	case FxSendToken:
		if m.channel == nil {
			return
		}
		if err := m.channel.WriteJSON(newTokenMessage(e.Token, e.NullToken)); err != nil {
			logging.Warn("live", "push token: %v", err)
		}

	case FxDeliver:
		if m.opts.OnMessage != nil {
			m.opts.OnMessage(e.Payload)
		}

	case FxPublish:
		if m.opts.OnStatus != nil {
			m.opts.OnStatus(e.Status)
		}
	}
}

func (m *Manager) startReader(gen uint64, ch Channel) {
	m.goAsync(func() {
		for {
			data, err := ch.Read()
			if err != nil {
				m.post(Event{Kind: EvClosed, Gen: gen, Err: err})
				return
			}
			m.post(Event{Kind: EvMessage, Gen: gen, Payload: data})
		}
	})
}

func (m *Manager) goAsync(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

func stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
