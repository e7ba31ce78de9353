package live

import (
	"fmt"
	"time"
)

// State is the connection lifecycle state.
type State int

const (
	Idle State = iota
	Authenticating
	Connecting
	Open
	Refreshing
	Reconnecting
	AuthFailed
	Halted
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authenticating:
		return "authenticating"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Refreshing:
		return "refreshing"
	case Reconnecting:
		return "reconnecting"
	case AuthFailed:
		return "auth-failed"
	case Halted:
		return "halted"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further automatic recovery happens.
func (s State) Terminal() bool {
	return s == AuthFailed || s == Halted || s == Closed
}

// Status is the only view of the connection exposed outside the package.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusAuthFailed   Status = "auth-failed"
	StatusHalted       Status = "halted"
)

// StatusUpdate is published whenever the outward status changes.
type StatusUpdate struct {
	Status  Status
	Retries int
	// Retry is the wait before the next attempt while disconnected.
	Retry time.Duration
}

// Token is a bearer credential and its lifetime.
type Token struct {
	Access    string
	Refresh   string
	ExpiresIn time.Duration
}

// EventKind identifies an input to the machine.
type EventKind int

const (
	EvStart EventKind = iota
	EvAuthOK
	EvAuthErr
	EvOpened
	EvMessage
	EvClosed
	EvRetryDue
	EvRefreshDue
	EvRefreshOK
	EvRefreshErr
	EvKeepAliveDue
	EvTeardown
)

var eventNames = [...]string{
	"start", "auth-ok", "auth-err", "opened", "message", "closed",
	"retry-due", "refresh-due", "refresh-ok", "refresh-err", "keepalive-due", "teardown",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one input to the machine. Gen ties asynchronous results to the
// attempt that started them.
type Event struct {
	Kind    EventKind
	Gen     uint64
	Token   Token
	Payload []byte
	Err     error

	channel Channel
}

// EffectKind identifies an action the runtime must perform.
type EffectKind int

const (
	FxFetchToken EffectKind = iota
	FxDial
	FxCloseChannel
	FxScheduleRefresh
	FxCancelRefresh
	FxScheduleRetry
	FxCancelRetry
	FxStartKeepAlive
	FxStopKeepAlive
	FxSendPing
	FxRequestRefresh
	FxSendToken
	FxDeliver
	FxPublish
)

var effectNames = [...]string{
	"fetch-token", "dial", "close-channel", "schedule-refresh", "cancel-refresh",
	"schedule-retry", "cancel-retry", "start-keepalive", "stop-keepalive", "send-ping",
	"request-refresh", "send-token", "deliver", "publish",
}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return fmt.Sprintf("effect(%d)", int(k))
}

// Effect is one action requested by the machine.
type Effect struct {
	Kind  EffectKind
	Gen   uint64
	Delay time.Duration
	// Token is the bearer for Dial, the refresh token for RequestRefresh and
	// the pushed credential for SendToken. A SendToken with NullToken set
	// pushes JSON null.
	Token     string
	NullToken bool
	Payload   []byte
	Status    StatusUpdate
}

// Config tunes the machine.
type Config struct {
	// Auth enables the token handshake before dialing.
	Auth           bool
	PingInterval   time.Duration
	MaxRetries     int
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	RefreshLead    time.Duration
}

// Defaults applied to zero Config fields.
const (
	DefaultMaxRetries     = 20
	DefaultBackoffFloor   = time.Second
	DefaultBackoffCeiling = 20 * time.Second
	DefaultRefreshLead    = 60 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BackoffFloor <= 0 {
		c.BackoffFloor = DefaultBackoffFloor
	}
	if c.BackoffCeiling < c.BackoffFloor {
		c.BackoffCeiling = max(DefaultBackoffCeiling, c.BackoffFloor)
	}
	if c.RefreshLead <= 0 {
		c.RefreshLead = DefaultRefreshLead
	}
	return c
}

// Machine is the connection state machine. Step is a pure transition: it
// never blocks, starts goroutines or reads the clock.
type Machine struct {
	cfg       Config
	state     State
	gen       uint64
	token     Token
	retries   int
	backoff   time.Duration
	refreshIn bool
}

// NewMachine returns a machine in Idle.
func NewMachine(cfg Config) *Machine {
	cfg = cfg.withDefaults()
	return &Machine{cfg: cfg, backoff: cfg.BackoffFloor}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Gen returns the current attempt generation.
func (m *Machine) Gen() uint64 { return m.gen }

// Retries returns the consecutive failed attempts since the last open.
func (m *Machine) Retries() int { return m.retries }

// Backoff returns the wait that the next failure will schedule.
func (m *Machine) Backoff() time.Duration { return m.backoff }

// Token returns the current credential.
func (m *Machine) Token() Token { return m.token }

// Step applies ev and returns the effects to perform, in order.
func (m *Machine) Step(ev Event) []Effect {
	if ev.Kind == EvTeardown {
		return m.teardown()
	}
	if m.state.Terminal() {
		return nil
	}

	switch ev.Kind {
	case EvStart:
		if m.state != Idle {
			return nil
		}
		return m.attempt()

	case EvAuthOK:
		if m.state != Authenticating || ev.Gen != m.gen {
			return nil
		}
		m.token = ev.Token
		m.state = Connecting
		fx := m.scheduleRefresh()
		return append(fx, Effect{Kind: FxDial, Gen: m.gen, Token: m.token.Access})

	case EvAuthErr:
		if m.state != Authenticating || ev.Gen != m.gen {
			return nil
		}
		m.state = AuthFailed
		return []Effect{
			{Kind: FxCancelRefresh},
			m.publish(StatusAuthFailed, 0),
		}

	case EvOpened:
		if m.state != Connecting || ev.Gen != m.gen {
			return nil
		}
		m.state = Open
		m.retries = 0
		m.backoff = m.cfg.BackoffFloor
		fx := []Effect{{Kind: FxCancelRetry}}
		if m.cfg.PingInterval > 0 {
			fx = append(fx, Effect{Kind: FxStartKeepAlive, Gen: m.gen, Delay: m.cfg.PingInterval})
		}
		return append(fx, m.publish(StatusConnected, 0))

	case EvMessage:
		if !m.connected() || ev.Gen != m.gen {
			return nil
		}
		return []Effect{{Kind: FxDeliver, Gen: m.gen, Payload: ev.Payload}}

	case EvClosed:
		if ev.Gen != m.gen {
			return nil
		}
		switch m.state {
		case Connecting, Open, Refreshing:
		default:
			return nil
		}
		return m.fail()

	case EvRetryDue:
		if m.state != Reconnecting || ev.Gen != m.gen {
			return nil
		}
		return m.redial()

	case EvKeepAliveDue:
		if !m.connected() || ev.Gen != m.gen {
			return nil
		}
		return []Effect{
			{Kind: FxSendPing, Gen: m.gen},
			{Kind: FxStartKeepAlive, Gen: m.gen, Delay: m.cfg.PingInterval},
		}

	case EvRefreshDue:
		if m.refreshIn || m.token.Refresh == "" {
			return nil
		}
		switch m.state {
		case Open:
			m.state = Refreshing
		case Connecting, Reconnecting:
		default:
			return nil
		}
		m.refreshIn = true
		return []Effect{{Kind: FxRequestRefresh, Token: m.token.Refresh}}

	case EvRefreshOK:
		if !m.refreshIn {
			return nil
		}
		m.refreshIn = false
		m.token.Access = ev.Token.Access
		if ev.Token.Refresh != "" {
			m.token.Refresh = ev.Token.Refresh
		}
		m.token.ExpiresIn = ev.Token.ExpiresIn
		var fx []Effect
		if m.state == Refreshing {
			m.state = Open
			fx = append(fx, Effect{Kind: FxSendToken, Gen: m.gen, Token: m.token.Access})
		}
		return append(fx, m.scheduleRefresh()...)

	case EvRefreshErr:
		if !m.refreshIn {
			return nil
		}
		m.refreshIn = false
		if m.state != Refreshing {
			return nil
		}
		m.state = Open
		return []Effect{{Kind: FxSendToken, Gen: m.gen, NullToken: true}}
	}
	return nil
}

func (m *Machine) connected() bool {
	return m.state == Open || m.state == Refreshing
}

func (m *Machine) attempt() []Effect {
	m.gen++
	fx := []Effect{m.publish(StatusConnecting, m.retries)}
	if m.cfg.Auth && m.token.Access == "" {
		m.state = Authenticating
		return append(fx, Effect{Kind: FxFetchToken, Gen: m.gen})
	}
	m.state = Connecting
	return append(fx, Effect{Kind: FxDial, Gen: m.gen, Token: m.token.Access})
}

func (m *Machine) redial() []Effect {
	m.gen++
	m.state = Connecting
	return []Effect{
		m.publish(StatusConnecting, m.retries),
		{Kind: FxDial, Gen: m.gen, Token: m.token.Access},
	}
}

func (m *Machine) fail() []Effect {
	fx := []Effect{
		{Kind: FxStopKeepAlive},
		{Kind: FxCloseChannel, Gen: m.gen},
	}
	m.retries++
	if m.retries > m.cfg.MaxRetries {
		m.state = Halted
		m.refreshIn = false
		return append(fx,
			Effect{Kind: FxCancelRefresh},
			Effect{Kind: FxCancelRetry},
			m.publish(StatusHalted, m.retries-1),
		)
	}
	delay := m.backoff
	m.backoff = min(m.backoff*2, m.cfg.BackoffCeiling)
	m.state = Reconnecting
	update := m.publish(StatusDisconnected, m.retries)
	update.Status.Retry = delay
	return append(fx,
		Effect{Kind: FxScheduleRetry, Gen: m.gen, Delay: delay},
		update,
	)
}

func (m *Machine) scheduleRefresh() []Effect {
	if m.token.ExpiresIn <= 0 || m.token.Refresh == "" {
		return nil
	}
	delay := max(m.token.ExpiresIn-m.cfg.RefreshLead, 0)
	return []Effect{{Kind: FxScheduleRefresh, Delay: delay}}
}

func (m *Machine) teardown() []Effect {
	if m.state == Closed {
		return nil
	}
	m.state = Closed
	m.refreshIn = false
	return []Effect{
		{Kind: FxCancelRefresh},
		{Kind: FxCancelRetry},
		{Kind: FxStopKeepAlive},
		{Kind: FxCloseChannel, Gen: m.gen},
		m.publish(StatusDisconnected, m.retries),
	}
}

func (m *Machine) publish(s Status, retries int) Effect {
	return Effect{Kind: FxPublish, Status: StatusUpdate{Status: s, Retries: retries}}
}
