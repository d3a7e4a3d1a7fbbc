// Package connection owns the single websocket connection to the telemetry
// feed: dialing, the credential handshake, loss detection and fixed-delay
// reconnection with reconnect tagging on the first delivered message.
package connection

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/overlaykit/matchfeed/pkg/errors"
	utils "github.com/overlaykit/matchfeed/pkg/util"
	"github.com/overlaykit/matchfeed/pkg/wire"
)

const (
	DefaultReconnectDelay      = 3000 * time.Millisecond
	DefaultHandshakeTimeout    = 10 * time.Second
	DefaultMessageBufferLength = 64
)

type ManagerParams struct {
	// Url is the websocket endpoint of the telemetry feed.
	Url string

	// Token is the opaque credential sent once per transport open.
	Token string

	// ReconnectDelay is the fixed wait before re-dialing after a
	// non-user-initiated loss.
	ReconnectDelay time.Duration

	HandshakeTimeout    time.Duration
	MessageBufferLength int

	// Dialer overrides the websocket dialer, for tests.
	Dialer *websocket.Dialer

	Logger *zap.Logger
}

type MissingUrlError struct{}

func (e *MissingUrlError) Error() string {
	return "Cannot create connection manager without a feed URL"
}

// Manager owns one Connection. Run drives the state machine:
//
//	Disconnected -> Connecting -> (auth ack) -> Connected
//	Connected -> (loss, not user-closed) -> Connecting after a fixed delay
//	any state -> (user Close) -> Disconnected, terminal
type Manager struct {
	params ManagerParams

	reconnectDelay   time.Duration
	handshakeTimeout time.Duration
	dialer           *websocket.Dialer

	log       *zap.Logger
	stringGen *utils.RandomStringGenerator

	messages     chan Inbound
	stateChanges chan StateChange

	mut          sync.Mutex
	state        State
	reconnecting bool
	closed       bool
	conn         *websocket.Conn

	closeOnce sync.Once
	closeCh   chan struct{}
}

func CreateManager(params ManagerParams) (*Manager, error) {
	if params.Url == "" {
		return nil, &MissingUrlError{}
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}

	reconnectDelay := DefaultReconnectDelay
	if params.ReconnectDelay > 0 {
		reconnectDelay = params.ReconnectDelay
	}

	handshakeTimeout := DefaultHandshakeTimeout
	if params.HandshakeTimeout > 0 {
		handshakeTimeout = params.HandshakeTimeout
	}

	dialer := params.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}

	messageBufferLength := DefaultMessageBufferLength
	if params.MessageBufferLength > 0 {
		messageBufferLength = params.MessageBufferLength
	}

	return &Manager{
		params:           params,
		reconnectDelay:   reconnectDelay,
		handshakeTimeout: handshakeTimeout,
		dialer:           dialer,
		log:              logger.With(zap.String("component", "ConnectionManager")),
		stringGen:        utils.CreateRandomStringGenerator(time.Now().UnixMicro()),
		messages:         make(chan Inbound, messageBufferLength),
		stateChanges:     make(chan StateChange, 16),
		closeCh:          make(chan struct{}),
	}, nil
}

// Messages delivers application payloads in arrival order.
func (m *Manager) Messages() <-chan Inbound {
	return m.messages
}

// StateChanges delivers lifecycle transitions. Slow consumers lose events
// rather than stalling the connection.
func (m *Manager) StateChanges() <-chan StateChange {
	return m.stateChanges
}

func (m *Manager) State() State {
	m.mut.Lock()
	defer m.mut.Unlock()

	return m.state
}

// Run dials, authenticates and pumps messages until the context is done or
// Close is called. Any non-user loss schedules a re-dial after the fixed
// reconnect delay; the first message delivered after a successful reconnect
// is tagged Reconnecting.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if m.isClosed() || ctx.Err() != nil {
			return nil
		}

		log := m.log.With(zap.String("connId", m.stringGen.GetRandomString(6)))

		m.setState(Connecting, nil)

		conn, err := m.dialAndAuthenticate(ctx, log)
		if err != nil {
			if m.isClosed() {
				return nil
			}
			log.Error("Connect attempt failed", zap.Error(err))
			m.setState(Disconnected, err)
			m.markReconnecting()
			if !m.waitReconnect(ctx) {
				return nil
			}
			continue
		}

		m.setState(Connected, nil)
		log.Info("Connected and authenticated")

		readErr := m.readLoop(ctx, conn, log)
		conn.Close()
		m.clearConn()

		if m.isClosed() || ctx.Err() != nil {
			return nil
		}

		log.Warn("Connection lost", zap.Error(readErr))
		m.setState(Disconnected, readErr)
		m.markReconnecting()
		if !m.waitReconnect(ctx) {
			return nil
		}
	}
}

// Close marks the connection user-closed, suppresses any further reconnect
// scheduling and tears down the transport. Idempotent. Results of in-flight
// reads are discarded once this has been called.
func (m *Manager) Close() error {
	var closeErr error

	m.closeOnce.Do(func() {
		m.mut.Lock()
		m.closed = true
		conn := m.conn
		m.conn = nil
		m.mut.Unlock()

		close(m.closeCh)

		if conn != nil {
			closeErr = conn.Close()
		}

		m.setState(Disconnected, nil)
		m.log.Info("Connection manager closed by user")
	})

	return closeErr
}

func (m *Manager) dialAndAuthenticate(ctx context.Context, log *zap.Logger) (*websocket.Conn, error) {
	conn, _, err := m.dialer.DialContext(ctx, m.params.Url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", m.params.Url, err)
	}

	// A Close racing the dial wins: discard the fresh transport.
	m.mut.Lock()
	if m.closed {
		m.mut.Unlock()
		conn.Close()
		return nil, &errors.AlreadyClosedError{Component: "ConnectionManager"}
	}
	m.conn = conn
	m.mut.Unlock()

	authPayload, err := wire.EncodeAuthRequest(m.params.Token)
	if err != nil {
		conn.Close()
		m.clearConn()
		return nil, err
	}

	if err := conn.WriteMessage(websocket.TextMessage, authPayload); err != nil {
		conn.Close()
		m.clearConn()
		return nil, fmt.Errorf("send auth request: %w", err)
	}

	// Ready only once the server acknowledges the credential in-band, not
	// merely when the transport opens.
	conn.SetReadDeadline(time.Now().Add(m.handshakeTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		m.clearConn()
		return nil, fmt.Errorf("read auth acknowledgement: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	env, err := wire.ParseEnvelope(raw)
	if err != nil {
		conn.Close()
		m.clearConn()
		return nil, err
	}

	if env.Code != wire.CodeAuthOK {
		conn.Close()
		m.clearConn()
		return nil, &errors.UnexpectedStatusCode{Code: env.Code, Detail: env.Message}
	}

	log.Debug("Authentication acknowledged")
	return conn, nil
}

func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn, log *zap.Logger) error {
	expectedCloseErrors := []int{websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived}

	for {
		_, raw, msgErr := conn.ReadMessage()
		if msgErr != nil {
			if m.isClosed() {
				return nil
			}

			if websocket.IsCloseError(msgErr, expectedCloseErrors...) {
				log.Info("Server closed the connection", zap.Error(msgErr))
				return msgErr
			}
			if websocket.IsUnexpectedCloseError(msgErr, expectedCloseErrors...) {
				log.Warn("Unexpected close from server", zap.Error(msgErr))
				return msgErr
			}
			if strings.Contains(msgErr.Error(), "use of closed network connection") {
				return nil
			}

			log.Error("Unexpected websocket read error", zap.Error(msgErr))
			return msgErr
		}

		env, parseErr := wire.ParseEnvelope(raw)
		if parseErr != nil {
			log.Warn("Dropping malformed envelope", zap.Error(parseErr))
			continue
		}

		if env.IsError() {
			// Protocol errors take the same path as an unexpected close.
			statusErr := &errors.UnexpectedStatusCode{Code: env.Code, Detail: env.Message}
			log.Error("In-band protocol error", zap.Error(statusErr))
			return statusErr
		}

		if env.Code != wire.CodeSnapshot {
			log.Debug("Ignoring non-payload envelope", zap.Int("code", env.Code))
			continue
		}

		inbound := Inbound{
			Reconnecting: m.consumeReconnectTag(),
			Payload:      env.Data,
		}

		select {
		case <-ctx.Done():
			return nil
		case <-m.closeCh:
			return nil
		case m.messages <- inbound:
		}
	}
}

// waitReconnect sleeps for the fixed reconnect delay. Returns false when the
// manager was closed or the context cancelled during the wait.
func (m *Manager) waitReconnect(ctx context.Context) bool {
	timer := time.NewTimer(m.reconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-m.closeCh:
		return false
	case <-timer.C:
		return true
	}
}

func (m *Manager) isClosed() bool {
	m.mut.Lock()
	defer m.mut.Unlock()

	return m.closed
}

func (m *Manager) clearConn() {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.conn = nil
}

// markReconnecting latches the reconnect tag at the moment of loss. The
// latch survives failed reconnect attempts and is consumed by the first
// delivered message, not by the reconnect itself.
func (m *Manager) markReconnecting() {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.reconnecting = true
}

func (m *Manager) consumeReconnectTag() bool {
	m.mut.Lock()
	defer m.mut.Unlock()

	tag := m.reconnecting
	m.reconnecting = false
	return tag
}

func (m *Manager) setState(next State, err error) {
	m.mut.Lock()
	prev := m.state
	m.state = next
	m.mut.Unlock()

	if prev == next && err == nil {
		return
	}

	change := StateChange{Old: prev, New: next, Err: err}
	select {
	case m.stateChanges <- change:
	default:
		m.log.Debug("Dropping state change, no consumer", zap.String("old", prev.String()), zap.String("new", next.String()))
	}
}

// IsAuthError reports whether err is the in-band rejection of a credential,
// as opposed to a transport failure.
func IsAuthError(err error) bool {
	var statusErr *errors.UnexpectedStatusCode
	return stderrors.As(err, &statusErr)
}
