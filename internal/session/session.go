package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/stouch/internal/display"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/protocol"
	"go.uber.org/zap"
)

// Defaults for the handshake
const (
	DefaultPort           = 3477
	DefaultRetries        = 10
	DefaultReceiveTimeout = time.Second
)

// ErrNoDevice is returned by a Locator that found no usable controller
var ErrNoDevice = errors.New("no compatible device found")

// Endpoint identifies the controller and the shared secret for the handshake
type Endpoint struct {
	Address  string
	Port     int
	Password string
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(e.Port))
}

// Locator finds a controller when no endpoint is configured
type Locator interface {
	Locate(ctx context.Context) (Endpoint, error)
}

// Config holds the session configuration
type Config struct {
	Endpoint       Endpoint
	LocalPort      int // 0 picks an ephemeral port
	Retries        int
	ReceiveTimeout time.Duration
	Debug          bool // log every datagram
	Locator        Locator
	Observer       Observer
	Display        *display.Model // nil creates a blank screen
}

// Stats are cumulative packet counters since the last successful connect
type Stats struct {
	PacketsReceived   int
	PacketsDropped    int
	ErrorReplies      int
	CommandsProcessed int
	CommandsIgnored   int
}

type statsBox struct {
	mu sync.Mutex
	st Stats
}

func (b *statsBox) add(fn func(*Stats)) {
	b.mu.Lock()
	fn(&b.st)
	b.mu.Unlock()
}

func (b *statsBox) get() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

func (b *statsBox) reset() {
	b.mu.Lock()
	b.st = Stats{}
	b.mu.Unlock()
}

// Status is a point-in-time view of the session
type Status struct {
	State       State
	Device      string
	LocalAddr   string
	ConnectedAt time.Time
	Touch       display.Touch
	Config      int32
	Stats       Stats
}

// Session emulates one S-Touch panel attached to one controller. Connect
// and Disconnect are serialized; touch and query methods may be called
// from any goroutine at any time.
type Session struct {
	cfg      Config
	display  *display.Model
	observer Observer

	opMu sync.Mutex // serializes Connect and Disconnect

	mu          sync.Mutex
	state       State
	conn        *net.UDPConn
	remote      *net.UDPAddr
	endpoint    Endpoint
	connectedAt time.Time
	loopDone    chan struct{}

	running atomic.Bool

	seqMu    sync.Mutex
	lastSeen int

	stats statsBox
}

// New creates a disconnected session
func New(cfg Config) *Session {
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.ReceiveTimeout <= 0 {
		cfg.ReceiveTimeout = DefaultReceiveTimeout
	}
	if cfg.Endpoint.Port == 0 {
		cfg.Endpoint.Port = DefaultPort
	}
	s := &Session{
		cfg:      cfg,
		display:  cfg.Display,
		observer: cfg.Observer,
	}
	if s.display == nil {
		s.display = display.New()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// SetEndpoint replaces the configured controller. It takes effect on the
// next Connect.
func (s *Session) SetEndpoint(ep Endpoint) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if ep.Port == 0 {
		ep.Port = DefaultPort
	}
	s.cfg.Endpoint = ep
}

// Display returns the emulated screen
func (s *Session) Display() *display.Model {
	return s.display
}

// State returns the current connection state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Connect performs the handshake and starts the receive loop
func (s *Session) Connect(ctx context.Context) ConnectResult {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	result := s.connect(ctx)
	s.observer.ConnectFinished(result)
	return result
}

func (s *Session) connect(ctx context.Context) ConnectResult {
	if s.State() != Disconnected {
		return AlreadyConnected
	}
	s.setState(Connecting)

	ep, result := s.resolveEndpoint(ctx)
	if result != Success {
		s.setState(Disconnected)
		return result
	}
	device := ep.String()

	remote, err := net.ResolveUDPAddr("udp4", device)
	if err != nil {
		logging.Warn("Cannot resolve device address", zap.String("device", device), zap.Error(err))
		s.setState(Disconnected)
		return NoDeviceFound
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: s.cfg.LocalPort})
	if err != nil {
		logging.Error("Failed to open UDP socket", zap.Int("local_port", s.cfg.LocalPort), zap.Error(err))
		s.setState(Disconnected)
		return SocketFailure
	}

	logging.LogSessionEvent(device, "connecting", zap.Int("retries", s.cfg.Retries))
	result = s.handshake(ctx, conn, remote, protocol.ConnectRequest(ep.Password), func(reply []byte) (ConnectResult, bool) {
		switch protocol.ClassifyConnectReply(reply) {
		case protocol.ConnectReplyAccepted:
			return Success, true
		case protocol.ConnectReplyWrongPassword:
			return WrongPassword, true
		case protocol.ConnectReplyInUse:
			return DeviceAlreadyInUse, true
		default:
			return Timeout, false
		}
	})
	logging.LogSessionEvent(device, "handshake_finished", zap.Stringer("result", result))

	if result != Success {
		_ = conn.Close()
		s.setState(Disconnected)
		return result
	}

	// normal operation: unbounded receive, cancelled by Disconnect
	_ = conn.SetReadDeadline(time.Time{})

	s.resetSequence()
	s.stats.reset()

	done := make(chan struct{})
	s.mu.Lock()
	s.conn = conn
	s.remote = remote
	s.endpoint = ep
	s.connectedAt = time.Now()
	s.loopDone = done
	s.state = Connected
	s.mu.Unlock()

	s.running.Store(true)
	go s.receiveLoop(conn, remote, done)
	return Success
}

func (s *Session) resolveEndpoint(ctx context.Context) (Endpoint, ConnectResult) {
	ep := s.cfg.Endpoint
	if ep.Address != "" {
		return ep, Success
	}
	if s.cfg.Locator == nil {
		logging.Warn("No device configured and discovery disabled")
		return Endpoint{}, NoDeviceFound
	}
	found, err := s.cfg.Locator.Locate(ctx)
	if err != nil {
		logging.Warn("Device discovery failed", zap.Error(err))
		return Endpoint{}, NoDeviceFound
	}
	if found.Port == 0 {
		found.Port = DefaultPort
	}
	return found, Success
}

// handshake sends request up to Retries times, waiting ReceiveTimeout for
// each reply. classify returns done=true for a recognized reply.
func (s *Session) handshake(ctx context.Context, conn *net.UDPConn, remote *net.UDPAddr, request []byte,
	classify func([]byte) (ConnectResult, bool)) ConnectResult {

	buf := make([]byte, protocol.MaxDatagramSize)
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		if ctx.Err() != nil {
			return Timeout
		}
		if s.cfg.Debug {
			logging.LogDatagram("send", remote.String(), request)
		}
		if _, err := conn.WriteToUDP(request, remote); err != nil {
			logging.Warn("Handshake send failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReceiveTimeout))
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			logging.Debug("No handshake reply", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if s.cfg.Debug {
			logging.LogDatagram("recv", from.String(), buf[:n])
		}
		if result, ok := classify(buf[:n]); ok {
			return result
		}
		logging.Debug("Unrecognized handshake reply", zap.Int("attempt", attempt), zap.Int("length", n))
	}
	return Timeout
}

// Disconnect stops the receive loop and says goodbye to the device. It is a
// no-op when not connected. The socket is closed whether or not the device
// confirms; the return value reports the confirmation.
func (s *Session) Disconnect(ctx context.Context) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.state != Connected {
		s.mu.Unlock()
		return false
	}
	s.state = Disconnected
	conn, remote, done := s.conn, s.remote, s.loopDone
	device := s.endpoint.String()
	s.conn, s.remote, s.loopDone = nil, nil, nil
	s.mu.Unlock()

	// flip first so the loop treats the aborted read as expected
	s.running.Store(false)
	_ = conn.SetReadDeadline(time.Now())
	<-done

	confirmed := s.handshake(ctx, conn, remote, protocol.DisconnectRequest(), func(reply []byte) (ConnectResult, bool) {
		return Success, protocol.IsDisconnectConfirm(reply)
	}) == Success

	if err := conn.Close(); err != nil {
		logging.Warn("Error closing UDP socket", zap.Error(err))
	}
	logging.LogSessionEvent(device, "disconnected", zap.Bool("confirmed", confirmed))
	return confirmed
}

// Receive error backoff bounds
const (
	receiveBackoffMin = 10 * time.Millisecond
	receiveBackoffMax = 500 * time.Millisecond
)

// receiveBackoff paces the receive loop through a run of socket errors.
// The delay doubles up to receiveBackoffMax; the first failure and every
// power of two after it are reported.
type receiveBackoff struct {
	count int
}

func (b *receiveBackoff) fail() (time.Duration, bool) {
	b.count++
	delay := receiveBackoffMax
	if shift := b.count - 1; shift < 6 {
		delay = min(receiveBackoffMin<<shift, receiveBackoffMax)
	}
	return delay, b.count&(b.count-1) == 0
}

func (b *receiveBackoff) reset() {
	b.count = 0
}

func (s *Session) receiveLoop(conn *net.UDPConn, remote *net.UDPAddr, done chan struct{}) {
	defer close(done)

	buf := make([]byte, protocol.MaxDatagramSize*2)
	var failures receiveBackoff
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if !s.running.Load() {
			return
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			delay, report := failures.fail()
			if report {
				logging.Warn("UDP receive failed",
					zap.Int("consecutive", failures.count),
					zap.Duration("retry_in", delay),
					zap.Error(err),
				)
			}
			time.Sleep(delay)
			continue
		}
		failures.reset()
		if !from.IP.Equal(remote.IP) {
			logging.Debug("Ignoring datagram from unknown peer", zap.String("from", from.String()))
			continue
		}

		datagram := buf[:n]
		if s.cfg.Debug {
			logging.LogDatagram("recv", from.String(), datagram)
		}

		reply := s.HandlePacket(datagram)
		if reply == nil {
			continue
		}
		if s.cfg.Debug {
			logging.LogDatagram("send", from.String(), reply)
		}
		if _, err := conn.WriteToUDP(reply, from); err != nil {
			logging.Warn("UDP send failed", zap.String("to", from.String()), zap.Error(err))
		}
	}
}

// Touch simulates a touch at (x, y)
func (s *Session) Touch(x, y int) {
	s.display.SetTouchAt(x, y)
}

// TouchButton simulates a touch inside button id
func (s *Session) TouchButton(id int) bool {
	return s.display.PushButton(id)
}

// TouchText simulates a touch on the first text equal to text
func (s *Session) TouchText(text string) bool {
	return s.display.TouchText(text)
}

// HasText reports whether text is currently shown
func (s *Session) HasText(text string) bool {
	return s.display.HasText(text)
}

// HasButton reports whether button id is currently registered
func (s *Session) HasButton(id int) bool {
	return s.display.HasButton(id)
}

// Subscribe forwards display change notifications, see display.Model.Subscribe
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	return s.display.Subscribe()
}

// Status returns a snapshot of the connection and counters
func (s *Session) Status() Status {
	s.mu.Lock()
	st := Status{
		State:       s.state,
		ConnectedAt: s.connectedAt,
	}
	if s.state == Connected {
		st.Device = s.endpoint.String()
		if s.conn != nil {
			st.LocalAddr = s.conn.LocalAddr().String()
		}
	}
	s.mu.Unlock()

	st.Touch = s.display.Touch()
	st.Config = s.display.Config()
	st.Stats = s.stats.get()
	return st
}

// LocalAddr returns the bound UDP address while connected
func (s *Session) LocalAddr() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("session not connected")
	}
	return s.conn.LocalAddr(), nil
}
