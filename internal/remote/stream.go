package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"chatsync/internal/events"
	"chatsync/internal/models"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
	subscriberBuffer  = 100
)

type wsConnection interface {
	Close() error
	ReadJSON(v any) error
}

type StreamConfig struct {
	URL           string
	Token         string
	CurrentUserID string
	RetryDelay    time.Duration
	Logger        *slog.Logger
}

// Stream keeps a websocket connection to the backend event feed, reconnecting
// until its context ends or the backend rejects the credentials. Inbound
// messages are classified and published to Events subscribers; connection
// state transitions are published to States subscribers.
type Stream struct {
	cfg    StreamConfig
	dialer *websocket.Dialer
	logger *slog.Logger
	events *hub[models.RemoteEvent]
	states *hub[models.ConnectionState]

	mu    sync.RWMutex
	state models.ConnectionState
}

func NewStream(cfg StreamConfig) *Stream {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		logger: logger,
		events: newHub[models.RemoteEvent]("events", subscriberBuffer, logger),
		states: newHub[models.ConnectionState]("states", subscriberBuffer, logger),
		state:  models.ConnectionDisconnected,
	}
}

// StreamURL derives the event feed address from the REST base url.
func StreamURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.JoinPath("events").String(), nil
}

func (s *Stream) Events() (<-chan models.RemoteEvent, func()) {
	return s.events.subscribe()
}

func (s *Stream) States() (<-chan models.ConnectionState, func()) {
	return s.states.subscribe()
}

func (s *Stream) State() models.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Stream) setState(state models.ConnectionState) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()

	if changed {
		s.states.publish(state)
	}
}

// Run blocks until ctx is done or the backend answers the handshake with 401.
// Subscriber channels are closed when Run returns.
func (s *Stream) Run(ctx context.Context) error {
	defer func() {
		s.events.close()
		s.states.close()
	}()

	delay := s.cfg.RetryDelay
	for {
		s.setState(models.ConnectionConnecting)

		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.setState(models.ConnectionDisconnected)
				return nil
			}
			if isUnauthorized(err) {
				s.setState(models.ConnectionUnauthorized)
				return err
			}
			s.setState(models.ConnectionDisconnected)
			s.logger.Warn("event stream dial failed", "url", s.cfg.URL, "retry_in", delay, "error", err)
		} else {
			s.setState(models.ConnectionConnected)
			delay = s.cfg.RetryDelay
			err = s.handle(ctx, conn)
			s.setState(models.ConnectionDisconnected)
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("event stream dropped", "retry_in", delay, "error", err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

type dialError struct {
	status int
	err    error
}

func (e *dialError) Error() string {
	return fmt.Sprintf("dial failed (status %d): %v", e.status, e.err)
}

func (e *dialError) Unwrap() error { return e.err }

func isUnauthorized(err error) bool {
	de, ok := err.(*dialError)
	return ok && de.status == http.StatusUnauthorized
}

func (s *Stream) dial(ctx context.Context) (wsConnection, error) {
	header := http.Header{}
	if s.cfg.Token != "" {
		header.Set("token", s.cfg.Token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
			_ = resp.Body.Close()
		}
		if status == http.StatusUnauthorized {
			return nil, &dialError{status: status, err: ErrUnauthorized}
		}
		return nil, &dialError{status: status, err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)}
	}
	return conn, nil
}

func (s *Stream) handle(ctx context.Context, conn wsConnection) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.pumpMessages(conn)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return conn.Close()
	})

	return g.Wait()
}

func (s *Stream) pumpMessages(conn wsConnection) error {
	for {
		var msg models.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.DialogID == "" {
			s.logger.Warn("dropping event without dialog id", "message_id", msg.ID)
			continue
		}
		s.events.publish(events.FromMessage(sanitizeMessage(msg), s.cfg.CurrentUserID))
	}
}
