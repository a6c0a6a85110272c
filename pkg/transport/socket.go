package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// errClosedByClient fails requests still pending when the client tears the socket down.
var errClosedByClient = fmt.Errorf("%w: connection closed", domain.ErrConnection)

// socket is one WebSocket connection plus its reader goroutine and correlator.
type socket struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	pending *correlator

	writeMu sync.Mutex

	// authResults receives auth_result messages. Buffered so the reader never blocks.
	authResults chan inboundMessage

	done       chan struct{}
	readerDone chan struct{}
	closeOnce  sync.Once
	err        error

	onClose func(*socket, error)
}

// dialSocket opens the connection and starts the reader.
func dialSocket(ctx context.Context, dialer *websocket.Dialer, url string, logger *slog.Logger, onClose func(*socket, error)) (*socket, error) {
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrConnection, url, err)
	}

	s := &socket{
		conn:        conn,
		logger:      logger,
		pending:     newCorrelator(),
		authResults: make(chan inboundMessage, 1),
		done:        make(chan struct{}),
		readerDone:  make(chan struct{}),
		onClose:     onClose,
	}
	go s.readLoop()
	logger.Debug("websocket connection established", "url", url)
	return s, nil
}

func (s *socket) readLoop() {
	defer close(s.readerDone)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.shutdown(fmt.Errorf("%w: %v", domain.ErrConnection, err))
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("dropping malformed socket message", "err", err, "size", len(data))
			continue
		}

		switch msg.Type {
		case msgAuthResult:
			select {
			case s.authResults <- msg:
			default:
			}
			if !msg.Success {
				s.shutdown(fmt.Errorf("%w: %s", domain.ErrAuthFailed, msg.Message))
				return
			}
		case msgCompletionResult:
			if !s.pending.resolve(msg) {
				s.logger.Debug("ignoring unmatched completion result", "request_id", msg.RequestID)
			}
		default:
			s.logger.Debug("ignoring socket message", "type", msg.Type)
		}
	}
}

func (s *socket) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// authenticate sends the credential and waits for the server acknowledgment.
func (s *socket) authenticate(ctx context.Context, apiKey string, timeout time.Duration) error {
	if err := s.writeJSON(authMessage{Type: msgAuth, APIKey: apiKey}); err != nil {
		return fmt.Errorf("%w: send auth: %v", domain.ErrConnection, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-s.authResults:
		if !res.Success {
			return fmt.Errorf("%w: %s", domain.ErrAuthFailed, res.Message)
		}
		return nil
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.ErrConnection, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: no auth_result after %s", domain.ErrTimeout, timeout)
	}
}

// complete sends one completion request and waits for the matching reply.
func (s *socket) complete(ctx context.Context, id string, env completionEnvelope, timeout time.Duration) (string, error) {
	replies, err := s.pending.register(id)
	if err != nil {
		return "", err
	}
	// No-op once the reply was delivered; removes the entry on timeout or cancellation.
	defer s.pending.cancel(id)

	req := socketCompletionRequest{
		completionEnvelope: env,
		Type:               msgCompletion,
		RequestID:          id,
	}
	if err := s.writeJSON(req); err != nil {
		return "", fmt.Errorf("%w: send completion: %v", domain.ErrConnection, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-replies:
		if r.err != nil {
			return "", r.err
		}
		if r.msg.Error != "" {
			return "", &domain.RemoteError{Message: r.msg.Error}
		}
		if r.msg.Text == nil {
			return "", fmt.Errorf("%w: completion result %s has no text", domain.ErrProtocol, id)
		}
		return *r.msg.Text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("%w: request %s after %s", domain.ErrTimeout, id, timeout)
	}
}

// shutdown closes the connection once, failing every pending request with reason.
func (s *socket) shutdown(reason error) {
	s.closeOnce.Do(func() {
		s.err = reason
		close(s.done)

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()

		s.pending.failAll(reason)

		if !errors.Is(reason, errClosedByClient) {
			s.logger.Warn("websocket connection closed", "err", reason)
		}
		if s.onClose != nil {
			s.onClose(s, reason)
		}
	})
}

// close tears the connection down from the client side and waits for the reader to exit.
func (s *socket) close() {
	s.shutdown(errClosedByClient)
	<-s.readerDone
}

func (s *socket) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
