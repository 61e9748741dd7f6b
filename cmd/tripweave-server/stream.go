package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/planner"
	"github.com/gorilla/websocket"
)

const (
	readRequestTimeout = 10 * time.Second
	writeWait          = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 << 10,
	WriteBufferSize: 16 << 10,
}

// streamError is sent as a failed event before the socket closes.
type streamError struct {
	Stage planner.Stage `json:"stage"`
	Error string        `json:"error"`
	Code  string        `json:"code,omitempty"`
}

// handleStream upgrades to a websocket, reads one itinerary request, and
// relays planner events until done or failed.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	requestID := w.Header().Get("X-Request-ID")
	ip := clientIP(r)
	if !s.limiter.allow(ip) {
		s.writeJSON(w, http.StatusTooManyRequests, apiError{Error: "Rate limit exceeded", Code: "RATE_LIMITED"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "request_id", requestID, "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debug("Websocket close failed", "error", err)
		}
	}()
	conn.SetReadLimit(maxBodyBytes)

	var body itineraryRequest
	if err := conn.SetReadDeadline(time.Now().Add(readRequestTimeout)); err != nil {
		return
	}
	if err := conn.ReadJSON(&body); err != nil {
		s.sendFailure(conn, errors.Join(errBadRequest, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()
	go s.watchClose(conn, cancel)

	req, err := s.plan(ctx, body)
	if err != nil {
		s.sendFailure(conn, err)
		return
	}

	for e := range s.app.Planner.Stream(ctx, req) {
		if e.Stage == planner.Failed {
			s.sendFailure(conn, e.Err)
			return
		}
		if err := s.send(conn, e); err != nil {
			s.logger.Debug("Websocket write failed", "request_id", requestID, "error", err)
			cancel()
			continue
		}
		if e.Stage == planner.Done {
			s.logger.Info("Streamed itinerary", "request_id", requestID, "city", req.CityID)
		}
	}
	s.closeNormally(conn)
}

// watchClose cancels generation when the client goes away.
func (s *server) watchClose(conn *websocket.Conn, cancel context.CancelFunc) {
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		cancel()
		return
	}
	for {
		if _, _, err := conn.NextReader(); err != nil {
			cancel()
			return
		}
	}
}

func (s *server) send(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func (s *server) sendFailure(conn *websocket.Conn, err error) {
	_, apiErr := failure(err)
	if werr := s.send(conn, streamError{Stage: planner.Failed, Error: apiErr.Error, Code: apiErr.Code}); werr != nil {
		s.logger.Debug("Websocket write failed", "error", werr)
	}
	s.closeNormally(conn)
}

func (s *server) closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("Websocket close message failed", "error", err)
	}
}
