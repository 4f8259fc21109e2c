package api

import (
	"net/http"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"
)

// StreamLines upgrades the request to a websocket and sends every rendered
// line as a text message until either side goes away.
func StreamLines(s *Service, w http.ResponseWriter, r *http.Request) {
	lines, unsub, ok := s.subscribe()
	if !ok {
		http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer unsub()

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.WithError(err).Error("Failed to accept stream client")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "closing")

	// Clients only listen; CloseRead handles their control frames and
	// cancels ctx when they disconnect.
	ctx := c.CloseRead(r.Context())

	log.WithField("remote", r.RemoteAddr).Info("Stream client connected")
	defer log.WithField("remote", r.RemoteAddr).Info("Stream client disconnected")

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := c.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
				log.WithError(err).WithField("remote", r.RemoteAddr).Debug("Failed to write to stream client")
				return
			}
		}
	}
}
