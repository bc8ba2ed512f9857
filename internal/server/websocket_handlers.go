package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/MeKo-Tech/snake/internal/utils"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is left to the CORS setting of the HTTP routes
		return true
	},
}

// WebSocket message types.
const (
	msgStarted   = "started"
	msgRound     = "round"
	msgCompleted = "completed"
	msgError     = "error"
)

// WebSocketMessage represents a message sent over WebSocket.
type WebSocketMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WebSocketSegmentRequest is one segmentation request. Image carries the
// encoded file bytes, base64 in JSON.
type WebSocketSegmentRequest struct {
	Image   []byte         `json:"image"`
	Options segmentOptions `json:"options"`
}

// startedPayload announces the contour size before the first round.
type startedPayload struct {
	Points int `json:"points"`
	Rounds int `json:"rounds"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// segmentWebSocketHandler streams per-round progress for segmentation
// requests.
func (s *Server) segmentWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	// Increment active connections metric
	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	// Base64 inflates the image by a third; leave room for the options
	conn.SetReadLimit(s.maxUploadMB * 1024 * 1024 * 2)
	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		// Read message from client
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		// Record message metric
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage decodes and runs one request.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	// Generate a request ID for tracking
	requestID := fmt.Sprintf("%d", time.Now().UnixNano())

	var req WebSocketSegmentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, requestID, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, requestID, "No image data provided")
		return
	}
	// Decode image
	img, _, err := utils.DecodeImage(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, requestID, fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	// Rounds stream out as they finish; completion comes from OnComplete
	stream := &wsProgress{server: s, conn: conn, requestID: requestID}
	out := s.segment(ctx, img, req.Options, stream)
	// Record metrics
	recordSegment("websocket", out)
	if out.err != nil {
		// OnError already reported failures that happened inside the pipeline
		if !stream.failed {
			s.sendWebSocketError(conn, requestID, out.err.Error())
		}
	}
}

// sendWebSocketMessage marshals and writes msg.
func (s *Server) sendWebSocketMessage(conn WebSocketConnWriter, msg WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal WebSocket message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, message string) {
	s.sendWebSocketMessage(conn, WebSocketMessage{Type: msgError, RequestID: requestID, Error: message})
}

// wsProgress forwards pipeline progress to a WebSocket client.
type wsProgress struct {
	server    *Server
	conn      WebSocketConnWriter
	requestID string
	failed    bool
}

func (p *wsProgress) OnStart(points, rounds int) {
	p.server.sendWebSocketMessage(p.conn, WebSocketMessage{
		Type:      msgStarted,
		RequestID: p.requestID,
		Payload:   startedPayload{Points: points, Rounds: rounds},
	})
}

func (p *wsProgress) OnRound(stats snake.RoundStats) {
	p.server.sendWebSocketMessage(p.conn, WebSocketMessage{Type: msgRound, RequestID: p.requestID, Payload: stats})
}

func (p *wsProgress) OnComplete(res *pipeline.Result) {
	p.server.sendWebSocketMessage(p.conn, WebSocketMessage{Type: msgCompleted, RequestID: p.requestID, Payload: res})
}

func (p *wsProgress) OnError(err error) {
	p.failed = true
	p.server.sendWebSocketError(p.conn, p.requestID, err.Error())
}
