package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockConn records every message written to it.
type mockConn struct {
	messages []WebSocketMessage
	failNext bool
}

func (m *mockConn) WriteMessage(_ int, data []byte) error {
	if m.failNext {
		m.failNext = false
		return errors.New("write failed")
	}
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockConn) types() []string {
	out := make([]string, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.Type
	}
	return out
}

func encodeRequest(t *testing.T, req WebSocketSegmentRequest) []byte {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return data
}

func TestHandleWebSocketMessage_StreamsRounds(t *testing.T) {
	s := newTestServer(t)
	conn := &mockConn{}

	s.handleWebSocketMessage(context.Background(), conn, encodeRequest(t, WebSocketSegmentRequest{Image: outlinePNG(t)}))

	require.Equal(t, []string{msgStarted, msgRound, msgRound, msgRound, msgRound, msgCompleted}, conn.types())
	reqID := conn.messages[0].RequestID
	assert.NotEmpty(t, reqID)
	for _, msg := range conn.messages {
		assert.Equal(t, reqID, msg.RequestID)
	}

	started, ok := conn.messages[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 8, started["points"], 0)
	assert.InDelta(t, 4, started["rounds"], 0)
}

func TestHandleWebSocketMessage_Options(t *testing.T) {
	s := newTestServer(t)
	conn := &mockConn{}
	rounds := 1

	s.handleWebSocketMessage(context.Background(), conn, encodeRequest(t, WebSocketSegmentRequest{
		Image:   outlinePNG(t),
		Options: segmentOptions{Rounds: &rounds},
	}))

	assert.Equal(t, []string{msgStarted, msgRound, msgCompleted}, conn.types())
}

func TestHandleWebSocketMessage_Errors(t *testing.T) {
	s := newTestServer(t)
	negative := -1

	tests := []struct {
		name   string
		data   func() []byte
		substr string
	}{
		{"bad json", func() []byte { return []byte("{") }, "Failed to parse request"},
		{"no image", func() []byte { return []byte(`{"options":{}}`) }, "No image data provided"},
		{"undecodable image", func() []byte {
			return encodeRequest(t, WebSocketSegmentRequest{Image: []byte("nope")})
		}, "Failed to decode image"},
		{"invalid options", func() []byte {
			return encodeRequest(t, WebSocketSegmentRequest{Image: outlinePNG(t), Options: segmentOptions{Rounds: &negative}})
		}, "rounds must be non-negative"},
		{"contour leaves image", func() []byte {
			return encodeRequest(t, WebSocketSegmentRequest{Image: outlinePNG(t), Options: segmentOptions{Points: "1,1;1,5;5,1"}})
		}, "candidate outside image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockConn{}
			s.handleWebSocketMessage(context.Background(), conn, tt.data())

			require.NotEmpty(t, conn.messages)
			last := conn.messages[len(conn.messages)-1]
			assert.Equal(t, msgError, last.Type)
			assert.Contains(t, last.Error, tt.substr)

			errorsSeen := 0
			for _, msg := range conn.messages {
				if msg.Type == msgError {
					errorsSeen++
				}
			}
			assert.Equal(t, 1, errorsSeen)
		})
	}
}

func TestSendWebSocketMessage_WriteFailure(t *testing.T) {
	s := newTestServer(t)
	conn := &mockConn{failNext: true}

	s.sendWebSocketMessage(conn, WebSocketMessage{Type: msgStarted})
	assert.Empty(t, conn.messages)

	s.sendWebSocketMessage(conn, WebSocketMessage{Type: msgStarted})
	assert.Len(t, conn.messages, 1)
}

func TestSegmentWebSocketHandler_EndToEnd(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/segment"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, encodeRequest(t, WebSocketSegmentRequest{Image: outlinePNG(t)})))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var got []string
	var final WebSocketMessage
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		got = append(got, msg.Type)
		if msg.Type == msgCompleted || msg.Type == msgError {
			final = msg
			break
		}
	}

	assert.Equal(t, []string{msgStarted, msgRound, msgRound, msgRound, msgRound, msgCompleted}, got)
	result, ok := final.Payload.(map[string]any)
	require.True(t, ok)
	points, ok := result["points"].([]any)
	require.True(t, ok)
	assert.Len(t, points, 8)
}
