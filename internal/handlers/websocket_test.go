package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/pdfdesk/internal/models"
)

type wsReceived struct {
	Type             string          `json:"type"`
	ServerInstanceID string          `json:"server_instance_id"`
	Payload          json.RawMessage `json:"payload"`
}

func dialSession(t *testing.T, h *WebSocketHandler, sessionID string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) (wsReceived, bool) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	var msg wsReceived
	if err := conn.ReadJSON(&msg); err != nil {
		return msg, false
	}
	return msg, true
}

func viewOf(t *testing.T, msg wsReceived) models.SessionView {
	t.Helper()
	var view models.SessionView
	require.NoError(t, json.Unmarshal(msg.Payload, &view))
	return view
}

func TestWebSocket_InitialProjectionAndUpdates(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter, letter)
	h := NewWebSocketHandler(f.editor, f.events, 0, f.logger)
	t.Cleanup(h.Close)

	conn := dialSession(t, h, s.ID())

	msg, ok := readMessage(t, conn, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, MessageSession, msg.Type)
	assert.NotEmpty(t, msg.ServerInstanceID)
	initial := viewOf(t, msg)
	assert.Equal(t, s.ID(), initial.ID)
	assert.Equal(t, 2, initial.PageCount)

	require.Eventually(t, func() bool { return h.ClientCount(s.ID()) == 1 }, time.Second, 10*time.Millisecond)

	_, err := s.AddText(1, models.Point{X: 1, Y: 1}, "pushed", "")
	require.NoError(t, err)

	msg, ok = readMessage(t, conn, 2*time.Second)
	require.True(t, ok)
	require.Equal(t, MessageSession, msg.Type)
	update := viewOf(t, msg)
	assert.Greater(t, update.Version, initial.Version)
	assert.Len(t, update.Pages[0].Annotations.Texts, 1)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	f := newFixture(t)
	h := NewWebSocketHandler(f.editor, f.events, 0, f.logger)
	t.Cleanup(h.Close)

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"missing", "", http.StatusBadRequest},
		{"unknown", "?session=nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL+tt.query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestWebSocket_ThrottleKeepsLatest(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter)
	h := NewWebSocketHandler(f.editor, f.events, 200*time.Millisecond, f.logger)
	t.Cleanup(h.Close)

	conn := dialSession(t, h, s.ID())
	_, ok := readMessage(t, conn, 2*time.Second)
	require.True(t, ok)
	require.Eventually(t, func() bool { return h.ClientCount(s.ID()) == 1 }, time.Second, 10*time.Millisecond)

	const edits = 8
	for i := 0; i < edits; i++ {
		_, err := s.AddText(1, models.Point{X: float64(i), Y: 1}, "burst", "")
		require.NoError(t, err)
	}
	final := s.View().Version

	var views []models.SessionView
	for {
		msg, ok := readMessage(t, conn, time.Second)
		if !ok {
			break
		}
		if msg.Type == MessageSession {
			views = append(views, viewOf(t, msg))
		}
		if len(views) > 0 && views[len(views)-1].Version == final {
			break
		}
	}

	require.NotEmpty(t, views)
	assert.Less(t, len(views), edits, "bursts are coalesced")
	assert.Equal(t, final, views[len(views)-1].Version, "trailing flush delivers the latest view")
	assert.Len(t, views[len(views)-1].Pages[0].Annotations.Texts, edits)
	for i := 1; i < len(views); i++ {
		assert.Greater(t, views[i].Version, views[i-1].Version, "stale views are dropped")
	}
}

func TestWebSocket_ExportStatusAndClose(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter)
	h := NewWebSocketHandler(f.editor, f.events, 0, f.logger)
	t.Cleanup(h.Close)

	conn := dialSession(t, h, s.ID())
	_, ok := readMessage(t, conn, 2*time.Second)
	require.True(t, ok)
	require.Eventually(t, func() bool { return h.ClientCount(s.ID()) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, s.StartExport(models.ExportRequest{}))

	var sawDone bool
	for !sawDone {
		msg, ok := readMessage(t, conn, 5*time.Second)
		require.True(t, ok, "export status never arrived")
		if msg.Type != MessageExportStatus {
			continue
		}
		var state models.ExportState
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		sawDone = state.Status == models.ExportDone
	}

	require.NoError(t, f.editor.CloseSession(t.Context(), s.ID()))
	for {
		msg, ok := readMessage(t, conn, 2*time.Second)
		require.True(t, ok, "session_closed never arrived")
		if msg.Type == MessageSessionClosed {
			break
		}
	}
	require.Eventually(t, func() bool { return h.ClientCount(s.ID()) == 0 }, 2*time.Second, 10*time.Millisecond)
}
