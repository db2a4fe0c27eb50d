package handlers

import (
	"net/http"
	"net/url"
	"studyplanner-backend/internal/events"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/pkg/httputil"
	"studyplanner-backend/pkg/log"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// snapshotEvent is sent once when a stream opens, carrying the thread as it is.
const snapshotEvent events.EventType = "snapshot"

// StreamHandler pushes thread events to websocket clients.
type StreamHandler struct {
	chatService ChatService
	hub         *events.Hub
	upgrader    websocket.Upgrader
}

// NewStreamHandler creates a StreamHandler. Same-host origins are always
// accepted, other origins only when listed in allowedOrigins.
func NewStreamHandler(chatSvc ChatService, hub *events.Hub, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &StreamHandler{
		chatService: chatSvc,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// HandleThreadStream handles GET /api/v1/threads/{threadID}/ws
func (h *StreamHandler) HandleThreadStream(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var projectID uuid.UUID
	if threadID != models.GeneralThreadID {
		id, err := uuid.Parse(threadID)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid thread ID format")
			return
		}
		projectID = id
		threadID = id.String()
	}

	// Subscribe before reading the snapshot: an event published in between is
	// then queued on sub instead of lost.
	sub, unsubscribe := h.hub.Subscribe(threadID)
	defer unsubscribe()

	var (
		msgs []models.Message
		err  error
	)
	if threadID == models.GeneralThreadID {
		msgs, err = h.chatService.GeneralMessages(r.Context())
	} else {
		msgs, err = h.chatService.ProjectMessages(r.Context(), projectID)
	}
	if err != nil {
		respondServiceError(w, "StreamHandler", "HandleThreadStream "+threadID, err, "Failed to open thread stream")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("[StreamHandler] WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()
	log.Infof("[StreamHandler] Stream opened for thread %s", threadID)

	// The reader only drains control frames; clients never send data.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := events.Event{Type: snapshotEvent, ThreadID: threadID, Messages: msgs, Timestamp: time.Now()}
	if err := writeEvent(conn, snapshot); err != nil {
		log.Warnf("[StreamHandler] Failed to write snapshot for thread %s: %v", threadID, err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				log.Warnf("[StreamHandler] Failed to write event for thread %s: %v", threadID, err)
				return
			}
			if ev.Type == events.EventProjectDeleted {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "project deleted"),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Debugf("[StreamHandler] Client closed stream for thread %s", threadID)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev events.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
