package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/middleware"
	"deskmates.dev/internal/services"
)

const (
	writeWait = 5 * time.Second
	pongWait  = 60 * time.Second
)

// SceneHandler serves the office scene
type SceneHandler struct {
	sceneService *services.SceneService
	upgrader     websocket.Upgrader
	log          logrus.FieldLogger
}

// NewSceneHandler creates a new SceneHandler
func NewSceneHandler(ss *services.SceneService, log logrus.FieldLogger) *SceneHandler {
	return &SceneHandler{
		sceneService: ss,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// GetScene handles GET /api/scene - layout, manifest and tick rate
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sceneService.Info())
}

// GetFrame handles GET /api/scene/frame - the most recent frame
func (h *SceneHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sceneService.Current())
}

// Stream handles GET /api/scene/ws - pushes every frame over a websocket
func (h *SceneHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := h.log.WithField("request_id", middleware.GetRequestID(r.Context()))
	frames, cancel := h.sceneService.Subscribe()
	defer cancel()

	// Reader loop: viewers send nothing, but reading notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pongWait / 2)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case b, ok := <-frames:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.WithError(err).Debug("frame stream closed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
