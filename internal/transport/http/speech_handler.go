package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/roamplan/roamplan-backend/internal/service"
	"github.com/roamplan/roamplan-backend/internal/speech"
	"github.com/roamplan/roamplan-backend/internal/util"
)

type SpeechHandler struct {
	cfg      speech.Config
	upgrader websocket.Upgrader
}

func RegisterSpeech(e *echo.Echo, auth *service.AuthService, cfg speech.Config) {
	handler := &SpeechHandler{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Origins are already filtered by the CORS layer; the
				// socket carries only the caller's own audio.
				return true
			},
		},
	}

	e.GET("/api/v1/speech/dictation", handler.dictation, RequireAuth(auth))
}

type speechClientCommand struct {
	Action string `json:"action"`
}

// dictation bridges a browser websocket to the recognition service: binary
// frames carry 16 kHz 16-bit mono PCM downstream, JSON text frames carry
// transcript updates back. A {"action":"stop"} text frame ends the audio and
// flushes the final transcript.
func (h *SpeechHandler) dictation(c echo.Context) error {
	client, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer client.Close()

	// Callbacks land on the session's reader goroutine while commands are
	// handled here, so writes to the client socket are serialized.
	var writeMu sync.Mutex
	writeJSON := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := client.WriteJSON(v); err != nil {
			log.Printf("speech: client write failed: %v", err)
		}
	}

	done := make(chan struct{})
	var closeOnce sync.Once
	finish := func() { closeOnce.Do(func() { close(done) }) }

	session, err := speech.Dial(c.Request().Context(), h.cfg,
		func(r speech.Result) {
			writeJSON(r)
			if r.Final {
				finish()
			}
		},
		func(err error) {
			writeJSON(util.Error(err.Error()))
			finish()
		},
	)
	if err != nil {
		writeJSON(util.Error("dictation service unavailable"))
		return nil
	}
	defer session.Close()

	go func() {
		for {
			messageType, payload, err := client.ReadMessage()
			if err != nil {
				_ = session.Stop()
				finish()
				return
			}

			switch messageType {
			case websocket.BinaryMessage:
				if err := session.WriteAudio(payload); err != nil {
					log.Printf("speech: audio relay failed: %v", err)
				}
			case websocket.TextMessage:
				var cmd speechClientCommand
				if err := json.Unmarshal(payload, &cmd); err != nil {
					cmd.Action = strings.TrimSpace(string(payload))
				}
				if strings.EqualFold(cmd.Action, "stop") {
					_ = session.Stop()
				}
			}
		}
	}()

	select {
	case <-done:
	case <-c.Request().Context().Done():
	}
	return nil
}
