package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHost = "iat-api.xfyun.cn"
	iatPath     = "/v2/iat"

	audioFormat   = "audio/L16;rate=16000"
	audioEncoding = "raw"

	// Frame status values on the audio stream.
	frameFirst    = 0
	frameContinue = 1
	frameLast     = 2
)

// Session states.
type state int

const (
	stateIdle state = iota
	stateConnecting
	stateStreaming
	stateFinished
	stateErrored
)

type Config struct {
	AppID     string
	APIKey    string
	APISecret string
	Host      string // defaults to the public IAT endpoint
}

// Result is one transcript update. Final marks the end-of-stream result.
type Result struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Session is one streaming dictation exchange with the recognition service.
// Audio is 16 kHz 16-bit mono PCM; results arrive through the callbacks on a
// dedicated reader goroutine.
type Session struct {
	conn       *websocket.Conn
	transcript Transcript
	onResult   func(Result)
	onError    func(error)

	mu    sync.Mutex
	state state
}

type openFrame struct {
	Common struct {
		AppID string `json:"app_id"`
	} `json:"common"`
	Business struct {
		Language string `json:"language"`
		Domain   string `json:"domain"`
		Accent   string `json:"accent"`
		VadEOS   int    `json:"vad_eos"`
		DWA      string `json:"dwa"`
	} `json:"business"`
	Data audioData `json:"data"`
}

type audioData struct {
	Status   int    `json:"status"`
	Format   string `json:"format"`
	Encoding string `json:"encoding"`
	Audio    string `json:"audio"`
}

type audioFrame struct {
	Data audioData `json:"data"`
}

type serverFrame struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	SID     string `json:"sid"`
	Data    struct {
		Status int `json:"status"`
		Result struct {
			PGS string `json:"pgs"`
			WS  []struct {
				CW []struct {
					W string `json:"w"`
				} `json:"cw"`
			} `json:"ws"`
		} `json:"result"`
	} `json:"data"`
}

// Dial opens a signed socket to the recognition service and sends the
// control frame declaring the audio format and recognition parameters:
// Mandarin dictation with a 5 s end-of-speech threshold and incremental
// correction enabled. Results and errors are delivered via the callbacks
// until the server closes the exchange or Stop is called.
func Dial(ctx context.Context, cfg Config, onResult func(Result), onError func(error)) (*Session, error) {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}

	s := &Session{onResult: onResult, onError: onError, state: stateConnecting}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, SignURL(host, iatPath, cfg.APIKey, cfg.APISecret, time.Now()), nil)
	if err != nil {
		s.state = stateErrored
		return nil, &StreamError{Message: "connect failed", Err: err}
	}
	s.conn = conn

	var open openFrame
	open.Common.AppID = cfg.AppID
	open.Business.Language = "zh_cn"
	open.Business.Domain = "iat"
	open.Business.Accent = "mandarin"
	open.Business.VadEOS = 5000
	open.Business.DWA = "wpgs"
	open.Data = audioData{Status: frameFirst, Format: audioFormat, Encoding: audioEncoding}

	if err := conn.WriteJSON(open); err != nil {
		conn.Close()
		s.state = stateErrored
		return nil, &StreamError{Message: "handshake failed", Err: err}
	}

	s.state = stateStreaming
	go s.readLoop()
	return s, nil
}

// WriteAudio sends one PCM frame. Frames arriving while the socket is not
// streaming are dropped.
func (s *Session) WriteAudio(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateStreaming {
		return nil
	}
	return s.conn.WriteJSON(audioFrame{Data: audioData{
		Status:   frameContinue,
		Format:   audioFormat,
		Encoding: audioEncoding,
		Audio:    base64.StdEncoding.EncodeToString(pcm),
	}})
}

// Stop ends the exchange from our side: an explicit end-of-audio frame when
// the socket is still open, then teardown. The final transcript, if any,
// still arrives through onResult before the server closes.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateStreaming {
		return nil
	}
	err := s.conn.WriteJSON(audioFrame{Data: audioData{
		Status:   frameLast,
		Format:   audioFormat,
		Encoding: audioEncoding,
	}})
	s.state = stateFinished
	return err
}

// Close releases the socket regardless of state.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Session) readLoop() {
	defer s.conn.Close()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			finished := s.state == stateFinished
			s.state = stateErrored
			s.mu.Unlock()
			if !finished && s.onError != nil {
				s.onError(&StreamError{Message: "read failed", Err: err})
			}
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}

		if frame.Code != 0 {
			s.mu.Lock()
			s.state = stateErrored
			s.mu.Unlock()
			if s.onError != nil {
				s.onError(&StreamError{Code: frame.Code, Message: frame.Message})
			}
			return
		}

		if len(frame.Data.Result.WS) > 0 {
			var segment []byte
			for _, ws := range frame.Data.Result.WS {
				if len(ws.CW) > 0 {
					segment = append(segment, ws.CW[0].W...)
				}
			}
			text := s.transcript.Apply(frame.Data.Result.PGS, string(segment))
			if s.onResult != nil {
				s.onResult(Result{Text: text})
			}
		}

		if frame.Data.Status == frameLast {
			s.mu.Lock()
			s.state = stateFinished
			s.mu.Unlock()
			if s.onResult != nil {
				s.onResult(Result{Text: s.transcript.Text(), Final: true})
			}
			return
		}
	}
}
