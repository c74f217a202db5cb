package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/engine"
	"github.com/stemsi/exstem-mockexam/internal/response"
	"github.com/stemsi/exstem-mockexam/internal/service"
	ws "github.com/stemsi/exstem-mockexam/internal/websocket"
)

// eventBuffer is how many engine events may queue for a slow client before
// ticks are dropped.
const eventBuffer = 16

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a learner's mock exam over a WebSocket: engine events
// go out as they happen and exam inputs come in as actions.
type WSHandler struct {
	mockExams *service.MockExamService
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(mockExams *service.MockExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		mockExams: mockExams,
		log:       log.With().Str("component", "ws_handler").Logger(),
		upgrader:  buildUpgrader(allowedOrigins),
	}
}

var engineEvents = map[engine.EventType]ws.Event{
	engine.EventStarted:   ws.EventStarted,
	engine.EventTick:      ws.EventTick,
	engine.EventSubmitted: ws.EventSubmitted,
	engine.EventReset:     ws.EventReset,
}

// Stream godoc
// WS /ws/v1/mock-exams/current/stream?token=...
func (h *WSHandler) Stream(c *gin.Context) {
	user, ok := userFrom(c)
	if !ok {
		return
	}
	sess := h.mockExams.Attach(user)

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", user.ID).Logger()
	wsLog.Info().Msg("Learner connected")

	events := make(chan engine.Event, eventBuffer)
	done := make(chan struct{})
	defer close(done)

	unsubscribe := sess.OnEvent(func(ev engine.Event) {
		select {
		case events <- ev:
		case <-done:
		default:
			if ev.Type != engine.EventTick {
				// Lifecycle events must not be lost behind ticks.
				select {
				case events <- ev:
				case <-done:
				}
			}
		}
	})
	defer unsubscribe()

	go func() {
		for {
			select {
			case <-done:
				return
			case ev := <-events:
				if err := conn.WriteEvent(engineEvents[ev.Type], ev); err != nil {
					wsLog.Debug().Err(err).Msg("Event write failed")
					return
				}
			}
		}
	}()

	_ = conn.WriteEvent(ws.EventSnapshot, sess.Snapshot())

	for {
		var msg ws.Request
		if err := conn.Read(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.dispatch(conn, sess, wsLog, msg)
	}
}

func (h *WSHandler) dispatch(conn *ws.Conn, sess *engine.Session, log zerolog.Logger, msg ws.Request) {
	var (
		data interface{}
		err  error
	)

	switch msg.Action {
	case ws.ActionPing:
		_ = conn.WriteEvent(ws.EventPong, nil)
		return
	case ws.ActionSnapshot:
		_ = conn.WriteEvent(ws.EventSnapshot, sess.Snapshot())
		return
	case ws.ActionAnswer:
		if msg.Index == nil {
			err = engine.ErrIndexOutOfRange
			break
		}
		err = sess.AnswerJSON(*msg.Index, msg.Answer)
		data = sess.Snapshot()
	case ws.ActionClear:
		if msg.Index == nil {
			err = engine.ErrIndexOutOfRange
			break
		}
		err = sess.ClearAnswer(*msg.Index)
		data = sess.Snapshot()
	case ws.ActionFlag:
		if msg.Index == nil {
			err = engine.ErrIndexOutOfRange
			break
		}
		var flagged bool
		flagged, err = sess.ToggleFlag(*msg.Index)
		data = gin.H{"index": *msg.Index, "flagged": flagged}
	case ws.ActionNavigate:
		if msg.Index == nil {
			err = engine.ErrIndexOutOfRange
			break
		}
		err = sess.NavigateTo(*msg.Index)
		data = sess.Snapshot()
	case ws.ActionKey:
		err = sess.HandleKey(engine.Key(msg.Key))
		data = sess.Snapshot()
	case ws.ActionSubmit:
		data, err = sess.Submit()
	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		_ = conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		return
	}

	if err != nil {
		_, code, _ := classify(err)
		if code == response.ErrInternal {
			log.Error().Err(err).Str("action", string(msg.Action)).Msg("Action failed")
		}
		_ = conn.WriteError(string(code), response.GetMessage(code))
		return
	}
	_ = conn.WriteEvent(ws.EventAck, data)
}
