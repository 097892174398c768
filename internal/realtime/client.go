package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/poll"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SessionController is the subset of the poll controller driven by client
// messages.
type SessionController interface {
	CreateSession(ownerHandle string) *poll.Session
	Join(handle, code, displayName string) error
	AskQuestion(handle, code, question string, options []string, timeLimitSeconds int) error
	SubmitAnswer(handle, code, option string) error
	RemoveParticipant(ownerHandle, code, displayName string) error
	NextAllowed(code string) (bool, error)
	History(code string) ([]models.RoundSummary, error)
	Disconnect(handle string)
}

// Client represents a single WebSocket connection. The handle is the
// transient identity for the lifetime of the connection: it is the owner
// credential for sessions it creates and the roster key for sessions it
// joins.
type Client struct {
	Handle string
	hub    *Hub
	ctrl   SessionController
	conn   *websocket.Conn
	send   chan WSMessage
	rooms  map[string]bool // guarded by hub.mu
	logger *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, ctrl SessionController, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			Handle: uuid.NewString(),
			hub:    hub,
			ctrl:   ctrl,
			conn:   conn,
			send:   make(chan WSMessage, 256),
			rooms:  make(map[string]bool),
			logger: logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

// sessionRequest covers every client->server message body; unused fields are
// simply absent.
type sessionRequest struct {
	SessionID        string   `json:"session_id"`
	DisplayName      string   `json:"display_name"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	Option           string   `json:"option"`
}

func (c *Client) readPump() {
	defer func() {
		c.ctrl.Disconnect(c.Handle)
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		var req sessionRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.replyErr(msg.Event, poll.ErrInvalidRequest)
				continue
			}
		}

		switch msg.Event {
		case "create_session":
			s := c.ctrl.CreateSession(c.Handle)
			c.reply("session_created", map[string]string{"session_id": s.Code})
		case "join_session":
			if err := c.ctrl.Join(c.Handle, req.SessionID, req.DisplayName); err != nil {
				c.replyErr(msg.Event, err)
				continue
			}
			c.reply("joined", map[string]string{"session_id": req.SessionID})
		case "ask_question":
			if err := c.ctrl.AskQuestion(c.Handle, req.SessionID, req.Question, req.Options, req.TimeLimitSeconds); err != nil {
				c.replyErr(msg.Event, err)
				continue
			}
			c.ack(msg.Event)
		case "submit_answer":
			if err := c.ctrl.SubmitAnswer(c.Handle, req.SessionID, req.Option); err != nil {
				c.replyErr(msg.Event, err)
				continue
			}
			c.ack(msg.Event)
		case "remove_participant":
			if err := c.ctrl.RemoveParticipant(c.Handle, req.SessionID, req.DisplayName); err != nil {
				c.replyErr(msg.Event, err)
				continue
			}
			c.ack(msg.Event)
		case "next_allowed":
			allowed, err := c.ctrl.NextAllowed(req.SessionID)
			if err != nil {
				c.replyErr(msg.Event, err)
				continue
			}
			c.reply("next_allowed", map[string]bool{"allowed": allowed})
		case "fetch_history":
			history, err := c.ctrl.History(req.SessionID)
			if err != nil {
				c.replyErr(msg.Event, err)
				continue
			}
			c.reply("history", map[string]interface{}{"history": history})
		default:
			// ignore
		}
	}
}

func (c *Client) reply(event string, payload interface{}) {
	c.enqueue(WSMessage{Event: event, Data: marshal(payload)})
}

func (c *Client) ack(op string) {
	c.reply("ack", map[string]interface{}{"op": op, "ok": true})
}

func (c *Client) replyErr(op string, err error) {
	c.reply("error", map[string]interface{}{
		"op":      op,
		"ok":      false,
		"code":    poll.Code(err),
		"message": err.Error(),
	})
}

func (c *Client) enqueue(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		// buffer full, skip
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
