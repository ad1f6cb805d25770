package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"OllamaDesk/pkg/relay"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// wsSender writes frames to one connection. Only the chat loop writes data
// frames; pings go through WriteControl, which may run concurrently.
type wsSender struct {
	conn *websocket.Conn
}

func (s wsSender) Send(f relay.Frame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

// ChatWS relays chat turns between the browser and the model server.
// Client protocol (JSON text frames):
//
//	-> {content: string, model?: string}
//	<- {type: "stream", content: string}   (zero or more)
//	<- {type: "end"}                        (turn finished)
//	<- {type: "error", content: string}
//
// The connection stays open for further turns.
func ChatWS(rl *relay.Relay, maxMessageBytes int64, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("ws")
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("upgrade error", zap.Error(err))
			return
		}
		defer conn.Close()

		connLog := log.With(zap.String("conn_id", uuid.NewString()), zap.String("remote", c.ClientIP()))
		connLog.Info("connection open")

		conn.SetReadLimit(maxMessageBytes)
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		stopPing := make(chan struct{})
		defer close(stopPing)
		go keepAlive(conn, stopPing, connLog)

		out := wsSender{conn: conn}
		for {
			// a turn may outlast pongWait, so re-arm before every read
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			mt, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					connLog.Warn("read error", zap.Error(err))
				} else {
					connLog.Info("connection closed", zap.Error(err))
				}
				return
			}
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}

			req, errMsg := parseRequest(data)
			if errMsg != "" {
				if err := out.Send(relay.Frame{Type: relay.FrameError, Content: errMsg}); err != nil {
					connLog.Warn("write error", zap.Error(err))
					return
				}
				continue
			}

			if err := rl.Serve(c.Request.Context(), req, out); err != nil {
				connLog.Warn("closing connection", zap.Error(err))
				return
			}
		}
	}
}

func parseRequest(data []byte) (relay.Request, string) {
	var req relay.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return req, "Invalid message format"
	}
	if strings.TrimSpace(req.Content) == "" {
		return req, "content is required"
	}
	return req, ""
}

func keepAlive(conn *websocket.Conn, stop <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("ping error", zap.Error(err))
				return
			}
		case <-stop:
			return
		}
	}
}
