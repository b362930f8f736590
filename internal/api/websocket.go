package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/internal/market"
	"github.com/dyncarl8-oss/signalix-ai/internal/predictor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin enforcement happens at the CORS layer; the storefront iframe
		// origin varies per installation.
		return true
	},
}

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Inbound message types: a closed tagged set. Unknown tags are ignored.
const (
	inboundUserMessage = "user_message"
	inboundSelectPair  = "select_pair"
	inboundHistory     = "history"
	inboundNewSession  = "new_session"
)

// inboundMessage is the decoded client payload.
type inboundMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Pair    string `json:"pair"`
	UserID  string `json:"userId"`
}

var errConnClosed = errors.New("connection closed")

// wsClient wraps one WebSocket connection. Its context is cancelled when the
// connection closes, which aborts in-flight external calls and suppresses
// remaining sends for cycles still running.
type wsClient struct {
	conn    *websocket.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	writeMu sync.Mutex
	logger  zerolog.Logger
}

// Send delivers one outbound message, serializing writers.
func (c *wsClient) Send(msg predictor.OutboundMessage) error {
	if c.ctx.Err() != nil {
		return errConnClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.cancel()
		return err
	}
	return nil
}

// handleWebSocket upgrades the connection and runs the read loop. Each
// connection owns one Session; the session dies with the connection.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.New().String()
	sess := predictor.NewSession(connID)

	ctx, cancel := context.WithCancel(context.Background())
	client := &wsClient{
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		logger: s.logger.With().Str("connection_id", connID).Logger(),
	}

	client.logger.Info().Msg("websocket connected")

	go client.keepAlive()

	if err := client.Send(predictor.BotMessage(predictor.WelcomeText)); err != nil {
		client.logger.Debug().Err(err).Msg("welcome send failed")
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.logger.Debug().Err(err).Msg("websocket read error")
			}
			break
		}
		// Cycles from the same connection may deliberately run concurrently;
		// sends within one cycle stay ordered because the orchestrator awaits
		// each send before the next step.
		go s.dispatch(client, sess, data)
	}

	cancel()
	conn.Close()
	client.logger.Info().Int("predictions", sess.Len()).Msg("websocket disconnected")
}

// keepAlive pings the peer until the connection context ends. Control frames
// may be written concurrently with data frames.
func (c *wsClient) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.cancel()
				return
			}
		}
	}
}

// dispatch routes one decoded inbound message. Malformed payloads are logged
// and dropped; the connection stays open and nothing is sent back.
func (s *Server) dispatch(client *wsClient, sess *predictor.Session, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		client.logger.Warn().Err(err).Msg("dropping malformed client message")
		return
	}

	userID := msg.UserID
	if userID == "" {
		userID = s.verifier.DevUserID()
	}

	switch msg.Type {
	case inboundSelectPair:
		s.orchestrator.AnalyzePair(client.ctx, msg.Pair, userID, sess, client)

	case inboundUserMessage:
		s.handleUserMessage(client, sess, userID, msg.Content)

	case inboundHistory:
		s.sendBot(client, sess.FormatHistory())

	case inboundNewSession:
		sess.Reset()
		s.sendBot(client, predictor.WelcomeText)

	default:
		client.logger.Debug().Str("type", msg.Type).Msg("ignoring unrecognized message type")
	}
}

// handleUserMessage routes free-form text: the /history command wins over
// pair matching, and anything unrecognized gets the help text.
func (s *Server) handleUserMessage(client *wsClient, sess *predictor.Session, userID, content string) {
	if strings.Contains(strings.ToLower(content), "/history") {
		s.sendBot(client, sess.FormatHistory())
		return
	}

	if pair, ok := market.MatchPair(content); ok {
		s.orchestrator.AnalyzePair(client.ctx, pair, userID, sess, client)
		return
	}

	s.sendBot(client, predictor.HelpText())
}

func (s *Server) sendBot(client *wsClient, content string) {
	if err := client.Send(predictor.BotMessage(content)); err != nil {
		client.logger.Debug().Err(err).Msg("send failed")
	}
}
