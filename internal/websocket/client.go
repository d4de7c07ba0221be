package websocket

import (
	"context"
	"encoding/json"
	"time"

	"policylens-be/internal/dto"
	"policylens-be/pkg/policy"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Streamer answers one question as a stream of events.
type Streamer interface {
	Stream(ctx context.Context, req *dto.QueryRequest) (<-chan policy.StreamEvent, error)
}

// Client is one websocket query session.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Course the session defaults to when a question names none
	Course string

	// Buffered channel of outbound messages.
	Send chan []byte

	streamer Streamer
	ctx      context.Context
	cancel   context.CancelFunc
}

// readPump reads questions and answers them one at a time, in order.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.Hub.remove(c)
		close(c.Send)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected websocket close", map[string]interface{}{"course": c.Course, "error": err.Error()})
			}
			return
		}

		var req dto.QueryRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.push(errorFrame("invalid request: expected {\"question\": \"...\"}"))
			continue
		}
		if req.Course == "" {
			req.Course = c.Course
		}
		if !c.answer(&req) {
			return
		}
	}
}

// answer relays one stream; it reports false once the session is gone.
func (c *Client) answer(req *dto.QueryRequest) bool {
	events, err := c.streamer.Stream(c.ctx, req)
	if err != nil {
		return c.push(errorFrame(err.Error()))
	}
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if !c.push(data) {
			return false
		}
	}
	return c.ctx.Err() == nil
}

func (c *Client) push(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func errorFrame(message string) []byte {
	data, _ := json.Marshal(map[string]string{"type": "error", "message": message})
	return data
}

// writePump pumps messages from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame; clients parse frames as single JSON values.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
