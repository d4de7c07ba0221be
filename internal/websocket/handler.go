package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one query session until the peer disconnects.
func ServeWs(hub *Hub, conn *websocket.Conn, course string, streamer Streamer) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		Hub:      hub,
		Conn:     conn,
		Course:   course,
		Send:     make(chan []byte, 256),
		streamer: streamer,
		ctx:      ctx,
		cancel:   cancel,
	}
	if !hub.add(client) {
		cancel()
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
