package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	CreatorID uuid.UUID
	Conn      *websocket.Conn
}

// StatusEvent is pushed to a connected device whenever one of its
// submissions changes lifecycle status. The device's sync reconciler also
// uses this channel as its liveness signal after a connectivity edge.
type StatusEvent struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var statusEvents = make(chan statusPush, 64)

type statusPush struct {
	creatorID uuid.UUID
	event     StatusEvent
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.CreatorID)
			clientsMu.Lock()
			clients[client.CreatorID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.CreatorID)
			clientsMu.Lock()
			if conn, ok := clients[client.CreatorID]; ok && conn == client.Conn {
				delete(clients, client.CreatorID)
			}
			clientsMu.Unlock()
		case push := <-statusEvents:
			clientsMu.RLock()
			conn, ok := clients[push.creatorID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(push.event); err != nil {
				log.Printf("Error pushing status to client %s: %v", push.creatorID, err)
				conn.Close()
				clientsMu.Lock()
				delete(clients, push.creatorID)
				clientsMu.Unlock()
			}
		}
	}
}

// PushStatus queues a status event for the creator's device if connected.
// Best-effort: a full queue or absent client drops the event.
func PushStatus(creatorID uuid.UUID, submissionID uuid.UUID, status string) {
	select {
	case statusEvents <- statusPush{creatorID: creatorID, event: StatusEvent{SubmissionID: submissionID.String(), Status: status}}:
	default:
		log.Printf("⚠️ Status event queue full, dropping event for %s", creatorID)
	}
}
