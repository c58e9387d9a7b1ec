package handler

import (
	"log"
	"sync"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/session"
)

// =============================================================================
// Board Hub - 보드 단위 WebSocket 연결 관리
// =============================================================================

// BoardHub tracks every live connection, grouped into per-board rooms.
// A user holds at most one live connection across all boards; a newer
// socket for the same user evicts the older one.
type BoardHub struct {
	mu        sync.RWMutex
	rooms     map[int64]*BoardRoom
	userConns map[int64]*session.Connection
}

// BoardRoom is the set of connections currently viewing one board.
type BoardRoom struct {
	BoardID int64
	conns   map[string]*session.Connection
}

// NewBoardHub creates an empty hub.
func NewBoardHub() *BoardHub {
	return &BoardHub{
		rooms:     make(map[int64]*BoardRoom),
		userConns: make(map[int64]*session.Connection),
	}
}

// Join registers the connection in its board's room. If the user already has
// a live connection, it is closed first so the new socket takes over.
func (h *BoardHub) Join(conn *session.Connection) {
	h.mu.Lock()
	prev := h.userConns[conn.UserID]
	if prev != nil {
		h.detachLocked(prev)
	}

	room, exists := h.rooms[conn.BoardID]
	if !exists {
		room = &BoardRoom{
			BoardID: conn.BoardID,
			conns:   make(map[string]*session.Connection),
		}
		h.rooms[conn.BoardID] = room
		log.Printf("[BoardHub] Created room for board %d", conn.BoardID)
	}
	room.conns[conn.ID] = conn
	h.userConns[conn.UserID] = conn
	conn.SetState(session.StateActive)
	memberCount := len(room.conns)
	h.mu.Unlock()

	// Close outside the lock; the evicted socket's read loop will see the
	// close and run its own Leave, which is a no-op by then.
	if prev != nil {
		log.Printf("[BoardHub] User %d reconnected, closing previous connection %s", conn.UserID, prev.ID)
		prev.Close()
	}

	log.Printf("[Board %d] Joined: user %d (%s), total: %d",
		conn.BoardID, conn.UserID, conn.Permission, memberCount)
}

// Leave removes the connection from the hub. Stale connections already
// evicted by a takeover are ignored.
func (h *BoardHub) Leave(conn *session.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.userConns[conn.UserID] != conn {
		return
	}
	h.detachLocked(conn)
	log.Printf("[Board %d] Left: user %d", conn.BoardID, conn.UserID)
}

func (h *BoardHub) detachLocked(conn *session.Connection) {
	delete(h.userConns, conn.UserID)
	room, exists := h.rooms[conn.BoardID]
	if !exists {
		return
	}
	delete(room.conns, conn.ID)
	if len(room.conns) == 0 {
		delete(h.rooms, conn.BoardID)
		log.Printf("[BoardHub] Removed empty room for board %d", conn.BoardID)
	}
}

// Broadcast sends an update to every connection in the board's room, the
// originator included. Send failures only log; the failing socket's own
// read loop is responsible for its teardown.
func (h *BoardHub) Broadcast(boardID int64, update model.BoardUpdate) {
	h.mu.RLock()
	room, exists := h.rooms[boardID]
	var conns []*session.Connection
	if exists {
		conns = make([]*session.Connection, 0, len(room.conns))
		for _, c := range room.conns {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(update); err != nil {
			log.Printf("[Board %d] Failed to send to user %d: %v", boardID, c.UserID, err)
		}
	}
}

// ConnectionOf returns the user's live connection, or nil.
func (h *BoardHub) ConnectionOf(userID int64) *session.Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userConns[userID]
}

// RoomSize returns how many connections are in a board's room.
func (h *BoardHub) RoomSize(boardID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, exists := h.rooms[boardID]
	if !exists {
		return 0
	}
	return len(room.conns)
}
