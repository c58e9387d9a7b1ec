package session

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

// State WebSocket 연결 상태
type State int

const (
	StateConnecting State = iota // admission checks in progress
	StateAdmitted                // admitted, not yet in a room
	StateActive                  // in a room, relaying updates
	StateClosed                  // terminal
)

// String 상태를 문자열로 반환
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAdmitted:
		return "admitted"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Socket is the narrow surface a connection needs from its transport.
// *websocket.Conn satisfies it; tests substitute fakes.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// TextMessage matches the websocket text frame opcode.
const TextMessage = 1

// Connection 하나의 라이브 소켓. 인증된 유저, 보드, 그리고 admission 시점에
// 고정된 권한을 묶는다.
type Connection struct {
	ID         string
	UserID     int64
	BoardID    int64
	Permission model.BoardPermission

	sock    Socket
	writeMu sync.Mutex

	mu    sync.RWMutex
	state State
}

// New creates a connection in the Connecting state.
func New(userID, boardID int64, permission model.BoardPermission, sock Socket) *Connection {
	return &Connection{
		ID:         uuid.New().String(),
		UserID:     userID,
		BoardID:    boardID,
		Permission: permission,
		sock:       sock,
		state:      StateConnecting,
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetState advances the lifecycle. Closed is terminal; transitions out of it
// are ignored.
func (c *Connection) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = s
}

// Send marshals and writes one update frame. Writes are serialized because
// the room broadcaster and the initial-load path may both write.
func (c *Connection) Send(update model.BoardUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.WriteMessage(TextMessage, data)
}

// Close marks the connection closed and closes the underlying socket.
// Safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	alreadyClosed := c.state == StateClosed
	c.state = StateClosed
	c.mu.Unlock()

	if !alreadyClosed {
		_ = c.sock.Close()
	}
}
