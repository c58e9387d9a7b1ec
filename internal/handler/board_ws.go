package handler

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/auth"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/session"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/store"
)

// previewRefresher is the slice of the preview service the socket path needs.
type previewRefresher interface {
	ForceRefresh(ctx context.Context, boardID int64)
}

// BoardWSHandler WebSocket 보드 동기화 핸들러
type BoardWSHandler struct {
	db      *gorm.DB
	jwt     *auth.JWTManager
	store   store.Store
	hub     *BoardHub
	preview previewRefresher
}

// NewBoardWSHandler BoardWSHandler 생성
func NewBoardWSHandler(db *gorm.DB, jwt *auth.JWTManager, st store.Store, hub *BoardHub, preview previewRefresher) *BoardWSHandler {
	return &BoardWSHandler{
		db:      db,
		jwt:     jwt,
		store:   st,
		hub:     hub,
		preview: preview,
	}
}

// Admit runs before the upgrade and gates the socket. Checks run in order:
// board id, session cookie, paid account, board share. Every rejection is the
// same bare 403 so callers cannot tell a missing board from a missing share.
func (h *BoardWSHandler) Admit(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	boardID, err := strconv.ParseInt(c.Params("boardId"), 10, 64)
	if err != nil {
		return c.SendStatus(fiber.StatusForbidden)
	}

	claims, err := h.jwt.ValidateAccessToken(c.Cookies("access_token"))
	if err != nil {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return c.SendStatus(fiber.StatusForbidden)
	}
	if !user.Paid {
		return c.SendStatus(fiber.StatusForbidden)
	}

	permission, err := auth.ResolveBoardPermission(h.db, boardID, user.ID)
	if err != nil {
		return c.SendStatus(fiber.StatusForbidden)
	}

	c.Locals("userId", user.ID)
	c.Locals("boardId", boardID)
	c.Locals("permission", permission)
	return c.Next()
}

// HandleWebSocket runs the socket after admission. It joins the room, replays
// the board's strokes, then relays updates until the socket drops.
func (h *BoardWSHandler) HandleWebSocket(c *websocket.Conn) {
	userID, ok1 := c.Locals("userId").(int64)
	boardID, ok2 := c.Locals("boardId").(int64)
	permission, ok3 := c.Locals("permission").(model.BoardPermission)
	if !ok1 || !ok2 || !ok3 {
		c.Close()
		return
	}

	conn := session.New(userID, boardID, permission, c)
	conn.SetState(session.StateAdmitted)

	// Join before the replay so mutations committed between the store read
	// and the join still reach this connection. Upsert idempotency absorbs
	// any overlap between the snapshot and those broadcasts.
	h.hub.Join(conn)
	defer h.teardown(conn)

	if err := h.sendInitialState(conn); err != nil {
		log.Printf("[Board %d] Initial load failed for user %d: %v", boardID, userID, err)
		return
	}

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			break
		}
		h.processUpdate(context.Background(), conn, raw)
	}
}

// sendInitialState replays every stroke as one UPSERT so the client replaces
// whatever it was holding. An empty board sends nothing.
func (h *BoardWSHandler) sendInitialState(conn *session.Connection) error {
	paths, err := h.store.List(context.Background(), conn.BoardID)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	return conn.Send(model.BoardUpdate{Type: model.UpdateUpsert, Paths: paths})
}

// processUpdate applies one inbound frame and rebroadcasts it verbatim,
// sender included. Malformed frames are dropped; frames from viewers are
// silently ignored.
func (h *BoardWSHandler) processUpdate(ctx context.Context, conn *session.Connection, raw []byte) {
	var update model.BoardUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		log.Printf("[Board %d] Dropping malformed frame from user %d: %v", conn.BoardID, conn.UserID, err)
		return
	}

	if !conn.Permission.CanEdit() {
		return
	}

	switch update.Type {
	case model.UpdateUpsert:
		if len(update.Paths) == 0 {
			return
		}
		if err := h.store.Upsert(ctx, conn.BoardID, update.Paths); err != nil {
			log.Printf("[Board %d] Upsert failed for user %d: %v", conn.BoardID, conn.UserID, err)
			return
		}
	case model.UpdateDelete:
		if len(update.IDs) == 0 {
			return
		}
		if err := h.store.Delete(ctx, conn.BoardID, update.IDs); err != nil {
			log.Printf("[Board %d] Delete failed for user %d: %v", conn.BoardID, conn.UserID, err)
			return
		}
	default:
		log.Printf("[Board %d] Dropping frame with unknown type %q from user %d", conn.BoardID, update.Type, conn.UserID)
		return
	}

	h.hub.Broadcast(conn.BoardID, update)
}

// teardown leaves the room and, when an editor or owner disconnects, kicks
// off a preview refresh so the thumbnail reflects their final edits.
func (h *BoardWSHandler) teardown(conn *session.Connection) {
	h.hub.Leave(conn)
	conn.Close()

	if conn.Permission.CanEdit() && h.preview != nil {
		boardID := conn.BoardID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			h.preview.ForceRefresh(ctx, boardID)
		}()
	}
}
