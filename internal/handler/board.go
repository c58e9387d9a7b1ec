package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/auth"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/cache"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/service"
)

// previewGetter is the slice of the preview service the REST path needs.
type previewGetter interface {
	Get(ctx context.Context, boardID int64) (*cache.PreviewEntry, error)
	Invalidate(ctx context.Context, boardID int64) error
}

// BoardHandler 보드 CRUD 핸들러
type BoardHandler struct {
	db      *gorm.DB
	preview previewGetter
	genfill *service.GenFillService
}

// NewBoardHandler BoardHandler 생성
func NewBoardHandler(db *gorm.DB, preview previewGetter, genfill *service.GenFillService) *BoardHandler {
	return &BoardHandler{db: db, preview: preview, genfill: genfill}
}

// CreateBoardRequest 보드 생성 요청
type CreateBoardRequest struct {
	Name string `json:"name"`
}

// BoardResponse 보드와 요청자의 권한
type BoardResponse struct {
	Board      model.BoardInfo       `json:"board"`
	Permission model.BoardPermission `json:"permission"`
}

// Create 보드 생성. The owner's share row is written in the same transaction
// so the board is never visible without an owner.
func (h *BoardHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	var req CreateBoardRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	board := model.Board{Name: req.Name}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}
		share := model.BoardShare{
			BoardID:    board.ID,
			UserID:     userID,
			Permission: model.PermissionOwner,
		}
		return tx.Create(&share).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create board",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(BoardResponse{
		Board:      boardInfo(&board),
		Permission: model.PermissionOwner,
	})
}

// List 사용자가 접근 가능한 보드 목록 (페이지네이션 + 이름 검색)
func (h *BoardHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int64)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}
	search := c.Query("search")

	query := h.db.Model(&model.Board{}).
		Joins("JOIN board_shares ON board_shares.board_id = boards.id").
		Where("board_shares.user_id = ?", userID)
	if search != "" {
		query = query.Where("boards.name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	var boards []model.Board
	if err := query.Order("boards.updated_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&boards).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	infos := make([]model.BoardInfo, len(boards))
	for i := range boards {
		infos[i] = boardInfo(&boards[i])
	}
	return c.JSON(paginate(infos, total, page, limit))
}

// Get 보드 단건 조회
func (h *BoardHandler) Get(c *fiber.Ctx) error {
	board, permission, err := h.loadBoard(c)
	if err != nil {
		return boardError(c, err)
	}

	return c.JSON(BoardResponse{
		Board:      boardInfo(board),
		Permission: permission,
	})
}

// Update 보드 이름 변경 (편집 권한 필요)
func (h *BoardHandler) Update(c *fiber.Ctx) error {
	board, permission, err := h.loadBoard(c)
	if err != nil {
		return boardError(c, err)
	}
	if !permission.CanEdit() {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var req CreateBoardRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	board.Name = req.Name
	if err := h.db.Save(board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update board",
		})
	}

	return c.JSON(BoardResponse{
		Board:      boardInfo(board),
		Permission: permission,
	})
}

// Delete 보드 삭제 (소유자 전용). Strokes and shares go with it via cascade.
func (h *BoardHandler) Delete(c *fiber.Ctx) error {
	board, permission, err := h.loadBoard(c)
	if err != nil {
		return boardError(c, err)
	}
	if permission != model.PermissionOwner {
		return c.SendStatus(fiber.StatusForbidden)
	}

	if err := h.db.Select("Strokes", "Shares").Delete(board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete board",
		})
	}
	h.preview.Invalidate(c.Context(), board.ID)

	return c.SendStatus(fiber.StatusNoContent)
}

// Picture 보드 프리뷰 이미지 조회
func (h *BoardHandler) Picture(c *fiber.Ctx) error {
	board, _, err := h.loadBoard(c)
	if err != nil {
		return boardError(c, err)
	}

	entry, err := h.preview.Get(c.Context(), board.ID)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{
			"error": "failed to render preview",
		})
	}

	c.Set("Content-Type", entry.MimeType)
	c.Set("Cache-Control", "no-store")
	return c.Send(entry.Data)
}

// GenerativeFillRequest 생성형 채우기 요청
type GenerativeFillRequest struct {
	PathIDs []string `json:"pathIds"`
}

// GenerativeFillResponse 생성된 스트로크
type GenerativeFillResponse struct {
	Paths []model.Path `json:"paths"`
}

// GenerativeFill 선택된 스트로크를 모델로 완성 (편집 권한 필요). The result
// is returned for the client to place; committing it goes through the
// board's sync channel like any other edit.
func (h *BoardHandler) GenerativeFill(c *fiber.Ctx) error {
	board, permission, err := h.loadBoard(c)
	if err != nil {
		return boardError(c, err)
	}
	if !permission.CanEdit() {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var req GenerativeFillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	paths, err := h.genfill.Run(c.Context(), board.ID, req.PathIDs)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{
			"error": "generative fill failed",
		})
	}

	return c.JSON(GenerativeFillResponse{Paths: paths})
}

// loadBoard resolves the path param, the requester's permission, and the
// board row. Boards the user has no share on read as not found.
func (h *BoardHandler) loadBoard(c *fiber.Ctx) (*model.Board, model.BoardPermission, error) {
	boardID, err := strconv.ParseInt(c.Params("boardId"), 10, 64)
	if err != nil {
		return nil, "", apperr.E(apperr.ErrInvalid, "bad board id")
	}
	userID := c.Locals("userID").(int64)

	permission, err := auth.ResolveBoardPermission(h.db, boardID, userID)
	if err != nil {
		return nil, "", err
	}

	var board model.Board
	if err := h.db.First(&board, boardID).Error; err != nil {
		return nil, "", apperr.E(apperr.ErrNotFound, "board %d", boardID)
	}
	return &board, permission, nil
}

func boardError(c *fiber.Ctx, err error) error {
	return c.Status(apperr.Status(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func boardInfo(b *model.Board) model.BoardInfo {
	return model.BoardInfo{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

func paginate[T any](data []T, total int64, page, limit int) model.Paginated[T] {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	out := model.Paginated[T]{
		TotalItems: total,
		TotalPages: totalPages,
		CurrPage:   page,
		Limit:      limit,
		Data:       data,
	}
	if page > 1 {
		prev := page - 1
		out.PrevPage = &prev
	}
	if page < totalPages {
		next := page + 1
		out.NextPage = &next
	}
	return out
}
