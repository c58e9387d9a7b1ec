package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/auth"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

// ShareHandler 보드 공유 관리 핸들러
type ShareHandler struct {
	db *gorm.DB
}

// NewShareHandler ShareHandler 생성
func NewShareHandler(db *gorm.DB) *ShareHandler {
	return &ShareHandler{db: db}
}

// List 보드 공유 목록. The owner's own share row is implementation detail
// and never listed.
func (h *ShareHandler) List(c *fiber.Ctx) error {
	boardID, err := h.authorize(c)
	if err != nil {
		return boardError(c, err)
	}

	var shares []model.BoardShare
	if err := h.db.Preload("User").
		Where("board_id = ? AND permission <> ?", boardID, model.PermissionOwner).
		Order("created_at ASC").
		Find(&shares).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	infos := make([]model.ShareInfo, len(shares))
	for i, s := range shares {
		infos[i] = shareInfo(&s)
	}
	return c.JSON(infos)
}

// AddShareRequest 공유 추가 요청
type AddShareRequest struct {
	Email string `json:"email"`
}

// Add 이메일로 사용자 초대. New shares always start as viewers; levels are
// raised afterwards through Update.
func (h *ShareHandler) Add(c *fiber.Ctx) error {
	boardID, err := h.authorize(c)
	if err != nil {
		return boardError(c, err)
	}

	var req AddShareRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email is required",
		})
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no user with that email",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	var existing model.BoardShare
	err = h.db.Where("board_id = ? AND user_id = ?", boardID, user.ID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "board is already shared with that user",
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	share := model.BoardShare{
		BoardID:    boardID,
		UserID:     user.ID,
		Permission: model.PermissionViewer,
	}
	if err := h.db.Create(&share).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create share",
		})
	}

	share.User = user
	return c.Status(fiber.StatusCreated).JSON(shareInfo(&share))
}

// UpdateShareRequest 공유 권한 일괄 변경 요청
type UpdateShareRequest struct {
	Shares []struct {
		UserID     int64                 `json:"userId"`
		Permission model.BoardPermission `json:"permission"`
	} `json:"shares"`
}

// Update 권한 일괄 변경. The owner's share is immutable and no share can be
// raised to owner; only viewer/editor are assignable.
func (h *ShareHandler) Update(c *fiber.Ctx) error {
	boardID, err := h.authorize(c)
	if err != nil {
		return boardError(c, err)
	}

	var req UpdateShareRequest
	if err := c.BodyParser(&req); err != nil || len(req.Shares) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "shares are required",
		})
	}
	for _, s := range req.Shares {
		if s.Permission != model.PermissionViewer && s.Permission != model.PermissionEditor {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "permission must be viewer or editor",
			})
		}
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		for _, s := range req.Shares {
			result := tx.Model(&model.BoardShare{}).
				Where("board_id = ? AND user_id = ? AND permission <> ?",
					boardID, s.UserID, model.PermissionOwner).
				Update("permission", s.Permission)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return apperr.E(apperr.ErrNotFound, "no share for user %d", s.UserID)
			}
		}
		return nil
	})
	if err != nil {
		return boardError(c, err)
	}

	return h.List(c)
}

// Remove 공유 제거. The owner cannot be removed from their own board.
func (h *ShareHandler) Remove(c *fiber.Ctx) error {
	boardID, err := h.authorize(c)
	if err != nil {
		return boardError(c, err)
	}

	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bad user id",
		})
	}

	result := h.db.Where("board_id = ? AND user_id = ? AND permission <> ?",
		boardID, userID, model.PermissionOwner).
		Delete(&model.BoardShare{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no share for that user",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// authorize resolves the board id and checks the requester may manage its
// shares.
func (h *ShareHandler) authorize(c *fiber.Ctx) (int64, error) {
	boardID, err := strconv.ParseInt(c.Params("boardId"), 10, 64)
	if err != nil {
		return 0, apperr.E(apperr.ErrInvalid, "bad board id")
	}
	userID := c.Locals("userID").(int64)

	permission, err := auth.ResolveBoardPermission(h.db, boardID, userID)
	if err != nil {
		return 0, err
	}
	if !permission.CanManageShares() {
		return 0, apperr.E(apperr.ErrForbidden, "board %d: viewers cannot manage shares", boardID)
	}
	return boardID, nil
}

func shareInfo(s *model.BoardShare) model.ShareInfo {
	return model.ShareInfo{
		User:       userInfo(&s.User),
		BoardID:    s.BoardID,
		Permission: s.Permission,
	}
}
