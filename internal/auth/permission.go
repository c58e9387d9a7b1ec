package auth

import (
	"errors"

	"gorm.io/gorm"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

// ResolveBoardPermission 보드 권한 조회. The owner's share row is created with
// the board, so a single lookup covers every level. No share means the board
// is invisible to the user.
func ResolveBoardPermission(db *gorm.DB, boardID, userID int64) (model.BoardPermission, error) {
	var share model.BoardShare
	err := db.Where("board_id = ? AND user_id = ?", boardID, userID).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.E(apperr.ErrNotFound, "board %d not shared with user %d", boardID, userID)
	}
	if err != nil {
		return "", err
	}

	if !share.Permission.Valid() {
		return "", apperr.E(apperr.ErrForbidden, "board %d: unknown permission %q", boardID, share.Permission)
	}
	return share.Permission, nil
}
