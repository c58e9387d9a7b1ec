package model

import (
	"time"
)

// User 사용자
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Name       string    `gorm:"not null" json:"name"`
	PictureURL string    `json:"picture_url,omitempty"`
	Paid       bool      `gorm:"default:false" json:"paid"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Board 보드 (스트로크 캔버스)
type Board struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Strokes []Stroke     `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"strokes,omitempty"`
	Shares  []BoardShare `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"shares,omitempty"`
}

func (Board) TableName() string {
	return "boards"
}

// BoardShare (board, user) → permission
type BoardShare struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BoardID    int64           `gorm:"not null;uniqueIndex:idx_board_user" json:"board_id"`
	UserID     int64           `gorm:"not null;uniqueIndex:idx_board_user" json:"user_id"`
	Permission BoardPermission `gorm:"type:varchar(16);not null" json:"permission"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Board Board `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (BoardShare) TableName() string {
	return "board_shares"
}

// Stroke 하나의 벡터 패스. 클라이언트가 id를 생성하며 upsert로 전체 교체된다.
type Stroke struct {
	StrokeID  string    `gorm:"primaryKey;type:varchar(64)" json:"stroke_id"`
	BoardID   int64     `gorm:"not null;index" json:"board_id"`
	D         string    `gorm:"type:text;not null" json:"d"`
	Color     string    `gorm:"not null" json:"color"`
	Width     float64   `gorm:"not null" json:"width"`
	FillColor string    `gorm:"not null" json:"fill_color"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	ScaleX    float64   `gorm:"default:1" json:"scale_x"`
	ScaleY    float64   `gorm:"default:1" json:"scale_y"`
	Rotation  float64   `json:"rotation"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Board Board `gorm:"foreignKey:BoardID" json:"board,omitempty"`
}

func (Stroke) TableName() string {
	return "strokes"
}

// Path converts the stored row to its wire shape.
func (s *Stroke) Path() Path {
	return Path{
		ID:          s.StrokeID,
		D:           s.D,
		StrokeColor: s.Color,
		StrokeWidth: s.Width,
		FillColor:   s.FillColor,
		X:           s.X,
		Y:           s.Y,
		ScaleX:      s.ScaleX,
		ScaleY:      s.ScaleY,
		Rotation:    s.Rotation,
	}
}

// StrokeFromPath converts a wire path to its stored row.
func StrokeFromPath(boardID int64, p Path) Stroke {
	return Stroke{
		StrokeID:  p.ID,
		BoardID:   boardID,
		D:         p.D,
		Color:     p.StrokeColor,
		Width:     p.StrokeWidth,
		FillColor: p.FillColor,
		X:         p.X,
		Y:         p.Y,
		ScaleX:    p.ScaleX,
		ScaleY:    p.ScaleY,
		Rotation:  p.Rotation,
	}
}
