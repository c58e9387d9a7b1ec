package model

// Path is the wire shape of one stroke, shared by the sync channel, the
// generative-fill endpoint, and the renderer.
type Path struct {
	ID          string  `json:"id"`
	D           string  `json:"d"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   string  `json:"fillColor"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Rotation    float64 `json:"rotation"`
}

// UpdateType 보드 업데이트 메시지 태그
type UpdateType string

const (
	UpdateUpsert UpdateType = "UPSERT"
	UpdateDelete UpdateType = "DELETE"
)

// BoardUpdate is the closed tagged union exchanged over the sync channel.
// The same two shapes are used inbound and outbound; the server echoes a
// committed mutation back to its own sender as well as to peers.
type BoardUpdate struct {
	Type  UpdateType `json:"type"`
	Paths []Path     `json:"paths,omitempty"`
	IDs   []string   `json:"ids,omitempty"`
}

// BoardInfo is the REST shape of a board.
type BoardInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// UserInfo is the REST shape of a user.
type UserInfo struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	PictureURL string `json:"pictureUrl,omitempty"`
	Paid       bool   `json:"paid"`
}

// ShareInfo is the REST shape of a board share.
type ShareInfo struct {
	User       UserInfo        `json:"user"`
	BoardID    int64           `json:"boardID"`
	Permission BoardPermission `json:"permission"`
}

// Paginated 페이지네이션 응답 래퍼
type Paginated[T any] struct {
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
	CurrPage   int   `json:"currPage"`
	PrevPage   *int  `json:"prevPage"`
	NextPage   *int  `json:"nextPage"`
	Limit      int   `json:"limit"`
	Data       []T   `json:"data"`
}
