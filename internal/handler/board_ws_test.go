package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/auth"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/session"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/store"
)

// fakeSocket records frames instead of writing to a network.
type fakeSocket struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeSocket) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSocket) updates(t *testing.T) []model.BoardUpdate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.BoardUpdate, 0, len(f.frames))
	for _, raw := range f.frames {
		var u model.BoardUpdate
		require.NoError(t, json.Unmarshal(raw, &u))
		out = append(out, u)
	}
	return out
}

func joinFake(hub *BoardHub, userID, boardID int64, perm model.BoardPermission) (*session.Connection, *fakeSocket) {
	sock := &fakeSocket{}
	conn := session.New(userID, boardID, perm, sock)
	hub.Join(conn)
	return conn, sock
}

func path(id, color string) model.Path {
	return model.Path{
		ID: id, D: "M 0 0 L 10 10", StrokeColor: color, StrokeWidth: 2,
		ScaleX: 1, ScaleY: 1,
	}
}

func TestHubBroadcastIncludesSender(t *testing.T) {
	hub := NewBoardHub()
	_, sockA := joinFake(hub, 1, 7, model.PermissionEditor)
	_, sockB := joinFake(hub, 2, 7, model.PermissionViewer)
	_, sockC := joinFake(hub, 3, 8, model.PermissionEditor)

	hub.Broadcast(7, model.BoardUpdate{Type: model.UpdateUpsert, Paths: []model.Path{path("a", "#ff0000")}})

	assert.Len(t, sockA.updates(t), 1, "sender must receive its own update")
	assert.Len(t, sockB.updates(t), 1)
	assert.Empty(t, sockC.updates(t), "other boards must not receive the update")
}

func TestHubTakeoverClosesPreviousConnection(t *testing.T) {
	hub := NewBoardHub()
	connOld, sockOld := joinFake(hub, 1, 7, model.PermissionEditor)
	connNew, _ := joinFake(hub, 1, 9, model.PermissionEditor)

	assert.True(t, sockOld.isClosed(), "older connection must be force-closed")
	assert.Equal(t, session.StateClosed, connOld.State())
	assert.Same(t, connNew, hub.ConnectionOf(1))
	assert.Equal(t, 0, hub.RoomSize(7))
	assert.Equal(t, 1, hub.RoomSize(9))

	// The evicted socket's read loop eventually calls Leave; it must not
	// disturb the new connection's registration.
	hub.Leave(connOld)
	assert.Same(t, connNew, hub.ConnectionOf(1))
}

func TestHubLeaveRemovesEmptyRoom(t *testing.T) {
	hub := NewBoardHub()
	conn, _ := joinFake(hub, 1, 7, model.PermissionOwner)
	require.Equal(t, 1, hub.RoomSize(7))

	hub.Leave(conn)
	assert.Equal(t, 0, hub.RoomSize(7))
	assert.Nil(t, hub.ConnectionOf(1))
}

func TestProcessUpdateViewerIsSilentNoOp(t *testing.T) {
	mem := store.NewMemory(nil)
	mem.CreateBoard(7)
	hub := NewBoardHub()
	h := NewBoardWSHandler(nil, nil, mem, hub, nil)

	viewer, viewerSock := joinFake(hub, 1, 7, model.PermissionViewer)
	_, editorSock := joinFake(hub, 2, 7, model.PermissionEditor)

	raw, _ := json.Marshal(model.BoardUpdate{Type: model.UpdateUpsert, Paths: []model.Path{path("a", "#ff0000")}})
	h.processUpdate(context.Background(), viewer, raw)

	paths, err := mem.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, paths, "viewer mutations must not reach the store")
	assert.Empty(t, viewerSock.updates(t))
	assert.Empty(t, editorSock.updates(t))
}

func TestProcessUpdateMalformedFrameDropped(t *testing.T) {
	mem := store.NewMemory(nil)
	mem.CreateBoard(7)
	hub := NewBoardHub()
	h := NewBoardWSHandler(nil, nil, mem, hub, nil)

	editor, sock := joinFake(hub, 1, 7, model.PermissionEditor)

	h.processUpdate(context.Background(), editor, []byte("{not json"))
	h.processUpdate(context.Background(), editor, []byte(`{"type":"SHUFFLE"}`))
	h.processUpdate(context.Background(), editor, []byte(`{"type":"UPSERT","paths":[]}`))

	assert.Empty(t, sock.updates(t))
}

func TestProcessUpdateAppliesAndRebroadcasts(t *testing.T) {
	mem := store.NewMemory(nil)
	mem.CreateBoard(7)
	hub := NewBoardHub()
	h := NewBoardWSHandler(nil, nil, mem, hub, nil)

	editor, editorSock := joinFake(hub, 1, 7, model.PermissionEditor)
	_, peerSock := joinFake(hub, 2, 7, model.PermissionViewer)

	ctx := context.Background()
	upsertAB, _ := json.Marshal(model.BoardUpdate{
		Type:  model.UpdateUpsert,
		Paths: []model.Path{path("a", "#ff0000"), path("b", "#00ff00")},
	})
	deleteA, _ := json.Marshal(model.BoardUpdate{Type: model.UpdateDelete, IDs: []string{"a"}})
	upsertC, _ := json.Marshal(model.BoardUpdate{Type: model.UpdateUpsert, Paths: []model.Path{path("c", "#0000ff")}})

	h.processUpdate(ctx, editor, upsertAB)
	h.processUpdate(ctx, editor, deleteA)
	h.processUpdate(ctx, editor, upsertC)

	// Every member, sender included, sees the frames in apply order.
	for _, sock := range []*fakeSocket{editorSock, peerSock} {
		got := sock.updates(t)
		require.Len(t, got, 3)
		assert.Equal(t, model.UpdateUpsert, got[0].Type)
		assert.Equal(t, []string{"a"}, got[1].IDs)
		require.Len(t, got[2].Paths, 1)
		assert.Equal(t, "c", got[2].Paths[0].ID)
	}

	paths, err := mem.List(ctx, 7)
	require.NoError(t, err)
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestJoinBeforeReplayDeliversConcurrentBroadcasts(t *testing.T) {
	mem := store.NewMemory(nil)
	mem.CreateBoard(7)
	require.NoError(t, mem.Upsert(context.Background(), 7, []model.Path{path("a", "#ff0000")}))

	hub := NewBoardHub()
	h := NewBoardWSHandler(nil, nil, mem, hub, nil)

	// The handler joins the room before replaying the board, so a mutation
	// landing between the store read and the replay still reaches the new
	// connection as a broadcast.
	joiner, joinerSock := joinFake(hub, 1, 7, model.PermissionViewer)
	editor, _ := joinFake(hub, 2, 7, model.PermissionEditor)

	raw, _ := json.Marshal(model.BoardUpdate{Type: model.UpdateUpsert, Paths: []model.Path{path("b", "#00ff00")}})
	h.processUpdate(context.Background(), editor, raw)
	require.NoError(t, h.sendInitialState(joiner))

	got := joinerSock.updates(t)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Paths[0].ID, "broadcast during the join window must be delivered")
	assert.Len(t, got[1].Paths, 2, "replay includes the concurrent mutation")
}

func newAdmitApp(t *testing.T) *fiber.App {
	t.Helper()
	jwt := auth.NewJWTManager("test-secret", time.Hour, time.Hour)
	h := NewBoardWSHandler(nil, jwt, nil, NewBoardHub(), nil)

	app := fiber.New()
	app.Get("/ws/boards/:boardId", h.Admit, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func admitRequest(target, cookie string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: cookie})
	}
	return req
}

func TestAdmitRejectionsShareOneStatus(t *testing.T) {
	app := newAdmitApp(t)

	// A bad board id, a missing session, and a garbage token must be
	// indistinguishable from outside.
	for _, req := range []*http.Request{
		admitRequest("/ws/boards/not-a-number", ""),
		admitRequest("/ws/boards/7", ""),
		admitRequest("/ws/boards/7", "garbage-token"),
	} {
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	}
}

func TestAdmitRequiresUpgradeRequest(t *testing.T) {
	app := newAdmitApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/boards/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestSendInitialStateReplaysBoard(t *testing.T) {
	mem := store.NewMemory(nil)
	mem.CreateBoard(7)
	require.NoError(t, mem.Upsert(context.Background(), 7, []model.Path{path("a", "#ff0000"), path("b", "#00ff00")}))

	h := NewBoardWSHandler(nil, nil, mem, NewBoardHub(), nil)
	sock := &fakeSocket{}
	conn := session.New(1, 7, model.PermissionViewer, sock)

	require.NoError(t, h.sendInitialState(conn))
	got := sock.updates(t)
	require.Len(t, got, 1)
	assert.Equal(t, model.UpdateUpsert, got[0].Type)
	assert.Len(t, got[0].Paths, 2)
}

func TestSendInitialStateEmptyBoardSendsNothing(t *testing.T) {
	mem := store.NewMemory(nil)
	mem.CreateBoard(7)

	h := NewBoardWSHandler(nil, nil, mem, NewBoardHub(), nil)
	sock := &fakeSocket{}
	conn := session.New(1, 7, model.PermissionEditor, sock)

	require.NoError(t, h.sendInitialState(conn))
	assert.Empty(t, sock.frames)
}
