package service

import (
	"bingohall/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinGame(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	h.join(t, "p2")

	ps := h.player(t, "p2")
	assert.Equal(t, model.PlayerJoined, ps.Status)
	assert.Len(t, ps.CardItems, 25)
	assert.Equal(t, "name-p2", ps.Username)

	room := h.room(t)
	require.Len(t, room.PlayerList, 2)
	assert.False(t, room.IsRoomFull)

	joined := h.router.last(t, "conn-p2", model.MsgSuccessfullyJoined)
	assert.NotNil(t, joined["playerState"])
	assert.NotContains(t, h.router.types("conn-p2"), model.MsgPlayerJoined)

	list := h.router.last(t, "conn-p1", model.MsgPlayerJoined)
	assert.Len(t, list["playerList"], 2)
}

func TestJoinGame_RoomNotFound(t *testing.T) {
	h := newHarness(t)
	h.router.connect("conn-p1", testRoom, "p1", model.RolePlayer)
	err := h.do(t, "conn-p1", model.JoinGame{})
	assert.Equal(t, model.ErrTypeRoomNotFound, gameErrType(t, err))
}

func TestJoinGame_AlreadyJoined(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	card := h.player(t, "p1").CardItems

	err := h.do(t, "conn-p1", model.JoinGame{})
	assert.Equal(t, model.ErrTypeAlreadyJoined, gameErrType(t, err))
	assert.Equal(t, card, h.player(t, "p1").CardItems)
}

func TestJoinGame_RoomFull(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 2)
	h.join(t, "p1")
	h.join(t, "p2")
	assert.True(t, h.room(t).IsRoomFull)

	h.router.connect("conn-p3", testRoom, "p3", model.RolePlayer)
	require.NoError(t, h.do(t, "conn-p3", model.JoinGame{}))

	assert.Contains(t, h.router.types("conn-p1"), model.MsgGameRoomFull)
	assert.Contains(t, h.router.types("conn-p3"), model.MsgGameRoomFull)
	assert.Len(t, h.room(t).PlayerList, 2)
	missing, err := h.repo.LoadPlayer(h.ctx, testRoom, "p3")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRemoveAndRejoin(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 2)
	h.join(t, "p1")
	h.join(t, "p2")

	require.NoError(t, h.do(t, "caller", model.RemovePlayer{UserID: "p1"}))
	assert.Equal(t, model.PlayerRemoved, h.player(t, "p1").Status)
	room := h.room(t)
	assert.Len(t, room.PlayerList, 1)
	assert.False(t, room.IsRoomFull)

	assert.Contains(t, h.router.types("conn-p1"), model.MsgPlayerRemoved)
	assert.NotContains(t, h.router.types("conn-p1"), model.MsgPlayerListUpdated)
	assert.Contains(t, h.router.types("conn-p2"), model.MsgPlayerListUpdated)
	assert.Contains(t, h.router.types("conn-p2"), model.MsgVacancyCreated)

	// a removed player's join becomes a rejoin notice
	h.router.reset()
	require.NoError(t, h.do(t, "conn-p1", model.JoinGame{}))
	assert.Equal(t, []string{model.MsgPlayerRejoinRequestReceived}, h.router.types("caller"))
	assert.Equal(t, []string{model.MsgRejoinRequestSent}, h.router.types("conn-p1"))
	assert.Equal(t, model.PlayerRemoved, h.player(t, "p1").Status)

	require.NoError(t, h.do(t, "conn-p1", model.RejoinGame{}))
	assert.Len(t, h.room(t).RejoinRequests, 1)

	err := h.do(t, "conn-p1", model.RejoinGame{})
	assert.Equal(t, model.ErrTypeRejoinRequestExists, gameErrType(t, err))
	assert.Len(t, h.room(t).RejoinRequests, 1)

	require.NoError(t, h.do(t, "caller", model.RejoinRequestProcessed{UserID: "p1", Action: model.ActionAccept}))
	assert.Equal(t, model.PlayerJoined, h.player(t, "p1").Status)
	room = h.room(t)
	assert.Empty(t, room.RejoinRequests)
	assert.True(t, room.IsRoomFull)
	assert.Contains(t, h.router.types("conn-p1"), model.MsgPlayerRejoined)
}

func TestRejoinRequestProcessed_Reject(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	require.NoError(t, h.do(t, "caller", model.RemovePlayer{UserID: "p1"}))
	require.NoError(t, h.do(t, "conn-p1", model.RejoinGame{}))

	require.NoError(t, h.do(t, "caller", model.RejoinRequestProcessed{UserID: "p1", Action: model.ActionReject}))
	assert.Equal(t, model.PlayerBlacklisted, h.player(t, "p1").Status)
	room := h.room(t)
	assert.Empty(t, room.RejoinRequests)
	assert.Contains(t, room.BlacklistedPlayers, "p1")
	assert.Contains(t, h.router.types("conn-p1"), model.MsgPlayerBlacklisted)

	err := h.do(t, "conn-p1", model.JoinGame{})
	assert.Equal(t, model.ErrTypeBlacklisted, gameErrType(t, err))
	err = h.do(t, "conn-p1", model.RejoinGame{})
	assert.Equal(t, model.ErrTypeBlacklisted, gameErrType(t, err))
}

func TestRejoinRequestProcessed_RoomFull(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 1)
	h.join(t, "p1")
	require.NoError(t, h.do(t, "caller", model.RemovePlayer{UserID: "p1"}))
	require.NoError(t, h.do(t, "conn-p1", model.RejoinGame{}))
	h.join(t, "p2")
	h.router.reset()

	require.NoError(t, h.do(t, "caller", model.RejoinRequestProcessed{UserID: "p1", Action: model.ActionAccept}))
	assert.Equal(t, []string{model.MsgGameRoomFull}, h.router.types("caller"))
	assert.Empty(t, h.router.types("conn-p1"))
	assert.Equal(t, model.PlayerRemoved, h.player(t, "p1").Status)
	assert.Len(t, h.room(t).RejoinRequests, 1)
}

// rowKeys returns the keys of the first card row, which the harness pattern requires
func rowKeys(ps *model.PlayerState) []int {
	keys := make([]int, 0, 5)
	for _, it := range ps.CardItems[:5] {
		keys = append(keys, it.Key)
	}
	return keys
}

func TestUpdatePlayerState_AutoWin(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	h.join(t, "p2")
	require.NoError(t, h.do(t, "caller", model.UpdateGameSettings{GameSettings: model.Settings{"autoWin": float64(1)}}))
	require.NoError(t, h.do(t, "caller", model.StartGame{}))

	keys := rowKeys(h.player(t, "p1"))
	partial := keys[:4]
	require.NoError(t, h.do(t, "conn-p1", model.UpdatePlayerState{PlayerStateUpdate: model.PlayerStateUpdate{MarkedKeys: &partial}}))
	assert.Equal(t, model.StatusInProgress, h.room(t).GameStatus)

	require.NoError(t, h.do(t, "conn-p1", model.UpdatePlayerState{PlayerStateUpdate: model.PlayerStateUpdate{MarkedKeys: &keys}}))
	room := h.room(t)
	assert.Equal(t, model.StatusInReview, room.GameStatus)
	require.Len(t, room.BingoRequests, 1)
	assert.Equal(t, keys, room.BingoRequests[0].MarkedKeys)

	full := h.router.last(t, "caller", model.MsgReviewRequestUpdated)
	req := full["bingoRequests"].([]any)[0].(map[string]any)
	assert.Contains(t, req, "markedKeys")

	redacted := h.router.last(t, "conn-p2", model.MsgBingoInReview)
	pub := redacted["bingoRequests"].([]any)[0].(map[string]any)
	assert.NotContains(t, pub, "markedKeys")
	assert.NotContains(t, pub, "cardItems")

	state := h.router.last(t, "conn-p1", model.MsgPlayerStateUpdated)
	assert.EqualValues(t, model.StatusInReview, state["gameStatus"])

	// a second matching update does not queue the player twice
	require.NoError(t, h.do(t, "conn-p1", model.UpdatePlayerState{PlayerStateUpdate: model.PlayerStateUpdate{MarkedKeys: &keys}}))
	assert.Len(t, h.room(t).BingoRequests, 1)
}

func TestBingoReviewRequest(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	require.NoError(t, h.do(t, "caller", model.StartGame{}))

	err := h.do(t, "conn-p1", model.BingoReviewRequest{})
	assert.Equal(t, model.ErrTypeNoMarkedKeys, gameErrType(t, err))

	keys := []int{h.player(t, "p1").CardItems[0].Key}
	require.NoError(t, h.do(t, "conn-p1", model.UpdatePlayerState{PlayerStateUpdate: model.PlayerStateUpdate{MarkedKeys: &keys}}))
	require.NoError(t, h.do(t, "conn-p1", model.BingoReviewRequest{}))
	assert.Equal(t, model.StatusInReview, h.room(t).GameStatus)

	err = h.do(t, "conn-p1", model.BingoReviewRequest{})
	assert.Equal(t, model.ErrTypeAlreadyInReview, gameErrType(t, err))
	assert.Len(t, h.room(t).BingoRequests, 1)
}

// claim files manual claims for the given users in order
func claim(t *testing.T, h *harness, users ...string) {
	t.Helper()
	for _, u := range users {
		keys := rowKeys(h.player(t, u))
		require.NoError(t, h.do(t, "conn-"+u, model.UpdatePlayerState{PlayerStateUpdate: model.PlayerStateUpdate{MarkedKeys: &keys}}))
		require.NoError(t, h.do(t, "conn-"+u, model.BingoReviewRequest{}))
	}
}

func TestUpdateReviewRequest_Continue(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	h.join(t, "p2")
	h.join(t, "p3")
	require.NoError(t, h.do(t, "caller", model.StartGame{}))
	require.NoError(t, h.do(t, "caller", model.NextCall{}))
	claim(t, h, "p1", "p2")

	require.NoError(t, h.do(t, "caller", model.UpdateReviewRequest{UserID: "p1", Action: model.ActionContinueGame}))
	room := h.room(t)
	assert.Equal(t, model.StatusInReview, room.GameStatus, "p2 is still queued")
	require.Len(t, room.WinnerList, 1)
	assert.Equal(t, "p1", room.WinnerList[0].UserID)
	assert.Equal(t, 2, room.WinnerList[0].WonAt)

	ps := h.player(t, "p1")
	assert.True(t, ps.HasWon)
	assert.Equal(t, 2, ps.WonAt)

	assert.Contains(t, h.router.types("conn-p1"), model.MsgBingoAccepted)
	won := h.router.last(t, "conn-p3", model.MsgPlayerWon)
	assert.Equal(t, "p1", won["whoIsWon"].(map[string]any)["userId"])

	require.NoError(t, h.do(t, "caller", model.UpdateReviewRequest{UserID: "p2", Action: model.ActionContinueGame}))
	assert.Equal(t, model.StatusInProgress, h.room(t).GameStatus)

	err := h.do(t, "caller", model.UpdateReviewRequest{UserID: "p2", Action: model.ActionContinueGame})
	assert.Equal(t, model.ErrTypeReviewRequest, gameErrType(t, err))
}

func TestUpdateReviewRequest_EndsGame(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	require.NoError(t, h.do(t, "caller", model.StartGame{}))
	claim(t, h, "p1")

	require.NoError(t, h.do(t, "caller", model.UpdateReviewRequest{UserID: "p1", Action: "END"}))
	room := h.room(t)
	assert.Equal(t, model.StatusNotStarted, room.GameStatus)
	require.Len(t, room.WinnerList, 1, "finishing keeps the winner list")
	assert.Empty(t, room.BingoRequests)
	assert.Equal(t, model.PlayerNotJoined, h.player(t, "p1").Status)
	assert.Contains(t, h.router.types("conn-p1"), model.MsgGameFinished)
	require.Len(t, h.history.recs, 1)
	assert.Len(t, h.history.recs[0].Winners, 1)
}

func TestRejectBingo(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	h.join(t, "p2")
	require.NoError(t, h.do(t, "caller", model.StartGame{}))
	claim(t, h, "p1")
	h.router.reset()

	require.NoError(t, h.do(t, "caller", model.RejectBingo{UserID: "p1"}))
	room := h.room(t)
	assert.Equal(t, model.StatusInProgress, room.GameStatus)
	assert.Empty(t, room.BingoRequests)
	assert.Empty(t, room.WinnerList)

	assert.Equal(t, []string{model.MsgBingoRejected}, h.router.types("conn-p1"))
	assert.Equal(t, []string{model.MsgReviewRequestUpdated}, h.router.types("caller"))
	assert.Equal(t, []string{model.MsgReviewRequestUpdated}, h.router.types("conn-p2"))

	err := h.do(t, "caller", model.RejectBingo{UserID: "p1"})
	assert.Equal(t, model.ErrTypeReviewRequest, gameErrType(t, err))
}

func TestReplyMapsErrors(t *testing.T) {
	h := newHarness(t)
	h.router.connect("c", testRoom, "u", model.RolePlayer)
	req := h.req("c")

	h.disp.Reply(req, model.EventJoinGame, NotFound())
	h.disp.Reply(req, model.EventJoinGame, assert.AnError)
	h.disp.Reply(req, model.EventJoinGame, nil)

	assert.Equal(t, []string{model.ErrTypeRoomNotFound, model.ErrTypeProcessing}, h.router.types("c"))
	p := h.router.last(t, "c", model.ErrTypeProcessing)
	assert.Equal(t, "Error processing game event", p["message"])
}

// removeAndAsk removes the user and files their rejoin request
func removeAndAsk(t *testing.T, h *harness, user string) {
	t.Helper()
	require.NoError(t, h.do(t, "caller", model.RemovePlayer{UserID: user}))
	require.NoError(t, h.do(t, "conn-"+user, model.RejoinGame{}))
}

func TestRejoinRequestProcessed_RequiresQueuedRequest(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, h *harness)
		action     string
		wantStatus model.PlayerStatus
	}{
		{
			name: "accept after a reject does not lift the blacklist",
			setup: func(t *testing.T, h *harness) {
				removeAndAsk(t, h, "p1")
				require.NoError(t, h.do(t, "caller", model.RejoinRequestProcessed{UserID: "p1", Action: model.ActionReject}))
			},
			action:     model.ActionAccept,
			wantStatus: model.PlayerBlacklisted,
		},
		{
			name:       "reject of a joined player who never asked",
			setup:      func(t *testing.T, h *harness) {},
			action:     model.ActionReject,
			wantStatus: model.PlayerJoined,
		},
		{
			name: "accept of a removed player who never asked",
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, h.do(t, "caller", model.RemovePlayer{UserID: "p1"}))
			},
			action:     model.ActionAccept,
			wantStatus: model.PlayerRemoved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.createRoom(t, 5)
			h.join(t, "p1")
			tt.setup(t, h)
			before := h.room(t)

			err := h.do(t, "caller", model.RejoinRequestProcessed{UserID: "p1", Action: tt.action})
			assert.Equal(t, model.ErrTypeCaller, gameErrType(t, err))

			assert.Equal(t, tt.wantStatus, h.player(t, "p1").Status)
			after := h.room(t)
			assert.Equal(t, before.PlayerList, after.PlayerList)
			assert.Equal(t, before.BlacklistedPlayers, after.BlacklistedPlayers)
		})
	}
}

func TestBlacklistedPlayerLeavesReviewQueue(t *testing.T) {
	tests := []struct {
		name       string
		others     []string
		wantStatus model.GameStatus
	}{
		{"only claim", nil, model.StatusInProgress},
		{"other claim still queued", []string{"p2"}, model.StatusInReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.createRoom(t, 5)
			h.join(t, "p1")
			h.join(t, "p2")
			require.NoError(t, h.do(t, "caller", model.StartGame{}))
			claim(t, h, append([]string{"p1"}, tt.others...)...)
			require.Equal(t, model.StatusInReview, h.room(t).GameStatus)
			h.router.reset()

			require.NoError(t, h.do(t, "caller", model.RemovePlayer{UserID: "p1"}))
			room := h.room(t)
			assert.False(t, room.HasBingoRequest("p1"), "removed players lose their claim")
			assert.Equal(t, tt.wantStatus, room.GameStatus)
			assert.Contains(t, h.router.types("caller"), model.MsgReviewRequestUpdated)
			assert.Contains(t, h.router.types("conn-p2"), model.MsgReviewRequestUpdated)

			require.NoError(t, h.do(t, "conn-p1", model.RejoinGame{}))
			require.NoError(t, h.do(t, "caller", model.RejoinRequestProcessed{UserID: "p1", Action: model.ActionReject}))
			room = h.room(t)
			assert.Equal(t, model.PlayerBlacklisted, h.player(t, "p1").Status)
			assert.False(t, room.HasBingoRequest("p1"))
			assert.Equal(t, tt.wantStatus, room.GameStatus)

			err := h.do(t, "caller", model.UpdateReviewRequest{UserID: "p1", Action: model.ActionContinueGame})
			assert.Equal(t, model.ErrTypeReviewRequest, gameErrType(t, err))
			assert.Empty(t, h.room(t).WinnerList)
		})
	}
}

func TestUpdateReviewRequest_RefusesPlayersOutOfTheGame(t *testing.T) {
	h := newHarness(t)
	h.createRoom(t, 5)
	h.join(t, "p1")
	require.NoError(t, h.do(t, "caller", model.StartGame{}))
	claim(t, h, "p1")

	// a claim left behind by a record that is no longer JOINED is never accepted
	ps := h.player(t, "p1")
	ps.Status = model.PlayerLeft
	require.NoError(t, h.repo.SavePlayers(h.ctx, testRoom, ps))

	err := h.do(t, "caller", model.UpdateReviewRequest{UserID: "p1", Action: model.ActionContinueGame})
	assert.Equal(t, model.ErrTypeReviewRequest, gameErrType(t, err))
	room := h.room(t)
	assert.Empty(t, room.WinnerList)
	assert.True(t, room.HasBingoRequest("p1"))
}
