package service

import (
	"bingohall/internal/engine"
	"bingohall/internal/model"
	"bingohall/internal/repository"
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// PlayerService handles the player lifecycle and bingo claim review
type PlayerService struct {
	repo   repository.RoomRepo
	router Router
	rng    engine.Rand
	rooms  *RoomService
}

// NewPlayerService creates a new player service. rooms finishes the game
// when a reviewed claim ends it.
func NewPlayerService(repo repository.RoomRepo, router Router, rng engine.Rand, rooms *RoomService) *PlayerService {
	if rng == nil {
		rng = engine.DefaultRand()
	}
	return &PlayerService{
		repo:   repo,
		router: router,
		rng:    rng,
		rooms:  rooms,
	}
}

func (s *PlayerService) loadExisting(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.repo.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Exists() {
		return nil, NotFound()
	}
	return room, nil
}

// JoinGame deals the requester a card and adds them to the roster
func (s *PlayerService) JoinGame(ctx context.Context, req Request, ev model.JoinGame) error {
	if req.User == nil {
		return Unauthorized("missing identity")
	}
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	userID := req.User.ID

	prev, err := s.repo.LoadPlayer(ctx, room.RoomID, userID)
	if err != nil {
		return err
	}
	if prev != nil {
		switch prev.Status {
		case model.PlayerRemoved:
			username := prev.Username
			if username == "" {
				username = req.User.Username
			}
			toCallers(s.router, room.RoomID, msg(model.MsgPlayerRejoinRequestReceived, rejoinAskPayload{PlayerID: userID, Username: username}))
			s.router.SendTo(req.ConnID, msg(model.MsgRejoinRequestSent, rejoinAskPayload{PlayerID: userID, Username: username}))
			return nil
		case model.PlayerJoined:
			return &GameError{
				Type:    model.ErrTypeAlreadyJoined,
				Message: "Player already joined",
				Extra:   map[string]any{"playerState": prev},
			}
		case model.PlayerBlacklisted:
			return Conflict(model.ErrTypeBlacklisted, "You are blacklisted from this room")
		}
	}
	if slices.Contains(room.BlacklistedPlayers, userID) {
		return Conflict(model.ErrTypeBlacklisted, "You are blacklisted from this room")
	}

	if _, err := roster(ctx, s.repo, room); err != nil {
		return err
	}
	if room.IsRoomFull {
		s.router.Broadcast(room.RoomID, msg(model.MsgGameRoomFull, roomFullPayload{IsRoomFull: true}))
		return nil
	}

	state := &model.PlayerState{
		UserID:           userID,
		Username:         firstNonEmpty(ev.Username, req.User.Username),
		Picture:          req.User.Picture,
		Status:           model.PlayerJoined,
		UserGameSettings: model.Settings{},
	}
	if prev != nil {
		state.Username = firstNonEmpty(state.Username, prev.Username)
		state.UserGameSettings = prev.UserGameSettings.Clone()
	}
	state.ResetCard(engine.CreateCardItems(s.rng, room.BingoCard, room.OriginalCallItems))

	room.PlayerList = append(room.PlayerList, state.Summary())
	slices.SortFunc(room.PlayerList, func(a, b model.Player) int { return strings.Compare(a.UserID, b.UserID) })
	room.RecomputeFull(len(room.PlayerList))

	if err := s.repo.Save(ctx, room, state); err != nil {
		return err
	}

	s.router.SendTo(req.ConnID, msg(model.MsgSuccessfullyJoined, room.View(false, state)))
	s.router.Broadcast(room.RoomID, msg(model.MsgPlayerJoined, playerJoinedPayload{
		PlayerList:    room.PlayerList,
		IsRoomFull:    room.IsRoomFull,
		BingoRequests: room.PublicBingoRequests(),
		WinnerList:    room.WinnerList,
	}), req.ConnID)
	log.Debug().Str("room", room.RoomID).Str("user", userID).Int("players", len(room.PlayerList)).Msg("player joined")
	return nil
}

// RemovePlayer kicks a player out; they may ask to rejoin later
func (s *PlayerService) RemovePlayer(ctx context.Context, req Request, ev model.RemovePlayer) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	target, err := s.repo.LoadPlayer(ctx, room.RoomID, ev.UserID)
	if err != nil {
		return err
	}
	if target == nil {
		return CallerError("Player not found")
	}
	if target.Status == model.PlayerBlacklisted {
		return CallerError("Player is blacklisted")
	}

	wasFull := room.IsRoomFull
	target.Status = model.PlayerRemoved
	claimDropped := room.DropClaim(target.UserID)
	if err := s.repo.SavePlayers(ctx, room.RoomID, target); err != nil {
		return err
	}
	if _, err := roster(ctx, s.repo, room); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}

	targetConns := playerConns(s.router, room.RoomID, target.UserID)
	sendAll(s.router, targetConns, msg(model.MsgPlayerRemoved, playerListPayload{
		PlayerList:  room.PlayerList,
		IsRoomFull:  room.IsRoomFull,
		PlayerState: target,
	}))
	s.router.Broadcast(room.RoomID, msg(model.MsgPlayerListUpdated, playerListPayload{
		PlayerList: room.PlayerList,
		IsRoomFull: room.IsRoomFull,
	}), targetConns...)
	if wasFull && !room.IsRoomFull {
		s.router.Broadcast(room.RoomID, msg(model.MsgVacancyCreated, roomFullPayload{IsRoomFull: false}))
	}
	if claimDropped {
		s.announceQueue(room)
	}
	return nil
}

// RejoinGame queues the requester's own rejoin request for the caller
func (s *PlayerService) RejoinGame(ctx context.Context, req Request) error {
	if req.User == nil {
		return Unauthorized("missing identity")
	}
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if room.HasRejoinRequest(req.User.ID) {
		return Conflict(model.ErrTypeRejoinRequestExists, "Rejoin request already sent")
	}
	state, err := s.repo.LoadPlayer(ctx, room.RoomID, req.User.ID)
	if err != nil {
		return err
	}
	if state == nil {
		return Validation("Player has not joined this room", nil)
	}
	switch state.Status {
	case model.PlayerBlacklisted:
		return Conflict(model.ErrTypeBlacklisted, "You are blacklisted from this room")
	case model.PlayerRemoved:
	default:
		return Validation("Only removed players can request to rejoin", nil)
	}

	room.RejoinRequests = append(room.RejoinRequests, state.Summary())
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	toCallers(s.router, room.RoomID, msg(model.MsgRejoinRequestReceived, rejoinQueuePayload{RejoinRequests: room.RejoinRequests}))
	s.router.SendTo(req.ConnID, msg(model.MsgRejoinRequestSent, rejoinAskPayload{PlayerID: state.UserID, Username: state.Username}))
	return nil
}

// ProcessRejoinRequest settles one queued rejoin request
func (s *PlayerService) ProcessRejoinRequest(ctx context.Context, req Request, ev model.RejoinRequestProcessed) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if !room.HasRejoinRequest(ev.UserID) {
		return CallerError("No rejoin request found for player")
	}
	if _, err := roster(ctx, s.repo, room); err != nil {
		return err
	}
	if room.IsRoomFull {
		toCallers(s.router, room.RoomID, msg(model.MsgGameRoomFull, roomFullPayload{IsRoomFull: true}))
		return nil
	}

	target, err := s.repo.LoadPlayer(ctx, room.RoomID, ev.UserID)
	if err != nil {
		return err
	}
	if target == nil {
		return CallerError("Player not found")
	}
	if target.Status != model.PlayerRemoved {
		return CallerError("Only removed players can be readmitted")
	}

	var msgType string
	switch ev.Action {
	case model.ActionAccept:
		target.Status = model.PlayerJoined
		msgType = model.MsgPlayerRejoined
	case model.ActionReject:
		target.Status = model.PlayerBlacklisted
		room.Blacklist(target.UserID)
		room.DropClaim(target.UserID)
		msgType = model.MsgPlayerBlacklisted
	default:
		return Validation("action must be accept or reject", nil)
	}
	room.RemoveRejoinRequest(target.UserID)

	if err := s.repo.SavePlayers(ctx, room.RoomID, target); err != nil {
		return err
	}
	if _, err := roster(ctx, s.repo, room); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}

	targetConns := playerConns(s.router, room.RoomID, target.UserID)
	sendAll(s.router, targetConns, msg(msgType, rejoinDecisionPayload{
		PlayerState:    target,
		PlayerList:     room.PlayerList,
		IsRoomFull:     room.IsRoomFull,
		RejoinRequests: room.RejoinRequests,
		GameStatus:     room.GameStatus,
		BingoRequests:  room.PublicBingoRequests(),
		WinnerList:     room.WinnerList,
		CalledItems:    room.CalledItems,
		GameSettings:   room.GameSettings,
	}))
	s.router.Broadcast(room.RoomID, msg(model.MsgPlayerListUpdated, playerListPayload{
		PlayerList: room.PlayerList,
		IsRoomFull: room.IsRoomFull,
	}), targetConns...)
	return nil
}

// UpdatePlayerState merges the player's marks and settings, and files a claim
// automatically when auto-win is on and the card matches the pattern
func (s *PlayerService) UpdatePlayerState(ctx context.Context, req Request, ev model.UpdatePlayerState) error {
	if req.User == nil {
		return Unauthorized("missing identity")
	}
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	state, err := s.repo.LoadPlayer(ctx, room.RoomID, req.User.ID)
	if err != nil {
		return err
	}
	if state == nil {
		return Validation("Player has not joined this room", nil)
	}
	state.Apply(ev.PlayerStateUpdate)

	claimed := ev.MarkedKeys != nil &&
		room.GameSettings.AutoWin() &&
		(room.GameStatus == model.StatusInProgress || room.GameStatus == model.StatusInReview) &&
		state.Status == model.PlayerJoined &&
		!room.HasBingoRequest(state.UserID) &&
		engine.CheckWinningPattern(state.MarkedKeys, state.CardItems, room.GameSettings.SelectedPattern(), room.BingoCard.CardGrid)

	if claimed {
		room.BingoRequests = append(room.BingoRequests, state.Clone())
		room.GameStatus = model.StatusInReview
		if err := s.repo.Save(ctx, room, state); err != nil {
			return err
		}
		s.announceClaim(room)
	} else if err := s.repo.SavePlayers(ctx, room.RoomID, state); err != nil {
		return err
	}

	sendAll(s.router, s.router.ConnectionsByUser(room.RoomID, state.UserID), msg(model.MsgPlayerStateUpdated, playerStatePayload{
		PlayerState:   state,
		GameStatus:    room.GameStatus,
		BingoRequests: room.PublicBingoRequests(),
	}))
	return nil
}

// RequestBingoReview files the requester's claim for the caller to review
func (s *PlayerService) RequestBingoReview(ctx context.Context, req Request) error {
	if req.User == nil {
		return Unauthorized("missing identity")
	}
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if room.GameStatus != model.StatusInProgress && room.GameStatus != model.StatusInReview {
		return Validation("Game is not in progress", nil)
	}
	state, err := s.repo.LoadPlayer(ctx, room.RoomID, req.User.ID)
	if err != nil {
		return err
	}
	if state == nil {
		return Validation("Player has not joined this room", nil)
	}
	switch state.Status {
	case model.PlayerJoined:
	case model.PlayerBlacklisted:
		return Conflict(model.ErrTypeBlacklisted, "You are blacklisted from this room")
	default:
		return Validation("Player has not joined this room", nil)
	}
	if len(state.MarkedKeys) == 0 {
		return Conflict(model.ErrTypeNoMarkedKeys, "No items marked")
	}
	if room.HasBingoRequest(state.UserID) {
		return Conflict(model.ErrTypeAlreadyInReview, "Bingo request already in review")
	}

	room.BingoRequests = append(room.BingoRequests, state.Clone())
	room.GameStatus = model.StatusInReview
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.announceClaim(room)
	return nil
}

// announceClaim tells callers about the full queue and everyone else that a review is pending
func (s *PlayerService) announceClaim(room *model.Room) {
	callers := toCallers(s.router, room.RoomID, msg(model.MsgReviewRequestUpdated, reviewFor(room, true, nil)))
	s.router.Broadcast(room.RoomID, msg(model.MsgBingoInReview, reviewFor(room, false, nil)), callers...)
}

// announceQueue tells everyone the review queue changed without a claim being settled
func (s *PlayerService) announceQueue(room *model.Room) {
	callers := toCallers(s.router, room.RoomID, msg(model.MsgReviewRequestUpdated, reviewFor(room, true, nil)))
	s.router.Broadcast(room.RoomID, msg(model.MsgReviewRequestUpdated, reviewFor(room, false, nil)), callers...)
}

// UpdateReviewRequest accepts a queued claim. CONTINUE_GAME keeps the game
// running; any other action finishes it.
func (s *PlayerService) UpdateReviewRequest(ctx context.Context, req Request, ev model.UpdateReviewRequest) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if !room.HasBingoRequest(ev.UserID) {
		return ReviewError("No bingo request found for player")
	}
	target, err := s.repo.LoadPlayer(ctx, room.RoomID, ev.UserID)
	if err != nil {
		return err
	}
	if target == nil {
		return ReviewError("Player not found")
	}
	if target.Status != model.PlayerJoined {
		return ReviewError("Player is no longer in the game")
	}

	room.RemoveBingoRequest(ev.UserID)
	wonAt := len(room.CalledItems)
	room.WinnerList = append(room.WinnerList, model.WinnerEntry{Player: target.Summary(), WonAt: wonAt})

	if ev.Action != model.ActionContinueGame {
		if err := s.repo.Save(ctx, room); err != nil {
			return err
		}
		return s.rooms.finish(ctx, room)
	}

	target.HasWon = true
	target.WonAt = wonAt
	room.GameStatus = room.ReviewStatus()
	if err := s.repo.Save(ctx, room, target); err != nil {
		return err
	}

	served := toCallers(s.router, room.RoomID, msg(model.MsgReviewRequestUpdated, reviewFor(room, true, nil)))
	targetConns := playerConns(s.router, room.RoomID, target.UserID)
	sendAll(s.router, targetConns, msg(model.MsgBingoAccepted, reviewFor(room, false, target)))
	served = append(served, targetConns...)
	s.router.Broadcast(room.RoomID, msg(model.MsgPlayerWon, playerWonPayload{
		GameStatus:    room.GameStatus,
		WinnerList:    room.WinnerList,
		BingoRequests: room.PublicBingoRequests(),
		WhoIsWon:      target.Summary(),
	}), served...)
	log.Info().Str("room", room.RoomID).Str("user", target.UserID).Int("wonAt", wonAt).Msg("bingo accepted")
	return nil
}

// RejectBingo drops a queued claim without recording a win
func (s *PlayerService) RejectBingo(ctx context.Context, req Request, ev model.RejectBingo) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if !room.RemoveBingoRequest(ev.UserID) {
		return ReviewError("No bingo request found for player")
	}
	room.GameStatus = room.ReviewStatus()
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}

	target, err := s.repo.LoadPlayer(ctx, room.RoomID, ev.UserID)
	if err != nil {
		return err
	}
	served := toCallers(s.router, room.RoomID, msg(model.MsgReviewRequestUpdated, reviewFor(room, true, nil)))
	targetConns := playerConns(s.router, room.RoomID, ev.UserID)
	sendAll(s.router, targetConns, msg(model.MsgBingoRejected, reviewFor(room, false, target)))
	served = append(served, targetConns...)
	s.router.Broadcast(room.RoomID, msg(model.MsgReviewRequestUpdated, reviewFor(room, false, nil)), served...)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
