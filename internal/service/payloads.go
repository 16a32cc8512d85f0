package service

import "bingohall/internal/model"

// Outbound payload shapes. BingoRequests is `any` where callers receive the
// full queue and everyone else the identity-only summaries.

type gameStartedPayload struct {
	GameStatus     model.GameStatus    `json:"gameStatus"`
	CallItems      model.CallItems     `json:"callItems"`
	CalledItems    model.CallItems     `json:"calledItems"`
	WinnerList     []model.WinnerEntry `json:"winnerList"`
	BingoRequests  []model.Player      `json:"bingoRequests"`
	RejoinRequests []model.Player      `json:"rejoinRequestsList"`
}

type callPlacedPayload struct {
	CallItems   model.CallItems `json:"callItems"`
	CalledItems model.CallItems `json:"calledItems"`
	IsLastCall  bool            `json:"isLastCall"`
}

type callItemsPayload struct {
	CallItems model.CallItems `json:"callItems"`
}

type statusPayload struct {
	GameStatus model.GameStatus `json:"gameStatus"`
}

type settingsPayload struct {
	GameSettings model.Settings `json:"gameSettings"`
}

type roomFullPayload struct {
	IsRoomFull bool `json:"isRoomFull"`
}

type playerJoinedPayload struct {
	PlayerList    []model.Player      `json:"playerList"`
	IsRoomFull    bool                `json:"isRoomFull"`
	BingoRequests []model.Player      `json:"bingoRequests"`
	WinnerList    []model.WinnerEntry `json:"winnerList"`
}

type playerListPayload struct {
	PlayerList  []model.Player     `json:"playerList"`
	IsRoomFull  bool               `json:"isRoomFull"`
	PlayerState *model.PlayerState `json:"playerState,omitempty"`
}

type rejoinAskPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type rejoinQueuePayload struct {
	RejoinRequests []model.Player `json:"rejoinRequestsList"`
}

type rejoinDecisionPayload struct {
	PlayerState    *model.PlayerState  `json:"playerState"`
	PlayerList     []model.Player      `json:"playerList"`
	IsRoomFull     bool                `json:"isRoomFull"`
	RejoinRequests []model.Player      `json:"rejoinRequestsList"`
	GameStatus     model.GameStatus    `json:"gameStatus"`
	BingoRequests  []model.Player      `json:"bingoRequests"`
	WinnerList     []model.WinnerEntry `json:"winnerList"`
	CalledItems    model.CallItems     `json:"calledItems"`
	GameSettings   model.Settings      `json:"gameSettings"`
}

type playerStatePayload struct {
	PlayerState   *model.PlayerState `json:"playerState"`
	GameStatus    model.GameStatus   `json:"gameStatus"`
	BingoRequests []model.Player     `json:"bingoRequests"`
}

type reviewPayload struct {
	BingoRequests any                 `json:"bingoRequests"`
	WinnerList    []model.WinnerEntry `json:"winnerList"`
	GameStatus    model.GameStatus    `json:"gameStatus"`
	PlayerState   *model.PlayerState  `json:"playerState,omitempty"`
}

type playerWonPayload struct {
	GameStatus    model.GameStatus    `json:"gameStatus"`
	WinnerList    []model.WinnerEntry `json:"winnerList"`
	BingoRequests []model.Player      `json:"bingoRequests"`
	WhoIsWon      model.Player        `json:"whoIsWon"`
}

func reviewFor(room *model.Room, forCaller bool, ps *model.PlayerState) reviewPayload {
	p := reviewPayload{
		WinnerList:  room.WinnerList,
		GameStatus:  room.GameStatus,
		PlayerState: ps,
	}
	if forCaller {
		p.BingoRequests = room.BingoRequests
	} else {
		p.BingoRequests = room.PublicBingoRequests()
	}
	return p
}
