package model

import "time"

// GameRecord is the archived summary of one finished game
type GameRecord struct {
	ID          string        `json:"id" bson:"_id"`
	RoomID      string        `json:"roomId" bson:"roomId"`
	GameNumber  int           `json:"gameNumber" bson:"gameNumber"`
	CallerID    string        `json:"callerId" bson:"callerId"`
	CardType    CardType      `json:"cardType" bson:"cardType"`
	CardGrid    int           `json:"cardGrid" bson:"cardGrid"`
	Winners     []WinnerEntry `json:"winners" bson:"winners"`
	CalledCount int           `json:"calledCount" bson:"calledCount"`
	TotalCalls  int           `json:"totalCalls" bson:"totalCalls"`
	PlayerCount int           `json:"playerCount" bson:"playerCount"`
	FinishedAt  time.Time     `json:"finishedAt" bson:"finishedAt"`
}
