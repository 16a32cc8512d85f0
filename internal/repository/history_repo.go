package repository

import (
	"bingohall/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HistoryRepo archives finished games
type HistoryRepo interface {
	Insert(ctx context.Context, rec *model.GameRecord) error
	// ListByRoom returns the newest records first
	ListByRoom(ctx context.Context, roomID string, limit int64) ([]*model.GameRecord, error)
}

type historyRepo struct {
	collection *mongo.Collection
}

func NewHistoryRepo(client *mongo.Client, database string) HistoryRepo {
	db := client.Database(database)
	return &historyRepo{
		collection: db.Collection("games"),
	}
}

func (r *historyRepo) Insert(ctx context.Context, rec *model.GameRecord) error {
	_, err := r.collection.InsertOne(ctx, rec)
	return err
}

func (r *historyRepo) ListByRoom(ctx context.Context, roomID string, limit int64) ([]*model.GameRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []*model.GameRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// NopHistory discards records; used when no archive database is configured
type NopHistory struct{}

func (NopHistory) Insert(context.Context, *model.GameRecord) error { return nil }

func (NopHistory) ListByRoom(context.Context, string, int64) ([]*model.GameRecord, error) {
	return []*model.GameRecord{}, nil
}
