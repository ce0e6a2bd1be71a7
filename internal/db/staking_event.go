package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/polkapad/staking-ledger/internal/db/model"
)

const maxStakingEventsLimit = 1000

func (db *Database) SaveStakingEvent(ctx context.Context, event *model.StakingEventDocument) error {
	_, err := db.collection(model.StakingEventsCollection).InsertOne(ctx, event)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     fmt.Sprintf("%d", event.Seq),
						Message: "staking event already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetStakingEvents(
	ctx context.Context, account string, limit int64,
) ([]*model.StakingEventDocument, error) {
	if limit <= 0 || limit > maxStakingEventsLimit {
		limit = maxStakingEventsLimit
	}

	filter := bson.M{}
	if account != "" {
		filter["account"] = account
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.StakingEventsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []*model.StakingEventDocument{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (db *Database) GetLastStakingEventSeq(ctx context.Context) (uint64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})

	var result model.StakingEventDocument
	err := db.collection(model.StakingEventsCollection).FindOne(ctx, bson.M{}, opts).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return result.Seq, nil
}
