package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/polkapad/staking-ledger/internal/db/model"
)

const ledgerSnapshotID = "singleton"

type ledgerSnapshotDoc struct {
	ID                    string `bson:"_id"`
	*model.LedgerSnapshot `bson:",inline"`
}

func (db *Database) GetLedgerSnapshot(ctx context.Context) (*model.LedgerSnapshot, error) {
	filter := bson.M{"_id": ledgerSnapshotID}
	res := db.collection(model.LedgerSnapshotCollection).FindOne(ctx, filter)

	var doc ledgerSnapshotDoc
	err := res.Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     ledgerSnapshotID,
				Message: "ledger snapshot not found",
			}
		}
		return nil, err
	}

	return doc.LedgerSnapshot, nil
}

// UpsertLedgerSnapshot replaces the snapshot unless the stored one is
// already newer.
func (db *Database) UpsertLedgerSnapshot(ctx context.Context, snapshot *model.LedgerSnapshot) error {
	doc := ledgerSnapshotDoc{
		ID:             ledgerSnapshotID,
		LedgerSnapshot: snapshot,
	}

	filter := bson.M{
		"_id":      ledgerSnapshotID,
		"last_seq": bson.M{"$lte": snapshot.LastSeq},
	}
	_, err := db.collection(model.LedgerSnapshotCollection).
		ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// a newer snapshot exists: the filter missed it and the upsert hit its _id
		return nil
	}
	return err
}
