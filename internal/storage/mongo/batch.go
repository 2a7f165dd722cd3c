package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

// batchWriter commits index deletions, insertions and signed counter
// increments as one transaction. It is the only write path into the index
// and ledger collections.
type batchWriter struct {
	client  *mongo.Client
	entries *mongo.Collection
	ledger  *mongo.Collection
}

func (w *batchWriter) Commit(ctx context.Context, batch *storage.Batch) error {
	if batch == nil || batch.Empty() {
		return nil
	}
	if batch.Size() > storage.MaxBatchWrites {
		return model.ErrBatchTooLarge
	}
	if err := ctx.Err(); err != nil {
		return model.WrapError(err)
	}

	session, err := w.client.StartSession()
	if err != nil {
		return model.WrapError(err)
	}
	defer session.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		if len(batch.DeleteEntries) > 0 || len(batch.InsertEntries) > 0 {
			if _, err := w.entries.BulkWrite(sessCtx, entryModels(batch)); err != nil {
				return nil, err
			}
		}
		if len(batch.Increments) > 0 {
			if _, err := w.ledger.BulkWrite(sessCtx, incrementModels(batch)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	_, err = session.WithTransaction(ctx, callback)
	return model.WrapError(err)
}

func entryModels(batch *storage.Batch) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(batch.DeleteEntries)+len(batch.InsertEntries))
	for _, id := range batch.DeleteEntries {
		models = append(models, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
	}
	for _, entry := range batch.InsertEntries {
		models = append(models, mongo.NewInsertOneModel().SetDocument(entry))
	}
	return models
}

func incrementModels(batch *storage.Batch) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(batch.Increments))
	for _, inc := range batch.Increments {
		id := storage.CalculateCounterID(inc.Key)

		set := bson.M{"updated_at": batch.WriteTimestamp}
		// Last-write metadata only follows net additions. A removal must
		// not replace the most recent legitimate purchase's metadata.
		if inc.Delta > 0 && inc.Meta != nil {
			set["last_receipt_id"] = inc.Meta.ReceiptID
			set["last_receipt_date"] = inc.Meta.ReceiptDate
			set["last_store_label"] = inc.Meta.StoreLabel
		}

		update := bson.M{
			"$inc": bson.M{"count": inc.Delta},
			"$set": set,
			"$setOnInsert": bson.M{
				"scope": inc.Key.Scope,
				"code":  inc.Key.Code,
			},
		}

		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(update).
			SetUpsert(true))
	}
	return models
}
