package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kvittera/internal/storage"
)

type indexStore struct {
	coll *mongo.Collection
}

func (s *indexStore) EntriesByReceipt(ctx context.Context, receiptID string) ([]*storage.ItemIndexEntry, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"receipt_id": receiptID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []*storage.ItemIndexEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *indexStore) EntriesByCode(ctx context.Context, code string, ownerID string, limit int) ([]*storage.ItemIndexEntry, error) {
	filter := bson.M{"code": code}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "receipt_date", Value: -1}, {Key: "receipt_updated_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []*storage.ItemIndexEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
