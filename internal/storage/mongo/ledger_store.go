package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

type ledgerStore struct {
	coll *mongo.Collection
}

func (s *ledgerStore) Counts(ctx context.Context, scope string, codes []string) (map[string]int64, error) {
	if len(codes) == 0 {
		return map[string]int64{}, nil
	}
	if len(codes) > storage.MaxCounterLookup {
		return nil, fmt.Errorf("lookup of %d keys exceeds limit of %d", len(codes), storage.MaxCounterLookup)
	}

	ids := make([]string, 0, len(codes))
	for _, code := range codes {
		ids = append(ids, storage.CalculateCounterID(storage.CounterKey{Scope: scope, Code: code}))
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counters []*storage.Counter
	if err := cursor.All(ctx, &counters); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(counters))
	for _, c := range counters {
		counts[c.Code] = c.Count
	}
	return counts, nil
}

func (s *ledgerStore) Counter(ctx context.Context, key storage.CounterKey) (*storage.Counter, error) {
	var counter storage.Counter
	err := s.coll.FindOne(ctx, bson.M{"_id": storage.CalculateCounterID(key)}).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &counter, nil
}
