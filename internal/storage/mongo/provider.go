package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kvittera/internal/storage"
)

type provider struct {
	client   *mongo.Client
	db       *mongo.Database
	receipts *receiptStore
	index    *indexStore
	ledger   *ledgerStore
	writer   *batchWriter
}

// NewProvider connects to MongoDB and initializes the receipt, index and
// ledger stores. Indexes are ensured on startup.
func NewProvider(ctx context.Context, cfg storage.Config) (storage.Provider, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(cfg.Database)

	p := &provider{
		client:   client,
		db:       db,
		receipts: &receiptStore{coll: db.Collection(cfg.ReceiptCollection)},
		index:    &indexStore{coll: db.Collection(cfg.IndexCollection)},
		ledger:   &ledgerStore{coll: db.Collection(cfg.LedgerCollection)},
	}
	p.writer = &batchWriter{
		client:  client,
		entries: p.index.coll,
		ledger:  p.ledger.coll,
	}

	if err := p.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return p, nil
}

func (p *provider) Index() storage.IndexStore     { return p.index }
func (p *provider) Ledger() storage.LedgerStore   { return p.ledger }
func (p *provider) Receipts() storage.ReceiptStore { return p.receipts }
func (p *provider) Writer() storage.BatchWriter   { return p.writer }

// EnsureIndexes creates the indexes the read paths rely on.
func (p *provider) EnsureIndexes(ctx context.Context) error {
	// (receipt_id): snapshot reads before every sync
	_, err := p.index.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "receipt_id", Value: 1}},
	})
	if err != nil {
		return err
	}

	// (code, receipt_date): global purchase history, newest first
	_, err = p.index.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "code", Value: 1}, {Key: "receipt_date", Value: -1}},
	})
	if err != nil {
		return err
	}

	// (owner_id, code, receipt_date): owner-scoped purchase history
	_, err = p.index.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "code", Value: 1}, {Key: "receipt_date", Value: -1}},
	})
	if err != nil {
		return err
	}

	// (owner.id): owner purge enumeration
	_, err = p.receipts.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner.id", Value: 1}},
	})
	return err
}

func (p *provider) Close(ctx context.Context) error {
	if p.client != nil {
		return p.client.Disconnect(ctx)
	}
	return nil
}
