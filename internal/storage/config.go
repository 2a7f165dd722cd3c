package storage

// Config holds the connection settings for the primary store.
type Config struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`

	ReceiptCollection string `yaml:"receipt_collection"`
	IndexCollection   string `yaml:"index_collection"`
	LedgerCollection  string `yaml:"ledger_collection"`
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		URI:               "mongodb://localhost:27017",
		Database:          "kvittera",
		ReceiptCollection: "receipts",
		IndexCollection:   "receipt_items",
		LedgerCollection:  "item_counters",
	}
}

// ApplyDefaults fills in missing values with defaults.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.URI == "" {
		c.URI = def.URI
	}
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.ReceiptCollection == "" {
		c.ReceiptCollection = def.ReceiptCollection
	}
	if c.IndexCollection == "" {
		c.IndexCollection = def.IndexCollection
	}
	if c.LedgerCollection == "" {
		c.LedgerCollection = def.LedgerCollection
	}
}
