package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/raykavin/signalrun/pkg/core"
	"github.com/tidwall/buntdb"
)

const (
	signalPrefix = "signal:"
	tradePrefix  = "trade:"

	signalIndex = "signal_time_index"
	tradeIndex  = "trade_exit_index"
)

// BuntStorage implements core.ResultStorage using BuntDB
type BuntStorage struct {
	lastID int64
	db     *buntdb.DB
}

// FromMemory creates an in-memory storage
func FromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-based storage
func FromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage opens the database and creates the time indexes
func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex(signalIndex, signalPrefix+"*", buntdb.IndexJSON("timestamp"), buntdb.IndexJSON("symbol"))
	if err != nil {
		return nil, fmt.Errorf("failed to create signal index: %w", err)
	}

	err = db.CreateIndex(tradeIndex, tradePrefix+"*", buntdb.IndexJSON("exit_date"), buntdb.IndexJSON("symbol"))
	if err != nil {
		return nil, fmt.Errorf("failed to create trade index: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

func (b *BuntStorage) nextKey(prefix string) string {
	return prefix + strconv.FormatInt(atomic.AddInt64(&b.lastID, 1), 10)
}

func (b *BuntStorage) set(key string, value any) error {
	content, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
		return nil
	})
}

// SaveSignal stores a generated signal
func (b *BuntStorage) SaveSignal(signal core.Signal) error {
	return b.set(b.nextKey(signalPrefix), signal)
}

// SaveTrade stores a finalized trade
func (b *BuntStorage) SaveTrade(trade core.Trade) error {
	return b.set(b.nextKey(tradePrefix), trade)
}

// Signals retrieves signals matching every filter, ordered by timestamp
func (b *BuntStorage) Signals(filters ...core.SignalFilter) ([]core.Signal, error) {
	signals := make([]core.Signal, 0)

	err := ascend(b.db, signalIndex, func(signal core.Signal) {
		for _, filter := range filters {
			if !filter(signal) {
				return
			}
		}
		signals = append(signals, signal)
	})
	if err != nil {
		return nil, err
	}

	return signals, nil
}

// Trades retrieves trades matching every filter, ordered by exit date
func (b *BuntStorage) Trades(filters ...core.TradeFilter) ([]core.Trade, error) {
	trades := make([]core.Trade, 0)

	err := ascend(b.db, tradeIndex, func(trade core.Trade) {
		for _, filter := range filters {
			if !filter(trade) {
				return
			}
		}
		trades = append(trades, trade)
	})
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func ascend[T any](db *buntdb.DB, index string, visit func(T)) error {
	var decodeErr error

	err := db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(index, func(key, value string) bool {
			var item T
			if err := json.Unmarshal([]byte(value), &item); err != nil {
				decodeErr = fmt.Errorf("failed to unmarshal %s: %w", key, err)
				return false
			}
			visit(item)
			return true
		})
	})
	if err != nil {
		return fmt.Errorf("failed to iterate over %s: %w", index, err)
	}

	return decodeErr
}
