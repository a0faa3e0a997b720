// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/indexfeed/core"
	"github.com/poiesic/indexfeed/queue"
)

// Record is one persisted dead letter. Index and Op are stored alongside
// the document because they do not round-trip through its JSON body.
type Record struct {
	Document   *core.Document `json:"document"`
	Index      string         `json:"index"`
	Op         core.OpType    `json:"op"`
	Reason     string         `json:"reason"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// Store is a BadgerDB-backed dead-letter store.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ queue.DeadLetterer = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a dead-letter store at the specified path, creating the
// directory if needed. An in-memory store is used for tests.
func Open(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one dead letter. Implements queue.DeadLetterer.
func (s *Store) Record(ctx context.Context, doc *core.Document, reason string) error {
	now := s.now()
	record := Record{
		Document:   doc,
		Index:      doc.Index,
		Op:         doc.Op,
		Reason:     reason,
		RecordedAt: now,
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding dead letter: %w", err)
	}

	key := makeRecordKey(core.IDFromIdentity(doc.Identity()), now.UnixNano())
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key, value)
	})
}

// Each iterates all dead-letter records in key order.
func (s *Store) Each(ctx context.Context, fn func(*Record) error) error {
	return s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordKeyPrefix()
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var record Record
				if err := json.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("decoding dead letter: %w", err)
				}
				if record.Document != nil {
					record.Document.Index = record.Index
					record.Document.Op = record.Op
				}
				return fn(&record)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Len counts stored records.
func (s *Store) Len() (int, error) {
	count := 0
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordKeyPrefix()
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
