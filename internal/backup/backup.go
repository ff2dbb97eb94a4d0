// Package backup exports and restores the catalog and ledger, and keeps a
// rolling set of automatic snapshots in the kv store.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv"
	"kasirinaja/dashboard/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNothingToExport = errors.New("nothing to export")

const (
	SnapshotPrefix = "auto_backup_"
	SnapshotType   = "auto_backup"
	KeepSnapshots  = 10
)

// Document is the full-state export. Timestamp is informational only.
type Document struct {
	Products     []domain.Product     `json:"products"`
	Transactions []domain.Transaction `json:"transactions"`
	Timestamp    time.Time            `json:"timestamp"`
}

type Snapshot struct {
	Products          []domain.Product              `json:"products"`
	Transactions      []domain.Transaction          `json:"transactions"`
	AIRecommendations []domain.RecommendationRecord `json:"aiRecommendations"`
	Timestamp         time.Time                     `json:"timestamp"`
	Type              string                        `json:"type"`
}

type ImportResult struct {
	Products     int  `json:"products"`
	Transactions int  `json:"transactions"`
	ReplacedAny  bool `json:"replaced_any"`
}

// Recommendations is the part of the recommendation service a snapshot
// reads and restores.
type Recommendations interface {
	List(typ string) []domain.RecommendationRecord
	Replace(ctx context.Context, records []domain.RecommendationRecord)
}

type Service struct {
	store   *store.Store
	recs    Recommendations
	backend kv.Store
	logger  *zap.Logger
}

func New(s *store.Store, recs Recommendations, backend kv.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, recs: recs, backend: backend, logger: logger.Named("backup")}
}

func (b *Service) Export() Document {
	products, txs := b.store.Snapshot()
	return Document{Products: products, Transactions: txs, Timestamp: b.store.Now()}
}

func (b *Service) WriteJSON(w io.Writer) error {
	payload, err := json.MarshalIndent(b.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	_, err = w.Write(payload)
	return err
}

// ImportJSON replaces each collection present in the document. A document
// with neither collection is rejected.
func (b *Service) ImportJSON(ctx context.Context, r io.Reader) (ImportResult, error) {
	var doc struct {
		Products     []domain.Product     `json:"products"`
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, fmt.Errorf("%w: malformed backup: %v", store.ErrValidation, err)
	}
	if doc.Products == nil && doc.Transactions == nil {
		return ImportResult{}, fmt.Errorf("%w: backup has no products or transactions", store.ErrValidation)
	}

	var out ImportResult
	if doc.Products != nil {
		if err := b.store.Catalog().Replace(ctx, doc.Products); err != nil {
			return ImportResult{}, err
		}
		out.Products = len(doc.Products)
		out.ReplacedAny = true
	}
	if doc.Transactions != nil {
		b.store.Ledger().Replace(ctx, doc.Transactions)
		out.Transactions = len(doc.Transactions)
		out.ReplacedAny = true
	}
	b.logger.Info("backup imported", zap.Int("products", out.Products), zap.Int("transactions", out.Transactions))
	return out, nil
}

// TakeSnapshot writes the full state under auto_backup_<epoch-ms> and prunes
// all but the newest KeepSnapshots.
func (b *Service) TakeSnapshot(ctx context.Context) (string, error) {
	products, txs := b.store.Snapshot()
	now := b.store.Now()
	snap := Snapshot{
		Products:     products,
		Transactions: txs,
		Timestamp:    now,
		Type:         SnapshotType,
	}
	if b.recs != nil {
		snap.AIRecommendations = b.recs.List("")
	}

	key := SnapshotPrefix + strconv.FormatInt(now.UnixMilli(), 10)
	if err := kv.Save(ctx, b.backend, key, snap); err != nil {
		return "", err
	}
	if err := b.prune(ctx); err != nil {
		b.logger.Warn("snapshot pruning failed", zap.Error(err))
	}
	b.logger.Info("auto backup completed", zap.String("key", key))
	return key, nil
}

// Snapshots lists snapshot keys, oldest first.
func (b *Service) Snapshots(ctx context.Context) ([]string, error) {
	keys, err := b.backend.Keys(ctx, SnapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %v", kv.ErrStorage, err)
	}
	return keys, nil
}

// Restore loads a snapshot back into the catalog, the ledger and the
// recommendation collection.
func (b *Service) Restore(ctx context.Context, key string) (Snapshot, error) {
	if !strings.HasPrefix(key, SnapshotPrefix) {
		return Snapshot{}, fmt.Errorf("%w: %q is not a snapshot key", store.ErrValidation, key)
	}
	raw, ok, err := b.backend.Get(ctx, key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read %s: %v", kv.ErrStorage, key, err)
	}
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: snapshot %s", store.ErrNotFound, key)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode %s: %v", kv.ErrStorage, key, err)
	}

	if err := b.store.Catalog().Replace(ctx, snap.Products); err != nil {
		return Snapshot{}, fmt.Errorf("restore %s: %w", key, err)
	}
	b.store.Ledger().Replace(ctx, snap.Transactions)
	if b.recs != nil && snap.AIRecommendations != nil {
		b.recs.Replace(ctx, snap.AIRecommendations)
	}
	b.logger.Info("snapshot restored", zap.String("key", key))
	return snap, nil
}

func (b *Service) prune(ctx context.Context) error {
	keys, err := b.Snapshots(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= KeepSnapshots {
		return nil
	}
	for _, key := range keys[:len(keys)-KeepSnapshots] {
		if err := kv.Remove(ctx, b.backend, key); err != nil {
			return err
		}
	}
	return nil
}
