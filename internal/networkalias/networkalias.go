// Package networkalias reads and appends network address alias records.
package networkalias

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// DAO is the alias lookup component. It holds no state of its own; the
// backend is shared with other components and owned by the caller.
type DAO struct {
	backend store.Backend
	codec   store.Codec[*model.NetworkAddressAlias]
	logger  *slog.Logger
	now     func() time.Time
}

// NewDAO returns an alias DAO over b. A nil logger uses slog.Default().
func NewDAO(b store.Backend, logger *slog.Logger) *DAO {
	if logger == nil {
		logger = slog.Default()
	}
	return &DAO{
		backend: b,
		codec:   Codec{},
		logger:  logger,
		now:     time.Now,
	}
}

// LoadLastUpdate returns every alias whose last update bucket is at or after
// timeBucket, in no particular order. No matches is an empty result.
// Backend failures are returned and match store.ErrBackendIO.
func (d *DAO) LoadLastUpdate(ctx context.Context, timeBucket int64) ([]*model.NetworkAddressAlias, error) {
	q := store.Query{Collection: store.Path(d.backend, model.NetworkAddressAliasCollection)}.
		Where(store.Gte(model.AliasLastUpdateTimeBucket, timeBucket))

	aliases, err := store.QueryList(ctx, d.backend, q, d.codec)
	if err != nil {
		d.logger.Warn("failed to load network address aliases", "time_bucket", timeBucket, "error", err)
		return nil, fmt.Errorf("load network address aliases: %w", err)
	}
	return aliases, nil
}

// Save appends a. Zero buckets default to the current minute. The record is
// written at version LastUpdateTimeBucket, so earlier buckets are kept.
func (d *DAO) Save(ctx context.Context, a *model.NetworkAddressAlias) error {
	if err := model.ValidateAlias(a); err != nil {
		return err
	}
	if a.LastUpdateTimeBucket == 0 {
		a.LastUpdateTimeBucket = model.TimeBucket(d.now())
	}
	if a.TimeBucket == 0 {
		a.TimeBucket = a.LastUpdateTimeBucket
	}

	collection := store.Path(d.backend, model.NetworkAddressAliasCollection)
	req, err := store.NewWriteRequest(collection, a.LastUpdateTimeBucket, a, d.codec)
	if err != nil {
		return err
	}
	if err := d.backend.Write(ctx, req); err != nil {
		return fmt.Errorf("save network address alias %s: %w", a.Address, err)
	}
	return nil
}
