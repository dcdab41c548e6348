package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tara-sullivan/oda-utils/internal/config"
	"github.com/tara-sullivan/oda-utils/internal/logger"
	"github.com/tara-sullivan/oda-utils/internal/storage"
	"github.com/tara-sullivan/oda-utils/pkg/datasets"
	"github.com/tara-sullivan/oda-utils/pkg/sinks"
	"github.com/tara-sullivan/oda-utils/pkg/soda"
)

// Harvester is the open-data pull runtime. It pulls every registered
// dataset on a fixed interval and fans the resulting snapshots out to the
// configured sinks, skipping snapshots whose content has not changed since
// the last delivery.
type Harvester struct {
	cfg          *config.Config
	datasetReg   *datasets.Registry
	fanout       *sinks.Fanout
	pullInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	datasetReg, err := datasets.LoadRegistry(cfg.DatasetsFile)
	if err != nil {
		return nil, fmt.Errorf("load datasets registry: %w", err)
	}
	datasetList := datasetReg.All()
	datasetIDs := make([]string, 0, len(datasetList))
	for _, d := range datasetList {
		datasetIDs = append(datasetIDs, d.ID)
	}
	log.InfoObj("datasets registry loaded", "datasets_meta", map[string]any{
		"count": len(datasetIDs),
		"ids":   datasetIDs,
	})

	sinkReg, err := sinks.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}

	enabledSinks := sinkReg.Enabled()
	if len(enabledSinks) == 0 {
		return nil, fmt.Errorf("no sinks configured")
	}

	builtSinks, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabledSinks, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}
	fanout := sinks.NewFanout(builtSinks)
	sinkSummaries := make([]map[string]string, 0, len(enabledSinks))
	for _, sinkCfg := range enabledSinks {
		sinkSummaries = append(sinkSummaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(sinkSummaries),
		"sinks": sinkSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Harvester{
		cfg:          cfg,
		datasetReg:   datasetReg,
		fanout:       fanout,
		pullInterval: cfg.PullInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the pull loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.datasetReg == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.closeStore()

	registered := h.datasetReg.All()
	if len(registered) == 0 {
		h.log.WarnObj("no datasets configured; harvester idle", "datasets_file", h.cfg.DatasetsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"datasets_count": len(registered),
		"sinks_count":    h.fanout.Size(),
		"pull_interval":  h.pullInterval.String(),
	})

	if err := h.runOnce(ctx, registered); err != nil {
		h.log.ErrorObj("initial pull failed", "error", err)
	}

	ticker := time.NewTicker(h.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx, registered); err != nil {
				h.log.ErrorObj("scheduled pull failed", "error", err)
			}
		}
	}
}

// runOnce performs a single pull pass across all registered datasets.
// Per-dataset failures are logged and do not abort the pass.
func (h *Harvester) runOnce(ctx context.Context, registered []datasets.Dataset) error {
	start := time.Now()
	h.log.InfoObj("pull started", "pull_meta", map[string]any{
		"datasets_count": len(registered),
		"started_at":     start.UTC(),
	})

	var failed int
	for _, d := range registered {
		if err := h.pullDataset(ctx, d); err != nil {
			failed++
			h.log.ErrorObj("dataset pull failed", "dataset_error", map[string]any{
				"dataset_id": d.ID,
				"error":      err.Error(),
			})
		}
	}

	h.log.InfoObj("pull completed", "pull_meta", map[string]any{
		"datasets_count": len(registered),
		"failed_count":   failed,
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	if failed > 0 {
		return fmt.Errorf("%d of %d dataset pulls failed", failed, len(registered))
	}
	return nil
}

// pullDataset queries one dataset and delivers the snapshot when its
// content changed since the last delivery.
func (h *Harvester) pullDataset(ctx context.Context, d datasets.Dataset) error {
	records, err := h.clientFor(d.Host).Fetch(ctx, d.ToQuery())
	if err != nil {
		return fmt.Errorf("query dataset %s: %w", d.ID, err)
	}

	digest, err := recordsDigest(records)
	if err != nil {
		return fmt.Errorf("digest dataset %s: %w", d.ID, err)
	}

	unchanged, err := h.store.Unchanged(d.ID, digest)
	if err != nil {
		return fmt.Errorf("check journal for dataset %s: %w", d.ID, err)
	}
	if unchanged {
		h.log.DebugObj("dataset unchanged; skipping delivery", "dataset_skip", map[string]any{
			"dataset_id": d.ID,
			"row_count":  len(records),
		})
		return nil
	}

	snap := sinks.NewSnapshot(d.ID, d.Name, h.hostFor(d), records)
	delivered, err := h.fanout.Deliver(ctx, snap)
	if err != nil {
		return fmt.Errorf("deliver dataset %s: %w", d.ID, err)
	}

	if err := h.store.MarkDelivered(d.ID, digest); err != nil {
		return fmt.Errorf("journal dataset %s: %w", d.ID, err)
	}

	h.log.InfoObj("dataset pull delivered", "dataset_result", map[string]any{
		"dataset_id": d.ID,
		"row_count":  len(records),
		"sinks":      delivered,
	})
	return nil
}

// clientFor builds a soda client for the dataset's portal, defaulting to
// the configured host. Clients are built per pull so the app token is read
// from the environment at call time, never cached.
func (h *Harvester) clientFor(host string) *soda.Client {
	if host == "" {
		host = h.cfg.SodaHost
	}
	return soda.NewClient(
		soda.WithHost(host),
		soda.WithToken(soda.Token()),
		soda.WithTimeout(h.cfg.SodaTimeout),
	)
}

func (h *Harvester) hostFor(d datasets.Dataset) string {
	if d.Host != "" {
		return d.Host
	}
	return h.cfg.SodaHost
}

// recordsDigest hashes the snapshot content for change detection.
func recordsDigest(records []soda.Record) (string, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (h *Harvester) closeStore() {
	if h == nil || h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err)
	}
}
