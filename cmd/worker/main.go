package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dynaqr/backend/internal/config"
	"github.com/dynaqr/backend/internal/db"
	"github.com/dynaqr/backend/internal/events"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/metadata"
	"github.com/dynaqr/backend/internal/models"
	"github.com/dynaqr/backend/internal/preview"
	"github.com/dynaqr/backend/internal/statecodec"
	"go.uber.org/zap"
)

// The worker owns the slow background jobs the API must not block on:
// stamping last-scan times from the event stream, refreshing destination
// previews, and reporting drift between on-chain counters and metadata.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	chain, err := ledger.NewAlgodClient(cfg.AlgodURL, cfg.AlgodToken, log)
	if err != nil {
		log.Fatal("failed to create algod client", zap.Error(err))
	}

	store := metadata.NewPostgresStore(pool)
	previews := preview.NewFetcher(cfg.PreviewFetchTimeoutMS, cfg.PreviewFetchMaxRetries, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Stamp LastScannedAt off the scan stream.
	err = subscriber.Subscribe(ctx, events.StreamScans, func(event events.Event) {
		if event.Type != events.EventScanRecorded {
			return
		}
		eventID, _ := event.Payload["event_id"].(string)
		if eventID == "" {
			return
		}
		now := time.Now().UTC()
		if err := store.Merge(ctx, eventID, models.MetadataPatch{LastScannedAt: &now}); err != nil {
			log.Error("failed to stamp last scan", zap.String("event_id", eventID), zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe to scan stream", zap.Error(err))
	}

	log.Info("worker started")

	previewTicker := time.NewTicker(cfg.PreviewRefreshInterval)
	driftTicker := time.NewTicker(15 * time.Minute)
	defer previewTicker.Stop()
	defer driftTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-previewTicker.C:
			refreshPreviews(ctx, cfg, chain, store, previews, log)
		case <-driftTicker.C:
			reportScanDrift(ctx, cfg, chain, store, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// refreshPreviews re-scrapes every known event's destination. URLs move
// under long-lived QR codes; the preview shown to organizers should follow.
func refreshPreviews(ctx context.Context, cfg *config.Config, chain *ledger.AlgodClient, store *metadata.PostgresStore, previews *preview.Fetcher, log *zap.Logger) {
	ids, err := store.ListIDs(ctx)
	if err != nil {
		log.Error("failed to list events for preview refresh", zap.Error(err))
		return
	}

	raw, err := chain.GlobalState(ctx, cfg.AppID)
	if err != nil {
		log.Error("ledger read failed during preview refresh", zap.Error(err))
		return
	}

	for _, id := range ids {
		ev, err := statecodec.DecodeEvent(raw, id)
		if err != nil {
			if !errors.Is(err, statecodec.ErrNotFound) {
				log.Warn("undecodable event during preview refresh", zap.String("event_id", id), zap.Error(err))
			}
			continue
		}
		if !ev.Active {
			continue
		}

		p, err := previews.Fetch(ctx, ev.CurrentURL)
		if err != nil {
			log.Debug("preview refresh failed", zap.String("event_id", id), zap.Error(err))
			continue
		}
		patch := models.MetadataPatch{
			PreviewTitle:       &p.Title,
			PreviewDescription: &p.Description,
		}
		if err := store.Merge(ctx, id, patch); err != nil {
			log.Error("failed to store refreshed preview", zap.String("event_id", id), zap.Error(err))
		}
	}
}

// reportScanDrift compares on-chain scan counts with metadata freshness
// and logs events whose counters move while their metadata does not. Pure
// observability: the chain is the source of truth and is never patched.
func reportScanDrift(ctx context.Context, cfg *config.Config, chain *ledger.AlgodClient, store *metadata.PostgresStore, log *zap.Logger) {
	ids, err := store.ListIDs(ctx)
	if err != nil {
		log.Error("failed to list events for drift report", zap.Error(err))
		return
	}

	raw, err := chain.GlobalState(ctx, cfg.AppID)
	if err != nil {
		log.Error("ledger read failed during drift report", zap.Error(err))
		return
	}

	for _, id := range ids {
		ev, err := statecodec.DecodeEvent(raw, id)
		if err != nil {
			continue
		}
		md, err := store.Get(ctx, id)
		if err != nil {
			continue
		}
		if ev.ScanCount > 0 && md.LastScannedAt == nil {
			log.Warn("scan counter moved without a recorded scan",
				zap.String("event_id", id),
				zap.Uint64("scan_count", ev.ScanCount),
			)
		}
	}
}
