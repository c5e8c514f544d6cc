package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stayhub/internal/adapters/notify"
	"stayhub/internal/adapters/observability"
	redisad "stayhub/internal/adapters/redis"
	"stayhub/internal/app"
	"stayhub/internal/clock"
	"stayhub/internal/domain"
	"stayhub/internal/shared"
	mysqlrepo "stayhub/internal/storage/mysql"
)

// The reaper closes the gap the lazy-expiry design leaves open: a hold past
// its TTL keeps occupying capacity until something touches it. Each sweep
// scans expired holds and cancels them through the same code path a client
// cancel takes.
func main() {
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Dur("interval", cfg.ReaperInterval).
		Int("batch", cfg.ReaperBatch).
		Int("workers", cfg.ReaperWorkers).
		Msg("reaper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	idem := mysqlrepo.NewIdempotencyStore(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var notifier domain.Notifier
	if cfg.NotifyBase != "" {
		notifier = notify.New(cfg.NotifyBase, cfg.NotifyKey, cfg.NotifyRPS)
	}

	bookings := app.NewBookingService(repo, repo, idem, cache, notifier, clock.NewSystem(), app.BookingConfig{
		HoldTTL:       cfg.HoldTTL,
		LookaheadDays: cfg.LookaheadDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.ReaperInterval)
	defer ticker.Stop()

	sweep(ctx, bookings, cfg.ReaperBatch, cfg.ReaperWorkers)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reaper stopping")
			return
		case <-ticker.C:
			sweep(ctx, bookings, cfg.ReaperBatch, cfg.ReaperWorkers)
		}
	}
}

func sweep(ctx context.Context, bookings *app.BookingService, batch, workers int) {
	expired, err := bookings.ExpiredHolds(ctx, batch)
	if err != nil {
		log.Error().Err(err).Msg("scan expired holds failed")
		return
	}
	if len(expired) == 0 {
		return
	}

	reason := "hold expired"
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	reaped := 0

	for _, b := range expired {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(bookingID string) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := bookings.CancelBooking(ctx, bookingID, &reason); err != nil {
				log.Warn().Str("booking", bookingID).Err(err).Msg("reap failed")
				return
			}
			mu.Lock()
			reaped++
			mu.Unlock()
		}(b.ID)
	}
	wg.Wait()

	observability.ObserveReaped(reaped)
	log.Info().Int("scanned", len(expired)).Int("reaped", reaped).Msg("sweep done")
}
