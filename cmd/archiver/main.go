// cmd/archiver/main.go is the asynchronous archiver service: it pops finished
// round records from the Redis queue and persists them to PostgreSQL in
// batches.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/tazjel/baloot-ai-sub002/internal/cache"
	"github.com/tazjel/baloot-ai-sub002/internal/database"
	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// ArchiverService drains the round queue into the database. Records
// accumulate in an in-memory batch and flush on size or on a timer,
// whichever comes first.
type ArchiverService struct {
	cache      *cache.Store
	pool       *pgxpool.Pool
	logger     *logrus.Logger
	batchSize  int
	flushDelay time.Duration

	batchMu sync.Mutex
	batch   []models.RoundRecord
}

func NewArchiverService(cacheStore *cache.Store, pool *pgxpool.Pool, logger *logrus.Logger) *ArchiverService {
	batchSize := getEnvInt("ARCHIVER_BATCH_SIZE", 20)
	flushMs := getEnvInt("ARCHIVER_FLUSH_MS", 500)
	return &ArchiverService{
		cache:      cacheStore,
		pool:       pool,
		logger:     logger,
		batchSize:  batchSize,
		flushDelay: time.Duration(flushMs) * time.Millisecond,
		batch:      make([]models.RoundRecord, 0, batchSize),
	}
}

// Run blocks, reading the queue and flushing batches, until the context is
// cancelled. A final flush runs on the way out so shutdown loses nothing
// already popped.
func (as *ArchiverService) Run(ctx context.Context) {
	ticker := time.NewTicker(as.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			as.flushBatch(context.Background())
			return

		case <-ticker.C:
			as.flushBatch(ctx)

		default:
			record, err := as.cache.PopRoundRecord(ctx, 3*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					as.flushBatch(context.Background())
					return
				}
				as.logger.Errorf("round queue pop failed: %v", err)
				continue
			}
			if record == nil {
				continue
			}
			as.appendToBatch(ctx, *record)
		}
	}
}

func (as *ArchiverService) appendToBatch(ctx context.Context, record models.RoundRecord) {
	as.batchMu.Lock()
	as.batch = append(as.batch, record)
	full := len(as.batch) >= as.batchSize
	as.batchMu.Unlock()
	if full {
		as.flushBatch(ctx)
	}
}

// flushBatch persists the current batch in one transaction. On failure the
// records are requeued in memory for the next attempt.
func (as *ArchiverService) flushBatch(ctx context.Context) {
	as.batchMu.Lock()
	if len(as.batch) == 0 {
		as.batchMu.Unlock()
		return
	}
	batchCopy := make([]models.RoundRecord, len(as.batch))
	copy(batchCopy, as.batch)
	as.batch = as.batch[:0]
	as.batchMu.Unlock()

	if err := database.InsertRoundRecords(ctx, as.pool, batchCopy); err != nil {
		as.logger.Errorf("failed to flush %d round records: %v", len(batchCopy), err)
		as.batchMu.Lock()
		as.batch = append(batchCopy, as.batch...)
		as.batchMu.Unlock()
		return
	}
	as.logger.Infof("flushed %d round records", len(batchCopy))
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cacheStore, err := cache.Connect()
	if err != nil {
		logger.Fatalf("redis connect failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx)
	if err != nil {
		logger.Fatalf("postgres connect failed: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureRoundSchema(ctx, pool); err != nil {
		logger.Fatalf("schema init failed: %v", err)
	}

	as := NewArchiverService(cacheStore, pool, logger)
	go as.Run(ctx)
	logger.Info("baloot-archiver service started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	cancel()
	// Give the final flush a moment before exiting.
	time.Sleep(time.Second)
	logger.Info("archiver shutdown complete")
}

// getEnvInt retrieves an integer value from an environment variable or
// returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
