package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tsetmc-pusher/src/helpers"
	"tsetmc-pusher/src/interfaces"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"
	"tsetmc-pusher/src/utils"
)

const (
	loopTrade      = "trade"
	loopClientType = "clienttype"
)

// RealtimeCrawler polls the exchange during the trading session and merges
// every batch into the repository. Trade and client type data are polled by
// two independent loops, each with its own cursor.
type RealtimeCrawler struct {
	Config     *models.MConfig
	Source     interfaces.IMarketSource
	Repository interfaces.IMarketRepository
	Publisher  interfaces.IChangePublisher
	Scheduler  *utils.MarketScheduler
	Logger     *logger.Logger

	mu               sync.RWMutex
	tradeCursor      models.MFetchCursor
	clientTypeCursor models.MFetchCursor
}

// -----------------------------------------------------------------------------

func NewRealtimeCrawler(
	cfg *models.MConfig,
	source interfaces.IMarketSource,
	repo interfaces.IMarketRepository,
	publisher interfaces.IChangePublisher,
	scheduler *utils.MarketScheduler,
	log *logger.Logger,
) *RealtimeCrawler {
	return &RealtimeCrawler{
		Config:     cfg,
		Source:     source,
		Repository: repo,
		Publisher:  publisher,
		Scheduler:  scheduler,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

// RunSession runs both poll loops until closeAt has passed or ctx is done.
// Cursors start from zero so the first cycle of each loop fetches a full snapshot.
func (c *RealtimeCrawler) RunSession(ctx context.Context, closeAt time.Time) error {
	c.mu.Lock()
	c.tradeCursor = models.MFetchCursor{}
	c.clientTypeCursor = models.MFetchCursor{}
	c.mu.Unlock()

	ds := c.Config.DataSource
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.runLoop(gctx, loopTrade, closeAt,
			time.Duration(ds.TradeIntervalMs)*time.Millisecond,
			c.tradeTimeout,
			c.updateTradeData)
	})
	g.Go(func() error {
		return c.runLoop(gctx, loopClientType, closeAt,
			time.Duration(ds.ClientTypeIntervalMs)*time.Millisecond,
			func() time.Duration { return time.Duration(ds.ClientTypeTimeoutMs) * time.Millisecond },
			c.updateClientTypeData)
	})

	err := g.Wait()
	c.Logger.Info("Market is closed. Crawling stopped.")
	return err
}

// -----------------------------------------------------------------------------

// TradeCursor returns the current trade loop watermark.
func (c *RealtimeCrawler) TradeCursor() models.MFetchCursor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tradeCursor
}

// ClientTypeCursor returns the current client type loop watermark.
func (c *RealtimeCrawler) ClientTypeCursor() models.MFetchCursor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientTypeCursor
}

// -----------------------------------------------------------------------------

// runLoop repeats cycle until the session closes. Fetch errors never leave
// the loop; only cancellation of ctx stops it early.
func (c *RealtimeCrawler) runLoop(
	ctx context.Context,
	name string,
	closeAt time.Time,
	interval time.Duration,
	timeout func() time.Duration,
	cycle func(context.Context) error,
) error {
	c.Logger.Info("%s loop started, timeout: %s", name, timeout())

	for c.Scheduler.Now().Before(closeAt) {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout())
		err := cycle(fetchCtx)
		cancel()

		switch {
		case ctx.Err() != nil:
			return nil
		case err == nil:
			pollCyclesTotal.WithLabelValues(name, "ok").Inc()
		case helpers.IsTransient(err):
			pollCyclesTotal.WithLabelValues(name, "transient").Inc()
			c.Logger.Warning("%s cycle skipped: %v", name, err)
		default:
			pollCyclesTotal.WithLabelValues(name, "error").Inc()
			c.Logger.Error("%s cycle failed: %v", name, err)
		}

		// Interruptible Sleep
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// tradeTimeout bounds one trade fetch. A zero cursor asks for the whole
// market, which gets the longer snapshot timeout.
func (c *RealtimeCrawler) tradeTimeout() time.Duration {
	ds := c.Config.DataSource
	if c.TradeCursor() == (models.MFetchCursor{}) {
		return time.Duration(ds.SnapshotTimeoutMs) * time.Millisecond
	}
	return time.Duration(ds.TradeTimeoutMs) * time.Millisecond
}

// -----------------------------------------------------------------------------

func (c *RealtimeCrawler) updateTradeData(ctx context.Context) error {
	cursor := c.TradeCursor()

	records, err := c.Source.FetchTradeSnapshot(ctx, cursor)
	if err != nil {
		return fmt.Errorf("trade snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	pollRecordsTotal.WithLabelValues(loopTrade).Add(float64(len(records)))

	next := NextTradeCursor(cursor, records)
	c.mu.Lock()
	c.tradeCursor = next
	c.mu.Unlock()

	c.publish(c.Repository.ApplyTradeSnapshot(records))
	return nil
}

// -----------------------------------------------------------------------------

// updateClientTypeData keeps a zero cursor: the upstream table has no
// incremental form.
func (c *RealtimeCrawler) updateClientTypeData(ctx context.Context) error {
	records, err := c.Source.FetchClientTypeSnapshot(ctx, c.ClientTypeCursor())
	if err != nil {
		return fmt.Errorf("client type snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	pollRecordsTotal.WithLabelValues(loopClientType).Add(float64(len(records)))

	c.publish(c.Repository.ApplyClientTypeSnapshot(records))
	return nil
}

// -----------------------------------------------------------------------------

func (c *RealtimeCrawler) publish(changes []models.MChange) {
	if len(changes) == 0 {
		return
	}
	for _, ch := range changes {
		repositoryChangesTotal.WithLabelValues(ch.Topic.String()).Inc()
	}
	if c.Publisher != nil {
		c.Publisher.Publish(changes)
	}
}

// -----------------------------------------------------------------------------

// NextTradeCursor advances cursor to the highest trade time and order book
// row id in records. Only records that carry an order book contribute a row
// id. The cursor never moves backwards.
func NextTradeCursor(cursor models.MFetchCursor, records []models.MTradeRecord) models.MFetchCursor {
	next := cursor
	for _, rec := range records {
		if !rec.Trade.LastTradeTime.IsZero() {
			if t := utils.EncodeHEven(rec.Trade.LastTradeTime); t > next.TradeTime {
				next.TradeTime = t
			}
		}
		for _, row := range rec.OrderBook {
			if row.RowID > next.OrderBookRowID {
				next.OrderBookRowID = row.RowID
			}
		}
	}
	return next
}
