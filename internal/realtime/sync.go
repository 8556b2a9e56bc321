package realtime

import (
	"log"
	"strings"
	"time"

	"papertrade/cache"
	"papertrade/config"
	"papertrade/fetcher"
	"papertrade/trading"
)

type Logger interface {
	Printf(format string, v ...any)
}

type SyncOptions struct {
	Logger Logger
	Quiet  bool
}

// RunQuoteSync keeps the quote cache fresh for the watchlist. Quotes are
// only refreshed during market hours; outside them the loop idles and
// periodically reports that the market is closed.
func RunQuoteSync(cfg *config.Config, c *cache.Cache, qf *fetcher.QuoteFetcher, stop <-chan struct{}, opt SyncOptions) {
	logger := opt.Logger
	if logger == nil {
		logger = log.Default()
	}

	symbols := cleanSymbols(cfg.Watchlist)

	// First fetch immediately.
	if !opt.Quiet {
		logger.Printf("[sync] initial fetch...")
	}
	fetchQuotes(symbols, c, qf, logger, opt.Quiet)

	refreshTicker := time.NewTicker(cfg.RefreshInterval)
	checkTicker := time.NewTicker(cfg.CheckInterval)
	defer refreshTicker.Stop()
	defer checkTicker.Stop()

	for {
		select {
		case <-stop:
			if !opt.Quiet {
				logger.Printf("[sync] stop")
			}
			return

		case <-refreshTicker.C:
			if trading.IsMarketOpen() {
				fetchQuotes(symbols, c, qf, logger, opt.Quiet)
			}

		case <-checkTicker.C:
			if opt.Quiet {
				continue
			}
			if !trading.IsMarketOpen() {
				logger.Printf("[sync] market closed")
			}
		}
	}
}

func fetchQuotes(symbols []string, c *cache.Cache, qf *fetcher.QuoteFetcher, logger Logger, quiet bool) {
	if len(symbols) == 0 {
		return
	}
	quotes, err := qf.Fetch(symbols)
	if err != nil {
		if !quiet {
			logger.Printf("[sync] fetch quotes failed: %v", err)
		}
		return
	}
	c.SetQuotes(quotes)
	if !quiet {
		logger.Printf("[sync] quotes updated: %d", len(quotes))
	}
}

func cleanSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
