package paperd

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"papertrade/api"
	"papertrade/bot"
	"papertrade/broker"
	"papertrade/cache"
	"papertrade/config"
	"papertrade/fetcher"
	"papertrade/internal/realtime"
	"papertrade/store"
)

func Run(args []string) int {
	flags := flag.NewFlagSet("paperd", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var (
		configPath string
		enableBot  bool
	)

	flags.StringVar(&configPath, "config", "", "設定檔路徑(YAML格式)，預設優先使用 ./config.yaml")
	flags.BoolVar(&enableBot, "bot", false, "啟用自動交易（也可在設定檔 bot.enabled 開啟）")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.GetConfig(configPath)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Printf("[ERROR] 開啟資料庫失敗: %v\n", err)
		return 1
	}
	defer db.Close()

	ledger := broker.New(cfg.InitialBalance)
	watchlist := cfg.Watchlist

	snap, err := db.LoadSnapshot(cfg.User)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Printf("[store] 新帳戶 %s，初始資金 %.0f\n", cfg.User, cfg.InitialBalance)
	case err != nil:
		log.Printf("[ERROR] 讀取帳戶失敗: %v\n", err)
		return 1
	default:
		ledger.RestoreState(snap.Balance, snap.Positions, snap.History)
		if len(snap.Watchlist) > 0 {
			watchlist = snap.Watchlist
			cfg.Watchlist = snap.Watchlist
		}
		log.Printf("[store] 帳戶 %s 已還原：餘額 %.0f，持倉 %d 檔，成交 %d 筆\n",
			cfg.User, snap.Balance, len(snap.Positions), len(snap.History))
	}

	var mu sync.Mutex
	persist := func() error {
		mu.Lock()
		s := &store.Snapshot{
			User:      cfg.User,
			Balance:   ledger.Balance(),
			Positions: ledger.Positions(),
			History:   ledger.History(),
			Watchlist: watchlist,
		}
		mu.Unlock()
		return db.SaveSnapshot(s)
	}

	quoteCache := cache.New()
	quoteFetcher := fetcher.NewQuoteFetcher()
	historyFetcher := fetcher.NewHistoryFetcher()

	stop := make(chan struct{})
	go realtime.RunQuoteSync(cfg, quoteCache, quoteFetcher, stop, realtime.SyncOptions{Logger: log.Default()})

	botEnabled := enableBot || cfg.Bot.Enabled
	if botEnabled && len(cfg.Bot.Targets) > 0 {
		trader := bot.NewTrader(bot.Config{
			Targets:       cfg.Bot.Targets,
			Strategies:    cfg.Bot.Strategies,
			Default:       cfg.Bot.Strategy,
			BuyQty:        cfg.Bot.BuyQty,
			StopLossPct:   cfg.Bot.StopLossPct,
			TakeProfitPct: cfg.Bot.TakeProfitPct,
			CapPerSymbol:  cfg.Bot.CapPerSymbol,
			Interval:      cfg.Bot.Interval,
		}, ledger, quoteCache, historyFetcher, &mu, persist, log.Default())
		go trader.RunLoop(stop)
	} else if botEnabled {
		log.Println("[bot] 未設定 bot.targets，自動交易未啟用")
	}

	log.Println("=== 台股模擬交易服務 (paperd) ===")

	server := api.NewServer(api.Deps{
		Cache:   quoteCache,
		Broker:  ledger,
		Quotes:  quoteFetcher,
		History: historyFetcher,
		Persist: persist,
		User:    cfg.User,
		Mu:      &mu,
	}, cfg.Port)
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("[ERROR] HTTP服務啟動失敗: %v\n", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("正在關閉服務...")
	close(stop)
	_ = server.Shutdown()
	if err := persist(); err != nil {
		log.Printf("[WARN] 關閉前存檔失敗: %v\n", err)
	}
	log.Println("服務已關閉")
	return 0
}
