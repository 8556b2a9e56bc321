package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig YAML設定檔結構
type YAMLConfig struct {
	Server struct {
		Port         int `yaml:"port"`
		SyncInterval int `yaml:"sync_interval"` // 秒
	} `yaml:"server"`

	Account struct {
		User           string  `yaml:"user"`
		DBPath         string  `yaml:"db_path"`
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"account"`

	Monitor struct {
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"monitor"`

	Bot struct {
		Enabled       bool              `yaml:"enabled"`
		Targets       []string          `yaml:"targets"`
		Strategy      string            `yaml:"strategy"`
		Strategies    map[string]string `yaml:"strategies"` // 個股覆寫
		BuyQty        map[string]int64  `yaml:"buy_qty"`
		StopLossPct   float64           `yaml:"stop_loss_pct"`
		TakeProfitPct float64           `yaml:"take_profit_pct"`
		CapPerSymbol  float64           `yaml:"cap_per_symbol"`
		Interval      int               `yaml:"interval"` // 秒
	} `yaml:"bot"`
}

// BotConfig 自動交易設定
type BotConfig struct {
	Enabled       bool
	Targets       []string
	Strategy      string
	Strategies    map[string]string
	BuyQty        map[string]int64
	StopLossPct   float64
	TakeProfitPct float64
	CapPerSymbol  float64
	Interval      time.Duration
}

// Config 設定
type Config struct {
	// HTTP 服務埠
	Port int

	// 帳戶名稱
	User string

	// SQLite 資料庫路徑
	DBPath string

	// 新帳戶初始資金
	InitialBalance float64

	// 報價刷新間隔（盤中）
	RefreshInterval time.Duration

	// 開收盤檢查間隔（非盤中）
	CheckInterval time.Duration

	// 自選股清單
	Watchlist []string

	// 自動交易
	Bot BotConfig
}

// DefaultConfig 預設設定
var DefaultConfig = Config{
	Port:            19720,
	User:            "default",
	DBPath:          "papertrade.db",
	InitialBalance:  1_000_000,
	RefreshInterval: 5 * time.Second,
	CheckInterval:   1 * time.Minute,
	Watchlist: []string{
		"2330", // 台積電
		"2317", // 鴻海
		"2603", // 長榮
	},
	Bot: BotConfig{
		Enabled:       false,
		Strategy:      "MA_Cross",
		StopLossPct:   5,
		TakeProfitPct: 10,
		Interval:      time.Minute,
	},
}

// LoadFromFile 從YAML檔載入設定
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("讀取設定檔失敗: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("解析設定檔失敗: %w", err)
	}

	config := DefaultConfig

	if yc.Server.Port > 0 {
		config.Port = yc.Server.Port
	}
	if yc.Server.SyncInterval > 0 {
		config.RefreshInterval = time.Duration(yc.Server.SyncInterval) * time.Second
	}

	if yc.Account.User != "" {
		config.User = yc.Account.User
	}
	if yc.Account.DBPath != "" {
		config.DBPath = yc.Account.DBPath
	}
	if yc.Account.InitialBalance > 0 {
		config.InitialBalance = yc.Account.InitialBalance
	}

	if len(yc.Monitor.Watchlist) > 0 {
		config.Watchlist = cleanSymbols(yc.Monitor.Watchlist)
	}

	config.Bot.Enabled = yc.Bot.Enabled
	if len(yc.Bot.Targets) > 0 {
		config.Bot.Targets = cleanSymbols(yc.Bot.Targets)
	}
	if yc.Bot.Strategy != "" {
		config.Bot.Strategy = yc.Bot.Strategy
	}
	if len(yc.Bot.Strategies) > 0 {
		config.Bot.Strategies = yc.Bot.Strategies
	}
	if len(yc.Bot.BuyQty) > 0 {
		config.Bot.BuyQty = yc.Bot.BuyQty
	}
	if yc.Bot.StopLossPct > 0 {
		config.Bot.StopLossPct = yc.Bot.StopLossPct
	}
	if yc.Bot.TakeProfitPct > 0 {
		config.Bot.TakeProfitPct = yc.Bot.TakeProfitPct
	}
	if yc.Bot.CapPerSymbol > 0 {
		config.Bot.CapPerSymbol = yc.Bot.CapPerSymbol
	}
	if yc.Bot.Interval > 0 {
		config.Bot.Interval = time.Duration(yc.Bot.Interval) * time.Second
	}

	return &config, nil
}

// GetConfig 取得設定（優先級：設定檔 > 環境變數 > 預設值）
func GetConfig(configPath string) *Config {
	config := DefaultConfig

	if configPath != "" {
		if cfg, err := LoadFromFile(configPath); err == nil {
			config = *cfg
		} else {
			fmt.Printf("警告: 無法載入設定檔 %s: %v\n", configPath, err)
		}
	}

	// 環境變數覆寫
	if port := os.Getenv("PAPERTRADE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			config.Port = p
		}
	}
	if db := os.Getenv("PAPERTRADE_DB"); db != "" {
		config.DBPath = db
	}
	if user := os.Getenv("PAPERTRADE_USER"); user != "" {
		config.User = user
	}

	config.Watchlist = cleanSymbols(config.Watchlist)

	return &config
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
