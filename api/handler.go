package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"papertrade/backtest"
	"papertrade/broker"
	"papertrade/model"
	"papertrade/strategy"
	"papertrade/trading"
)

// Handler API處理器
type Handler struct {
	deps Deps
}

// NewHandler 建立處理器
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// tradeRequest 下單請求。price 省略時用快取的即時價。
type tradeRequest struct {
	Symbol string  `json:"symbol"`
	Qty    int64   `json:"qty"`
	Price  float64 `json:"price"`
	Action string  `json:"action"` // buy: open_long(預設)/close_short；sell: close_long(預設)/open_short
}

// GetAccount 帳戶總覽
func (h *Handler) GetAccount(c *gin.Context) {
	h.deps.Mu.Lock()
	summary := h.deps.Broker.Summary(h.deps.Cache.Prices())
	h.deps.Mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"user":    h.deps.User,
			"summary": summary,
		},
	})
}

// GetPositions 持倉明細
func (h *Handler) GetPositions(c *gin.Context) {
	h.deps.Mu.Lock()
	positions := h.deps.Broker.Positions()
	h.deps.Mu.Unlock()

	result := make([]gin.H, 0, len(positions))
	for symbol, pos := range positions {
		row := gin.H{
			"symbol":   symbol,
			"qty":      pos.Qty,
			"avg_cost": pos.AvgCost,
		}
		if price, ok := h.deps.Cache.Price(symbol); ok {
			row["price"] = price
			if pos.Qty > 0 {
				row["unrealized_pnl"] = (price - pos.AvgCost) * float64(pos.Qty)
			} else {
				row["unrealized_pnl"] = (pos.AvgCost - price) * float64(-pos.Qty)
			}
		}
		result = append(result, row)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(result),
		"data":  result,
	})
}

// GetHistory 成交紀錄
func (h *Handler) GetHistory(c *gin.Context) {
	h.deps.Mu.Lock()
	history := h.deps.Broker.History()
	h.deps.Mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(history),
		"data":  history,
	})
}

// Buy 買進（現股買進，或帶 action=close_short 做融券回補）
func (h *Handler) Buy(c *gin.Context) {
	h.execTrade(c, true)
}

// Sell 賣出（現股賣出，或帶 action=open_short 做融券賣出）
func (h *Handler) Sell(c *gin.Context) {
	h.execTrade(c, false)
}

func (h *Handler) execTrade(c *gin.Context, isBuy bool) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "請求格式錯誤: " + err.Error()})
		return
	}
	if req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "股票代號不能為空"})
		return
	}

	action := broker.Action(req.Action)
	if action == "" {
		if isBuy {
			action = broker.OpenLong
		} else {
			action = broker.CloseLong
		}
	}

	price := req.Price
	if price <= 0 {
		cached, ok := h.deps.Cache.Price(req.Symbol)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "無即時報價，請指定價格",
				"symbol": req.Symbol,
			})
			return
		}
		price = cached
	}

	h.deps.Mu.Lock()
	var receipt *broker.Receipt
	var err error
	if isBuy {
		receipt, err = h.deps.Broker.Buy(req.Symbol, price, req.Qty, action)
	} else {
		receipt, err = h.deps.Broker.Sell(req.Symbol, price, req.Qty, action)
	}
	h.deps.Mu.Unlock()

	if err != nil {
		status := http.StatusBadRequest
		switch broker.CodeOf(err) {
		case broker.InsufficientFunds, broker.InsufficientPosition, broker.PositionPolicyViolation:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
			"code":  string(broker.CodeOf(err)),
		})
		return
	}

	if h.deps.Persist != nil {
		if perr := h.deps.Persist(); perr != nil {
			// 交易已成立，存檔失敗只記在回應裡
			c.JSON(http.StatusOK, gin.H{
				"code":    0,
				"data":    receipt,
				"warning": "存檔失敗: " + perr.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": receipt,
	})
}

// GetQuote 即時報價（快取優先，沒有時現抓）
func (h *Handler) GetQuote(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "股票代號不能為空"})
		return
	}

	quote := h.deps.Cache.Quote(symbol)
	if quote == nil && h.deps.Quotes != nil {
		fetched, err := h.deps.Quotes.FetchOne(symbol)
		if err == nil {
			h.deps.Cache.SetQuotes([]*model.Quote{fetched})
			quote = fetched
		}
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "未找到該股票報價",
			"symbol": symbol,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"quote":          quote,
			"change":         quote.Change(),
			"change_percent": quote.ChangePercent(),
		},
	})
}

// GetKline 日K線（?months=3 指定月數）
func (h *Handler) GetKline(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "股票代號不能為空"})
		return
	}

	months := 3
	if m := c.Query("months"); m != "" {
		if v, err := strconv.Atoi(m); err == nil && v > 0 && v <= 60 {
			months = v
		}
	}

	series, err := h.deps.History.FetchDaily(symbol, months)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "抓取歷史資料失敗: " + err.Error(),
			"symbol": symbol,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(series),
		"data":  series,
	})
}

// backtestRequest 回測請求
type backtestRequest struct {
	Symbol      string  `json:"symbol"`
	Strategy    string  `json:"strategy"`
	Months      int     `json:"months"`
	InitialCash float64 `json:"initial_cash"`
}

// RunBacktest 單檔回測
func (h *Handler) RunBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "請求格式錯誤: " + err.Error()})
		return
	}
	if req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "股票代號不能為空"})
		return
	}

	cfg := backtest.DefaultRunConfig()
	cfg.Symbols = []string{req.Symbol}
	if req.Strategy != "" {
		if !strategy.Valid(req.Strategy) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "不支援的策略: " + req.Strategy,
				"supported": strategy.Names(),
			})
			return
		}
		cfg.Strategy = req.Strategy
	}
	if req.Months > 0 && req.Months <= 60 {
		cfg.Months = req.Months
	}
	if req.InitialCash > 0 {
		cfg.InitialCash = req.InitialCash
	}

	runner := backtest.NewRunner(h.deps.History)
	results, err := runner.Run(cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": results[0],
	})
}

// GetStrategies 策略清單
func (h *Handler) GetStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": strategy.Names(),
	})
}

// GetStatus 服務狀態
func (h *Handler) GetStatus(c *gin.Context) {
	h.deps.Mu.Lock()
	balance := h.deps.Broker.Balance()
	positionCount := len(h.deps.Broker.Positions())
	h.deps.Mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"market_open":    trading.IsMarketOpen(),
			"quote_count":    len(h.deps.Cache.Quotes()),
			"balance":        balance,
			"position_count": positionCount,
			"user":           h.deps.User,
		},
	})
}
