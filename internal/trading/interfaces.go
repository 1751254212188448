package trading

import (
	"context"

	"github.com/shopspring/decimal"
)

// Exchange defines the futures exchange client consumed by the bot
type Exchange interface {
	// Init prepares the client (server time sync) and reports whether the exchange is reachable
	Init(ctx context.Context) error

	// CreateFuturesOrder submits a single order and returns the exchange's result
	CreateFuturesOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error)
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderType string

const (
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC" // Good Till Cancel
	TimeInForceIOC TimeInForce = "IOC" // Immediate or Cancel
	TimeInForceFOK TimeInForce = "FOK" // Fill or Kill
)

// OrderRequest 下单请求，字段名与交易所一致
type OrderRequest struct {
	Symbol        string           `json:"symbol"`
	Side          Side             `json:"side"`
	Type          OrderType        `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Price         *decimal.Decimal `json:"price,omitempty"`       // 仅限价单
	TimeInForce   TimeInForce      `json:"timeInForce,omitempty"` // 仅限价单
	StopPrice     *decimal.Decimal `json:"stopPrice,omitempty"`   // 仅止损市价单
	ClosePosition *bool            `json:"closePosition,omitempty"`
}

// OrderResponse 交易所返回的订单结果，原样展示
type OrderResponse struct {
	OrderID          int64  `json:"orderId"`
	ClientOrderID    string `json:"clientOrderId"`
	Symbol           string `json:"symbol"`
	Side             string `json:"side"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Price            string `json:"price"`
	AvgPrice         string `json:"avgPrice"`
	OrigQuantity     string `json:"origQty"`
	ExecutedQuantity string `json:"executedQty"`
	CumQuote         string `json:"cumQuote"`
	StopPrice        string `json:"stopPrice"`
	TimeInForce      string `json:"timeInForce"`
	ReduceOnly       bool   `json:"reduceOnly"`
	ClosePosition    bool   `json:"closePosition"`
	PositionSide     string `json:"positionSide"`
	UpdateTime       int64  `json:"updateTime"`
}
