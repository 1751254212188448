package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/songzhibin97/futuresbot/internal/trading"
)

// TradingBot places futures orders through an exchange client and logs every attempt.
// It is built once per process and not mutated afterwards.
type TradingBot struct {
	exchange trading.Exchange
	logger   *zap.Logger
}

// New initializes the exchange client. Failures are logged and returned as *trading.InitializationError.
func New(ctx context.Context, exchange trading.Exchange, logger *zap.Logger, testnet bool) (*TradingBot, error) {
	mode := "LIVE"
	if testnet {
		mode = "TESTNET"
	}

	if err := exchange.Init(ctx); err != nil {
		logger.Error("Error initializing Binance Futures client", zap.String("mode", mode), zap.Error(err))
		return nil, &trading.InitializationError{Err: err}
	}

	logger.Info(fmt.Sprintf("Initialized Binance Futures client in %s mode.", mode))

	return &TradingBot{
		exchange: exchange,
		logger:   logger,
	}, nil
}

// PlaceMarketOrder 市价单
func (b *TradingBot) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity decimal.Decimal) (*trading.OrderResponse, error) {
	order, err := trading.NewMarketOrder(symbol, side, quantity)
	if err != nil {
		return nil, b.fail("market", err)
	}
	return b.submit(ctx, "market", order.Request())
}

// PlaceLimitOrder 限价单，timeInForce 为空时使用 GTC
func (b *TradingBot) PlaceLimitOrder(ctx context.Context, symbol, side string, quantity, price decimal.Decimal, timeInForce string) (*trading.OrderResponse, error) {
	order, err := trading.NewLimitOrder(symbol, side, quantity, price, timeInForce)
	if err != nil {
		return nil, b.fail("limit", err)
	}
	return b.submit(ctx, "limit", order.Request())
}

// PlaceStopMarketOrder 止损市价单，closePosition 固定为 false
func (b *TradingBot) PlaceStopMarketOrder(ctx context.Context, symbol, side string, quantity, stopPrice decimal.Decimal) (*trading.OrderResponse, error) {
	order, err := trading.NewStopMarketOrder(symbol, side, quantity, stopPrice)
	if err != nil {
		return nil, b.fail("stop market", err)
	}
	return b.submit(ctx, "stop market", order.Request())
}

func (b *TradingBot) submit(ctx context.Context, kind string, req trading.OrderRequest) (*trading.OrderResponse, error) {
	b.logger.Info(fmt.Sprintf("Placing %s order", req.Type), zap.Any("params", req))

	resp, err := b.exchange.CreateFuturesOrder(ctx, req)
	if err != nil {
		return nil, b.fail(kind, err)
	}

	b.logger.Info("Order response", zap.Any("response", resp))
	return resp, nil
}

// fail writes the single error record for a failed call and returns err unchanged
func (b *TradingBot) fail(kind string, err error) error {
	var (
		validationErr *trading.ValidationError
		apiErr        *trading.APIError
		requestErr    *trading.RequestError
	)

	switch {
	case errors.As(err, &validationErr):
		b.logger.Error(fmt.Sprintf("Validation error when placing %s order", kind),
			zap.String("field", validationErr.Field), zap.Error(err))
	case errors.As(err, &apiErr):
		b.logger.Error(fmt.Sprintf("API error when placing %s order: %d %s", kind, apiErr.StatusCode, apiErr.Message),
			zap.Int("status", apiErr.StatusCode), zap.Int64("code", apiErr.Code), zap.String("message", apiErr.Message))
	case errors.As(err, &requestErr):
		b.logger.Error(fmt.Sprintf("Request error when placing %s order", kind), zap.Error(requestErr.Err))
	default:
		b.logger.Error(fmt.Sprintf("Unexpected error when placing %s order", kind), zap.Error(err))
	}

	return err
}
