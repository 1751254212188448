package binance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"github.com/songzhibin97/futuresbot/internal/trading"
	"github.com/songzhibin97/futuresbot/internal/utils/request"
)

const (
	LiveBaseURL    = "https://fapi.binance.com"
	TestnetBaseURL = "https://testnet.binancefuture.com"

	defaultRecvWindow = 5000
	defaultTimeout    = 10 * time.Second
)

// Options 客户端参数
type Options struct {
	APIKey     string
	SecretKey  string
	Testnet    bool
	BaseURL    string        // 为空时按 Testnet 选择
	RecvWindow int64         // 毫秒
	Timeout    time.Duration // 单次请求超时, <=0 时使用默认值
	Proxy      string
}

// FuturesExchange implements trading.Exchange for Binance USDⓈ-M futures
type FuturesExchange struct {
	client     *futures.Client
	recvWindow int64
}

// NewFuturesExchange creates a futures client. The endpoint is chosen per client, so the
// package level futures.UseTestnet switch is left untouched.
func NewFuturesExchange(opts Options) (*FuturesExchange, error) {
	if opts.APIKey == "" || opts.SecretKey == "" {
		return nil, fmt.Errorf("API key or secret is not set")
	}

	client := futures.NewClient(opts.APIKey, opts.SecretKey)
	client.BaseURL = baseURL(opts)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client.HTTPClient = request.NewHTTPClient(timeout, opts.Proxy)

	recvWindow := opts.RecvWindow
	if recvWindow <= 0 {
		recvWindow = defaultRecvWindow
	}

	return &FuturesExchange{
		client:     client,
		recvWindow: recvWindow,
	}, nil
}

func baseURL(opts Options) string {
	switch {
	case opts.BaseURL != "":
		return opts.BaseURL
	case opts.Testnet:
		return TestnetBaseURL
	default:
		return LiveBaseURL
	}
}

// Init syncs the local clock offset with the exchange server time
func (e *FuturesExchange) Init(ctx context.Context) error {
	ctx, status := request.WithStatusRecorder(ctx)
	if _, err := e.client.NewSetServerTimeService().Do(ctx); err != nil {
		return classify(err, status.Code)
	}
	return nil
}

// CreateFuturesOrder implements order placement for Binance futures
func (e *FuturesExchange) CreateFuturesOrder(ctx context.Context, req trading.OrderRequest) (*trading.OrderResponse, error) {
	ctx, status := request.WithStatusRecorder(ctx)

	orderService := e.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(futures.SideType(req.Side)).
		Type(futures.OrderType(req.Type)).
		Quantity(req.Quantity.String())

	if req.Price != nil {
		orderService.Price(req.Price.String())
	}
	if req.TimeInForce != "" {
		orderService.TimeInForce(futures.TimeInForceType(req.TimeInForce))
	}
	if req.StopPrice != nil {
		orderService.StopPrice(req.StopPrice.String())
	}
	if req.ClosePosition != nil {
		orderService.ClosePosition(*req.ClosePosition)
	}

	result, err := orderService.Do(ctx, futures.WithRecvWindow(e.recvWindow))
	if err != nil {
		return nil, classify(err, status.Code)
	}

	return convertOrderResponse(result), nil
}

func convertOrderResponse(res *futures.CreateOrderResponse) *trading.OrderResponse {
	return &trading.OrderResponse{
		OrderID:          res.OrderID,
		ClientOrderID:    res.ClientOrderID,
		Symbol:           res.Symbol,
		Side:             string(res.Side),
		Type:             string(res.Type),
		Status:           string(res.Status),
		Price:            res.Price,
		AvgPrice:         res.AvgPrice,
		OrigQuantity:     res.OrigQuantity,
		ExecutedQuantity: res.ExecutedQuantity,
		CumQuote:         res.CumQuote,
		StopPrice:        res.StopPrice,
		TimeInForce:      string(res.TimeInForce),
		ReduceOnly:       res.ReduceOnly,
		ClosePosition:    res.ClosePosition,
		PositionSide:     string(res.PositionSide),
		UpdateTime:       res.UpdateTime,
	}
}

// classify maps client errors onto the trading error kinds. status is the HTTP status of the
// response, 0 when none arrived. An error body that is not an exchange error payload is a RequestError.
func classify(err error, status int) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) && apiErr.IsValid() {
		return &trading.APIError{StatusCode: status, Code: apiErr.Code, Message: apiErr.Message}
	}
	return &trading.RequestError{Err: err}
}

var _ trading.Exchange = (*FuturesExchange)(nil)
