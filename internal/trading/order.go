package trading

import (
	"github.com/shopspring/decimal"
)

// MarketOrder 市价单
type MarketOrder struct {
	Symbol   string
	Side     Side
	Quantity decimal.Decimal
}

// LimitOrder 限价单
type LimitOrder struct {
	Symbol      string
	Side        Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TimeInForce TimeInForce
}

// StopMarketOrder 止损市价单，价格触及 StopPrice 后以市价成交
type StopMarketOrder struct {
	Symbol    string
	Side      Side
	Quantity  decimal.Decimal
	StopPrice decimal.Decimal
}

// NewMarketOrder validates the raw input and builds a MarketOrder
func NewMarketOrder(symbol, side string, quantity decimal.Decimal) (*MarketOrder, error) {
	sym, sd, err := validateCommon(symbol, side, quantity)
	if err != nil {
		return nil, err
	}
	return &MarketOrder{Symbol: sym, Side: sd, Quantity: quantity}, nil
}

// NewLimitOrder validates the raw input and builds a LimitOrder. An empty timeInForce means GTC.
func NewLimitOrder(symbol, side string, quantity, price decimal.Decimal, timeInForce string) (*LimitOrder, error) {
	sym, sd, err := validateCommon(symbol, side, quantity)
	if err != nil {
		return nil, err
	}
	if err := ValidatePrice(price); err != nil {
		return nil, err
	}
	tif, err := ParseTimeInForce(timeInForce)
	if err != nil {
		return nil, err
	}
	return &LimitOrder{Symbol: sym, Side: sd, Quantity: quantity, Price: price, TimeInForce: tif}, nil
}

// NewStopMarketOrder validates the raw input and builds a StopMarketOrder
func NewStopMarketOrder(symbol, side string, quantity, stopPrice decimal.Decimal) (*StopMarketOrder, error) {
	sym, sd, err := validateCommon(symbol, side, quantity)
	if err != nil {
		return nil, err
	}
	if err := ValidateStopPrice(stopPrice); err != nil {
		return nil, err
	}
	return &StopMarketOrder{Symbol: sym, Side: sd, Quantity: quantity, StopPrice: stopPrice}, nil
}

func validateCommon(symbol, side string, quantity decimal.Decimal) (string, Side, error) {
	sym, err := ValidateSymbol(symbol)
	if err != nil {
		return "", "", err
	}
	sd, err := ParseSide(side)
	if err != nil {
		return "", "", err
	}
	if err := ValidateQuantity(quantity); err != nil {
		return "", "", err
	}
	return sym, sd, nil
}

func (o *MarketOrder) Request() OrderRequest {
	return OrderRequest{
		Symbol:   o.Symbol,
		Side:     o.Side,
		Type:     OrderTypeMarket,
		Quantity: o.Quantity,
	}
}

func (o *LimitOrder) Request() OrderRequest {
	price := o.Price
	return OrderRequest{
		Symbol:      o.Symbol,
		Side:        o.Side,
		Type:        OrderTypeLimit,
		Quantity:    o.Quantity,
		Price:       &price,
		TimeInForce: o.TimeInForce,
	}
}

// Request always sends closePosition=false; closing the whole position is not exposed.
func (o *StopMarketOrder) Request() OrderRequest {
	stopPrice := o.StopPrice
	closePosition := false
	return OrderRequest{
		Symbol:        o.Symbol,
		Side:          o.Side,
		Type:          OrderTypeStopMarket,
		Quantity:      o.Quantity,
		StopPrice:     &stopPrice,
		ClosePosition: &closePosition,
	}
}
