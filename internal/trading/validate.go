package trading

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ValidateSymbol checks the symbol is non-empty ASCII alphanumeric and returns it uppercased.
// The symbol is not checked against the exchange's instrument list.
func ValidateSymbol(symbol string) (string, error) {
	if symbol == "" {
		return "", invalid("symbol", "Invalid symbol format: symbol is empty")
	}
	for _, r := range symbol {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", invalid("symbol", "Invalid symbol format: %s", symbol)
		}
	}
	return strings.ToUpper(symbol), nil
}

const (
	maxScale  = 18 // 指数绝对值上限
	maxDigits = 32 // 有效数字上限
)

// checkAmount rejects values whose exponent or digit count is out of range before the value is
// ever formatted, then requires the value to be positive.
func checkAmount(field, name string, d decimal.Decimal) error {
	if exp := d.Exponent(); exp > maxScale || exp < -maxScale || d.NumDigits() > maxDigits {
		return invalid(field, "%s is out of range (at most %d significant digits, exponent within ±%d)", name, maxDigits, maxScale)
	}
	if !d.IsPositive() {
		return invalid(field, "%s must be positive, got %s", name, d)
	}
	return nil
}

func ValidateQuantity(quantity decimal.Decimal) error {
	return checkAmount("quantity", "Quantity", quantity)
}

func ValidatePrice(price decimal.Decimal) error {
	return checkAmount("price", "Price", price)
}

func ValidateStopPrice(stopPrice decimal.Decimal) error {
	return checkAmount("stopPrice", "Stop price", stopPrice)
}

// ParseSide accepts buy/sell in any case
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToUpper(s)); side {
	case SideBuy, SideSell:
		return side, nil
	default:
		return "", invalid("side", "Invalid side: %q (expected BUY or SELL)", s)
	}
}

// ParseTimeInForce accepts GTC/IOC/FOK in any case; empty means GTC
func ParseTimeInForce(s string) (TimeInForce, error) {
	if s == "" {
		return TimeInForceGTC, nil
	}
	switch tif := TimeInForce(strings.ToUpper(s)); tif {
	case TimeInForceGTC, TimeInForceIOC, TimeInForceFOK:
		return tif, nil
	default:
		return "", invalid("timeInForce", "Invalid time in force: %q (expected GTC, IOC or FOK)", s)
	}
}
