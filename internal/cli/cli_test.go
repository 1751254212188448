package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/futuresbot/internal/configs"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

type stubExchange struct {
	initErr  error
	orderErr error
	requests []trading.OrderRequest
}

func (s *stubExchange) Init(ctx context.Context) error {
	return s.initErr
}

func (s *stubExchange) CreateFuturesOrder(ctx context.Context, req trading.OrderRequest) (*trading.OrderResponse, error) {
	s.requests = append(s.requests, req)
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	resp := &trading.OrderResponse{
		OrderID:      77,
		Symbol:       req.Symbol,
		Side:         string(req.Side),
		Type:         string(req.Type),
		Status:       "NEW",
		OrigQuantity: req.Quantity.String(),
		TimeInForce:  string(req.TimeInForce),
	}
	if req.Price != nil {
		resp.Price = req.Price.String()
	}
	if req.StopPrice != nil {
		resp.StopPrice = req.StopPrice.String()
	}
	return resp, nil
}

type harness struct {
	app      *App
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	console  *bytes.Buffer
	exchange *stubExchange
	config   *configs.ExchangeConfig
	logFile  string
}

func newHarness(t *testing.T) *harness {
	// keep the developer's environment out of the tests
	t.Setenv(configs.EnvAPIKey, "")
	t.Setenv(configs.EnvAPISecret, "")
	t.Setenv(configs.EnvTestnet, "")
	t.Setenv(configs.EnvProxy, "")

	h := &harness{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		console:  &bytes.Buffer{},
		exchange: &stubExchange{},
		logFile:  filepath.Join(t.TempDir(), "bot.log"),
	}
	h.app = &App{
		Stdout:  h.stdout,
		Stderr:  h.stderr,
		Console: h.console,
		NewExchange: func(cfg configs.ExchangeConfig) (trading.Exchange, error) {
			h.config = &cfg
			return h.exchange, nil
		},
	}
	return h
}

func (h *harness) run(args ...string) int {
	base := []string{"--api-key", "KEY", "--api-secret", "SECRET", "--testnet", "--log-file", h.logFile}
	return h.app.Run(context.Background(), append(base, args...))
}

func TestRun_Market(t *testing.T) {
	h := newHarness(t)

	code := h.run("market", "--symbol", "btcusdt", "--side", "BUY", "--quantity", "0.01")
	require.Equal(t, 0, code, h.stderr.String())

	out := h.stdout.String()
	require.True(t, strings.HasPrefix(out, "Market order placed. Response:\n"), out)

	body := strings.TrimPrefix(out, "Market order placed. Response:\n")
	assert.Contains(t, body, "\n  \"symbol\": \"BTCUSDT\"")

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "BTCUSDT", resp["symbol"])
	assert.Equal(t, "BUY", resp["side"])
	assert.Equal(t, "MARKET", resp["type"])
	assert.Equal(t, "0.01", resp["origQty"])

	require.NotNil(t, h.config)
	assert.Equal(t, "KEY", h.config.APIKey)
	assert.Equal(t, "SECRET", h.config.SecretKey)
	assert.True(t, h.config.Testnet)
	assert.Empty(t, h.stderr.String())
}

func TestRun_Limit(t *testing.T) {
	h := newHarness(t)

	code := h.run("limit", "--symbol", "ETHUSDT", "--side", "SELL", "--quantity", "1.5", "--price", "3000", "--time-in-force", "IOC")
	require.Equal(t, 0, code, h.stderr.String())
	assert.True(t, strings.HasPrefix(h.stdout.String(), "Limit order placed. Response:\n"))

	require.Len(t, h.exchange.requests, 1)
	req := h.exchange.requests[0]
	assert.Equal(t, trading.OrderTypeLimit, req.Type)
	assert.Equal(t, trading.TimeInForceIOC, req.TimeInForce)
	assert.Equal(t, "3000", req.Price.String())
}

func TestRun_LimitDefaultsToGTC(t *testing.T) {
	h := newHarness(t)

	code := h.run("limit", "--symbol", "ETHUSDT", "--side", "SELL", "--quantity", "1.5", "--price", "3000")
	require.Equal(t, 0, code, h.stderr.String())
	require.Len(t, h.exchange.requests, 1)
	assert.Equal(t, trading.TimeInForceGTC, h.exchange.requests[0].TimeInForce)
}

func TestRun_StopMarket(t *testing.T) {
	h := newHarness(t)

	code := h.run("stop-market", "--symbol", "BTCUSDT", "--side", "SELL", "--quantity", "0.5", "--stop-price", "25000")
	require.Equal(t, 0, code, h.stderr.String())
	assert.True(t, strings.HasPrefix(h.stdout.String(), "Stop Market order placed. Response:\n"))

	require.Len(t, h.exchange.requests, 1)
	req := h.exchange.requests[0]
	assert.Equal(t, trading.OrderTypeStopMarket, req.Type)
	assert.Equal(t, "25000", req.StopPrice.String())
	require.NotNil(t, req.ClosePosition)
	assert.False(t, *req.ClosePosition)
}

func TestRun_APIError(t *testing.T) {
	h := newHarness(t)
	h.exchange.orderErr = &trading.APIError{StatusCode: 400, Code: -2019, Message: "insufficient balance"}

	code := h.run("market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Exchange API error: 400 - insufficient balance\n", h.stderr.String())
	assert.NotContains(t, h.stdout.String(), "order placed")
}

func TestRun_OrderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "request error", err: &trading.RequestError{Err: errors.New("i/o timeout")}, want: "Request error: i/o timeout"},
		{name: "unexpected", err: errors.New("boom"), want: "Unexpected error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.exchange.orderErr = tt.err

			code := h.run("market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1")
			assert.Equal(t, 1, code)
			assert.Equal(t, tt.want+"\n", h.stderr.String())
		})
	}
}

func TestRun_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "zero quantity", args: []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0"}, want: "Input validation error: Quantity must be positive"},
		{name: "negative quantity", args: []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "-1"}, want: "Input validation error: Quantity must be positive"},
		{name: "bad symbol", args: []string{"market", "--symbol", "BTC-USDT", "--side", "BUY", "--quantity", "1"}, want: "Input validation error: Invalid symbol format: BTC-USDT"},
		{name: "zero price", args: []string{"limit", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "--price", "0"}, want: "Input validation error: Price must be positive"},
		{name: "negative stop price", args: []string{"stop-market", "--symbol", "BTCUSDT", "--side", "SELL", "--quantity", "1", "--stop-price", "-5"}, want: "Input validation error: Stop price must be positive"},
		{name: "huge quantity", args: []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1e50000000"}, want: "Input validation error: Quantity is out of range"},
		{name: "over precise price", args: []string{"limit", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "--price", "1e-30"}, want: "Input validation error: Price is out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			code := h.run(tt.args...)
			assert.Equal(t, 1, code)
			assert.True(t, strings.HasPrefix(h.stderr.String(), tt.want), h.stderr.String())
			assert.Less(t, h.stderr.Len(), 256)
			assert.Empty(t, h.exchange.requests)
			assert.Nil(t, h.config, "exchange must not be created")

			data, err := os.ReadFile(h.logFile)
			require.NoError(t, err)
			assert.Equal(t, 1, strings.Count(string(data), "[ERROR]"))
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no command", args: nil, want: "a command is required"},
		{name: "unknown command", args: []string{"oco"}, want: "Unknown command: oco"},
		{name: "missing quantity", args: []string{"market", "--symbol", "BTCUSDT", "--side", "BUY"}, want: "required: --quantity"},
		{name: "missing price", args: []string{"limit", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"}, want: "required: --price"},
		{name: "bad side", args: []string{"market", "--symbol", "BTCUSDT", "--side", "LONG", "--quantity", "1"}, want: `invalid choice "LONG"`},
		{name: "bad time in force", args: []string{"limit", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "--price", "1", "--time-in-force", "GTX"}, want: `invalid choice "GTX"`},
		{name: "not a number", args: []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "lots"}, want: `invalid number "lots"`},
		{name: "number too long", args: []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0." + strings.Repeat("1", 80)}, want: "invalid number: longer than 64 characters"},
		{name: "extra argument", args: []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "now"}, want: "unrecognized arguments: now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			code := h.run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, h.stderr.String(), tt.want)
			assert.Nil(t, h.config, "exchange must not be created")
		})
	}
}

func TestRun_MissingCredentials(t *testing.T) {
	h := newHarness(t)

	code := h.app.Run(context.Background(), []string{"--log-file", h.logFile, "market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"})
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "required: --api-key, --api-secret")
	assert.Nil(t, h.config)
}

func TestRun_CredentialsFromEnv(t *testing.T) {
	h := newHarness(t)
	t.Setenv(configs.EnvAPIKey, "ENV-KEY")
	t.Setenv(configs.EnvAPISecret, "ENV-SECRET")

	code := h.app.Run(context.Background(), []string{"--log-file", h.logFile, "market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"})
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "ENV-KEY", h.config.APIKey)
	assert.Equal(t, "ENV-SECRET", h.config.SecretKey)
	assert.False(t, h.config.Testnet)
}

func TestRun_FlagsOverrideConfigFile(t *testing.T) {
	h := newHarness(t)
	conf := filepath.Join(t.TempDir(), "futuresbot.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("exchange_config:\n  api_key: FILE-KEY\n  secret_key: FILE-SECRET\n  recv_window: 2500\n"), 0644))

	code := h.app.Run(context.Background(), []string{"--conf", conf, "--api-key", "FLAG-KEY", "--log-file", h.logFile,
		"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"})
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "FLAG-KEY", h.config.APIKey)
	assert.Equal(t, "FILE-SECRET", h.config.SecretKey)
	assert.Equal(t, int64(2500), h.config.RecvWindow)
}

func TestRun_InitializationError(t *testing.T) {
	h := newHarness(t)
	h.exchange.initErr = &trading.RequestError{Err: errors.New("connection refused")}

	code := h.run("market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(h.stderr.String(), "Failed to initialize bot: "), h.stderr.String())
	assert.Contains(t, h.stderr.String(), "connection refused")
	assert.Empty(t, h.exchange.requests)
}

func TestRun_ValidatesBeforeInitialization(t *testing.T) {
	h := newHarness(t)
	h.exchange.initErr = &trading.RequestError{Err: errors.New("connection refused")}

	code := h.run("market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(h.stderr.String(), "Input validation error: "), h.stderr.String())
	assert.NotContains(t, h.stderr.String(), "Failed to initialize bot")
}

func TestRun_ExchangeFactoryError(t *testing.T) {
	h := newHarness(t)
	h.app.NewExchange = func(cfg configs.ExchangeConfig) (trading.Exchange, error) {
		return nil, errors.New("API key or secret is not set")
	}

	code := h.run("market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Failed to initialize bot: API key or secret is not set\n", h.stderr.String())
}

func TestRun_LogRecords(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0.01"))

	h.exchange.orderErr = &trading.APIError{StatusCode: 400, Code: -2019, Message: "Margin is insufficient."}
	require.Equal(t, 1, h.run("market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0.01"))

	data, err := os.ReadFile(h.logFile)
	require.NoError(t, err)

	for _, sink := range []string{string(data), h.console.String()} {
		assert.Equal(t, 2, strings.Count(sink, "[INFO] Placing MARKET order"))
		assert.Equal(t, 1, strings.Count(sink, "[INFO] Order response"))
		assert.Equal(t, 1, strings.Count(sink, "[ERROR]"))
		assert.Contains(t, sink, "400 Margin is insufficient.")
		assert.Contains(t, sink, "-2019")
	}
}

func TestRun_Help(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 0, h.app.Run(context.Background(), []string{"-h"}))
	assert.Contains(t, h.stderr.String(), "stop-market")
}
