package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/songzhibin97/futuresbot/internal/bot"
	"github.com/songzhibin97/futuresbot/internal/configs"
	"github.com/songzhibin97/futuresbot/internal/logging"
	"github.com/songzhibin97/futuresbot/internal/trading"
	"github.com/songzhibin97/futuresbot/internal/trading/binance"
)

const progName = "futuresbot"

// ExchangeFactory builds the exchange client from the resolved configuration
type ExchangeFactory func(cfg configs.ExchangeConfig) (trading.Exchange, error)

// NewBinanceExchange is the production ExchangeFactory
func NewBinanceExchange(cfg configs.ExchangeConfig) (trading.Exchange, error) {
	return binance.NewFuturesExchange(binance.Options{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		Testnet:    cfg.Testnet,
		BaseURL:    cfg.BaseURL,
		RecvWindow: cfg.RecvWindow,
		Timeout:    cfg.Timeout,
		Proxy:      cfg.Proxy,
	})
}

// App parses one command line, places one order and reports the outcome
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	// Console receives the console copy of the log; defaults to Stdout
	Console     io.Writer
	NewExchange ExchangeFactory
}

// orderArgs 子命令参数
type orderArgs struct {
	symbol      string
	side        string
	quantity    decimal.Decimal
	price       decimal.Decimal
	stopPrice   decimal.Decimal
	timeInForce string
}

type command struct {
	name     string
	help     string
	label    string
	flags    func(fs *flag.FlagSet, a *orderArgs)
	required []string
	// check builds the typed order so bad input is rejected before any network call
	check func(a *orderArgs) error
	place func(ctx context.Context, b *bot.TradingBot, a *orderArgs) (*trading.OrderResponse, error)
}

var commands = []command{
	{
		name:     "market",
		help:     "Place a market order",
		label:    "Market",
		required: []string{"symbol", "side", "quantity"},
		check: func(a *orderArgs) error {
			_, err := trading.NewMarketOrder(a.symbol, a.side, a.quantity)
			return err
		},
		place: func(ctx context.Context, b *bot.TradingBot, a *orderArgs) (*trading.OrderResponse, error) {
			return b.PlaceMarketOrder(ctx, a.symbol, a.side, a.quantity)
		},
	},
	{
		name:     "limit",
		help:     "Place a limit order",
		label:    "Limit",
		required: []string{"symbol", "side", "quantity", "price"},
		flags: func(fs *flag.FlagSet, a *orderArgs) {
			fs.Var(newDecimalValue(&a.price), "price", "Limit price")
			fs.Var(newChoiceValue(&a.timeInForce, "GTC", "GTC", "IOC", "FOK"), "time-in-force", "Time in force {GTC,IOC,FOK}")
		},
		check: func(a *orderArgs) error {
			_, err := trading.NewLimitOrder(a.symbol, a.side, a.quantity, a.price, a.timeInForce)
			return err
		},
		place: func(ctx context.Context, b *bot.TradingBot, a *orderArgs) (*trading.OrderResponse, error) {
			return b.PlaceLimitOrder(ctx, a.symbol, a.side, a.quantity, a.price, a.timeInForce)
		},
	},
	{
		name:     "stop-market",
		help:     "Place a stop market order",
		label:    "Stop Market",
		required: []string{"symbol", "side", "quantity", "stop-price"},
		flags: func(fs *flag.FlagSet, a *orderArgs) {
			fs.Var(newDecimalValue(&a.stopPrice), "stop-price", "Stop trigger price")
		},
		check: func(a *orderArgs) error {
			_, err := trading.NewStopMarketOrder(a.symbol, a.side, a.quantity, a.stopPrice)
			return err
		},
		place: func(ctx context.Context, b *bot.TradingBot, a *orderArgs) (*trading.OrderResponse, error) {
			return b.PlaceStopMarketOrder(ctx, a.symbol, a.side, a.quantity, a.stopPrice)
		},
	},
}

func findCommand(name string) (*command, bool) {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i], true
		}
	}
	return nil, false
}

// Run executes the command line and returns the process exit code
func (a *App) Run(ctx context.Context, args []string) int {
	if a.Console == nil {
		a.Console = a.Stdout
	}
	if a.NewExchange == nil {
		a.NewExchange = NewBinanceExchange
	}

	var (
		apiKey, apiSecret, confPath, logFile, logLevel string
		testnet                                        bool
	)

	global := flag.NewFlagSet(progName, flag.ContinueOnError)
	global.SetOutput(a.Stderr)
	global.StringVar(&apiKey, "api-key", "", "Binance API Key (or "+configs.EnvAPIKey+")")
	global.StringVar(&apiSecret, "api-secret", "", "Binance API Secret (or "+configs.EnvAPISecret+")")
	global.BoolVar(&testnet, "testnet", false, "Use Futures Testnet")
	global.StringVar(&confPath, "conf", "", "config path, eg: -conf futuresbot.yaml")
	global.StringVar(&logFile, "log-file", "", "log file path (default "+logging.DefaultFile+")")
	global.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	global.Usage = func() { a.usage(global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprintln(a.Stderr, "a command is required")
		a.usage(global)
		return 1
	}

	cmd, ok := findCommand(rest[0])
	if !ok {
		fmt.Fprintf(a.Stderr, "Unknown command: %s\n", rest[0])
		a.usage(global)
		return 1
	}

	oa, code, ok := a.parseCommand(cmd, rest[1:])
	if !ok {
		return code
	}

	config, err := configs.Load(confPath)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Failed to initialize bot: %v\n", err)
		return 1
	}
	if err := config.ApplyEnv(); err != nil {
		fmt.Fprintf(a.Stderr, "Failed to initialize bot: %v\n", err)
		return 1
	}

	set := visited(global)
	if set["api-key"] {
		config.ExchangeConfig.APIKey = apiKey
	}
	if set["api-secret"] {
		config.ExchangeConfig.SecretKey = apiSecret
	}
	if set["testnet"] {
		config.ExchangeConfig.Testnet = testnet
	}
	if set["log-file"] {
		config.Log.File = logFile
	}
	if set["log-level"] {
		config.Log.Level = logLevel
	}

	var missing []string
	if config.ExchangeConfig.APIKey == "" {
		missing = append(missing, "--api-key")
	}
	if config.ExchangeConfig.SecretKey == "" {
		missing = append(missing, "--api-secret")
	}
	if len(missing) > 0 {
		fmt.Fprintf(a.Stderr, "the following arguments are required: %s\n", strings.Join(missing, ", "))
		a.usage(global)
		return 1
	}

	logger, closeLog, err := logging.New(logging.Options{
		File:    config.Log.File,
		Console: a.Console,
		Level:   config.Log.Level,
	})
	if err != nil {
		fmt.Fprintf(a.Stderr, "Failed to initialize bot: %v\n", err)
		return 1
	}
	defer closeLog()

	if err := cmd.check(oa); err != nil {
		logger.Error(fmt.Sprintf("Validation error when placing %s order", strings.ToLower(cmd.label)), zap.Error(err))
		fmt.Fprintln(a.Stderr, describe(err))
		return 1
	}

	exchange, err := a.NewExchange(config.ExchangeConfig)
	if err != nil {
		logger.Error("Error creating Binance Futures client", zap.Error(err))
		fmt.Fprintf(a.Stderr, "Failed to initialize bot: %v\n", err)
		return 1
	}

	tradingBot, err := bot.New(ctx, exchange, logger, config.ExchangeConfig.Testnet)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Failed to initialize bot: %v\n", err)
		return 1
	}

	resp, err := cmd.place(ctx, tradingBot, oa)
	if err != nil {
		fmt.Fprintln(a.Stderr, describe(err))
		return 1
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(a.Stderr, "Unexpected error: %v\n", err)
		return 1
	}

	fmt.Fprintf(a.Stdout, "%s order placed. Response:\n%s\n", cmd.label, out)
	return 0
}

func (a *App) parseCommand(cmd *command, args []string) (*orderArgs, int, bool) {
	oa := &orderArgs{}

	fs := flag.NewFlagSet(progName+" "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	fs.StringVar(&oa.symbol, "symbol", "", "Trading pair, e.g., BTCUSDT")
	fs.Var(newChoiceValue(&oa.side, "", "BUY", "SELL"), "side", "Order side {BUY,SELL}")
	fs.Var(newDecimalValue(&oa.quantity), "quantity", "Quantity to trade")
	if cmd.flags != nil {
		cmd.flags(fs, oa)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0, false
		}
		return nil, 1, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(a.Stderr, "unrecognized arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return nil, 1, false
	}

	set := visited(fs)
	var missing []string
	for _, name := range cmd.required {
		if !set[name] {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(a.Stderr, "the following arguments are required: %s\n", strings.Join(missing, ", "))
		fs.Usage()
		return nil, 1, false
	}

	return oa, 0, true
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// describe renders an order failure as the single line shown to the user
func describe(err error) string {
	var (
		validationErr *trading.ValidationError
		apiErr        *trading.APIError
		requestErr    *trading.RequestError
	)

	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Input validation error: %s", validationErr.Message)
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Exchange API error: %d - %s", apiErr.StatusCode, apiErr.Message)
	case errors.As(err, &requestErr):
		return fmt.Sprintf("Request error: %v", requestErr.Err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}

func (a *App) usage(global *flag.FlagSet) {
	w := a.Stderr
	fmt.Fprintf(w, "usage: %s [global flags] <command> [options]\n\nglobal flags:\n", progName)
	global.PrintDefaults()

	fmt.Fprintln(w, "\ncommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-13s %s\n", c.name, c.help)
	}
	fmt.Fprintf(w, "\nRun '%s <command> -h' for command options.\n", progName)
}

// Main is the entry point used by cmd/futuresbot
func Main(ctx context.Context) int {
	app := &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	return app.Run(ctx, os.Args[1:])
}
