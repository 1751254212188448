package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultFile  = "bot.log"
	DefaultLevel = "info"

	timeLayout = "2006-01-02 15:04:05.000"
)

// Options 日志配置
type Options struct {
	File    string    // 日志文件路径，追加写入
	Console io.Writer // 控制台输出，默认 os.Stdout
	Level   string    // debug/info/warn/error
}

// New creates a logger that writes the same records to the log file and the console.
// Both sinks share one layout: "<time> [<LEVEL>] <message> <fields>".
// The returned close function syncs and closes the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	if opts.File == "" {
		opts.File = DefaultFile
	}
	if opts.Level == "" {
		opts.Level = DefaultLevel
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	if dir := filepath.Dir(opts.File); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig())

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(file), level),
		zapcore.NewCore(encoder.Clone(), zapcore.AddSync(opts.Console), level),
	)

	logger := zap.New(core)

	closeFn := func() error {
		_ = logger.Sync()
		return file.Close()
	}

	return logger, closeFn, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	cfg.EncodeLevel = bracketLevelEncoder
	cfg.ConsoleSeparator = " "
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return cfg
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}
