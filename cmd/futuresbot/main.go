package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/songzhibin97/futuresbot/internal/cli"
	"github.com/songzhibin97/futuresbot/internal/configs"
)

func main() {
	// .env 可选，不存在时忽略，格式错误直接退出
	if err := configs.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize bot: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Main(ctx)
	stop()

	os.Exit(code)
}
