package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"tymeloop/internal/app"
	logx "tymeloop/pkg/logx"
)

func main() {
	var (
		cfgPath string
		status  bool
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config (json or yaml)")
	flag.BoolVar(&status, "status", false, "print the final run status as JSON")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfgPath, status)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, cfgPath string, status bool) int {
	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer a.Close()
	log := a.Logger()

	// Outside systemd NOTIFY_SOCKET is unset and SdNotify is a no-op.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("sd_notify ready failed", logx.Err(err))
	}
	runErr := a.Run(ctx)
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		log.Debug("sd_notify stopping failed", logx.Err(err))
	}

	if status {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(a.Status())
	}
	if runErr != nil {
		log.Error("run failed", logx.Err(runErr))
		return 1
	}
	return 0
}
