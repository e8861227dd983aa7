package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yeremiapane/order-platform/config"
	"github.com/yeremiapane/order-platform/kds"
	"github.com/yeremiapane/order-platform/utils"
)

const help = `commands:
  advance <id>           move an order to its next stage
  cancel <id> [reason]   cancel an order
  refresh                fetch now
  auto on|off            toggle periodic refresh
  sound on|off           toggle the new order bell
  flash on|off           toggle the new order banner
  dismiss                hide the current notice
  quit`

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.SetLevel(cfg.LogLevel)

	restaurantID := flag.String("restaurant", cfg.KDS.RestaurantID, "restaurant to display")
	baseURL := flag.String("api", cfg.KDS.BaseURL, "order platform base url")
	flag.Parse()

	if *restaurantID == "" {
		utils.ErrorLogger.Fatal("KDS_RESTAURANT_ID or -restaurant is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// log ke stderr supaya tidak menimpa tabel
	utils.InfoLogger.SetOutput(os.Stderr)

	client := kds.NewAPIClient(*baseURL, cfg.KDS.Token)
	opts := kds.DefaultOptions(*restaurantID)
	opts.PollInterval = cfg.KDS.PollInterval
	opts.ClockInterval = cfg.KDS.ClockInterval
	opts.FetchTimeout = cfg.KDS.FetchTimeout
	opts.Sound = cfg.KDS.Sound
	opts.Flash = cfg.KDS.Flash
	opts.SoundPlayer = kds.TerminalBell{Out: os.Stdout}
	opts.Renderer = &kds.TerminalRenderer{Out: os.Stdout}
	opts.Logger = utils.InfoLogger.WithField("component", "kitchen_display")

	display := kds.NewDisplay(client, client, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := display.Run(ctx); err != nil && ctx.Err() == nil {
			utils.ErrorLogger.Errorf("display stopped: %v", err)
		}
	}()

	go func() {
		readCommands(ctx, display, os.Stdin, os.Stdout)
		stop()
	}()

	<-done
}

func readCommands(ctx context.Context, display *kds.Display, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := runCommand(ctx, display, line, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func runCommand(ctx context.Context, display *kds.Display, line string, out io.Writer) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "advance", "cancel":
		if len(args) == 0 {
			return fmt.Errorf("usage: %s <id>", cmd)
		}
		order, err := display.Snapshot().Resolve(args[0])
		if err != nil {
			return err
		}
		actionCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if cmd == "advance" {
			return display.Advance(actionCtx, order.ID)
		}
		return display.Cancel(actionCtx, order.ID, strings.Join(args[1:], " "))
	case "refresh":
		display.Refresh()
	case "dismiss":
		display.Dismiss()
	case "auto", "sound", "flash":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: %s on|off", cmd)
		}
		on := args[0] == "on"
		switch cmd {
		case "auto":
			display.SetAutoRefresh(on)
		case "sound":
			display.SetSound(on)
		default:
			display.SetFlash(on)
		}
	case "help":
		fmt.Fprintln(out, help)
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}
