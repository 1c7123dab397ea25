// Command pagedrop captures a page and sends it to the backend.
//
//	pagedrop send [tab|URL|PATH|-]   capture once and print the result
//	pagedrop popup                   serve the popup page on PAGEDROP_POPUP_ADDR
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/pagedrop/capture"
	"github.com/use-agent/pagedrop/config"
	"github.com/use-agent/pagedrop/popup"
	"github.com/use-agent/pagedrop/submit"
	"github.com/use-agent/pagedrop/trigger"
	"github.com/use-agent/pagedrop/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

const usage = `usage:
  pagedrop send [tab|URL|PATH|-]   capture a page and send it
  pagedrop popup                   serve the popup page
`

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "send":
		return runSend(ctx, cfg, args[1:], stdout, stderr)
	case "popup":
		return runPopup(ctx, cfg, args[1:], stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runSend(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Submit.Endpoint, "endpoint", cfg.Submit.Endpoint, "backend URL")
	fs.DurationVar(&cfg.Submit.Timeout, "timeout", cfg.Submit.Timeout, "submission timeout (0 = none)")
	fs.StringVar(&cfg.Capture.CDPURL, "cdp", cfg.Capture.CDPURL, "DevTools URL of the running browser, for tab capture")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("send takes at most one target, got %d", fs.NArg())
	}

	if *verbose {
		initLogger(cfg.Log, stderr)
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	router, browser := capture.FromConfig(cfg)
	defer browser.Close()

	client, err := submit.NewClient(cfg.Submit.Endpoint, nil, submit.WithTimeout(cfg.Submit.Timeout))
	if err != nil {
		return err
	}

	panel := ui.NewPanel()
	ctrl := trigger.New(router, client, trigger.Widgets{Surface: panel, Button: panel.Button()})

	o, err := ctrl.Activate(ctx, capture.ParseTarget(fs.Arg(0)))
	if err != nil {
		return err
	}

	styled := false
	if f, ok := stdout.(*os.File); ok {
		styled = ui.IsTerminal(f)
	}
	if err := ui.Print(stdout, panel.Snapshot(), styled); err != nil {
		return err
	}
	if !o.OK() {
		return o.Err()
	}
	return nil
}

func runPopup(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("popup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Popup.Addr, "addr", cfg.Popup.Addr, "listen address")
	fs.StringVar(&cfg.Submit.Endpoint, "endpoint", cfg.Submit.Endpoint, "backend URL")
	fs.StringVar(&cfg.Capture.CDPURL, "cdp", cfg.Capture.CDPURL, "DevTools URL of the running browser, for tab capture")
	if err := fs.Parse(args); err != nil {
		return err
	}

	initLogger(cfg.Log, stderr)

	router, browser := capture.FromConfig(cfg)
	defer browser.Close()

	client, err := submit.NewClient(cfg.Submit.Endpoint, nil, submit.WithTimeout(cfg.Submit.Timeout))
	if err != nil {
		return err
	}

	panel := ui.NewPanel()
	ctrl := trigger.New(router, client, trigger.Widgets{Surface: panel, Button: panel.Button()})
	pop := popup.NewServer(ctx, panel, ctrl, client.Endpoint(), cfg.Capture.CDPURL != "")

	srv := &http.Server{Addr: cfg.Popup.Addr, Handler: pop.Router("release")}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("popup listening", "addr", "http://"+cfg.Popup.Addr, "endpoint", client.Endpoint())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("popup forced shutdown", "error", err)
	}
	slog.Info("popup stopped")
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
