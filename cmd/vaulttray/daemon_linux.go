//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/vaulttray/internal/autostart"
	"github.com/1broseidon/vaulttray/internal/config"
	"github.com/1broseidon/vaulttray/internal/daemon"
	"github.com/1broseidon/vaulttray/internal/hotkeys"
	"github.com/1broseidon/vaulttray/internal/ipc"
	"github.com/1broseidon/vaulttray/internal/notes"
	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/runtimepath"
	"github.com/1broseidon/vaulttray/internal/settings"
	"github.com/1broseidon/vaulttray/internal/shell"
	"github.com/1broseidon/vaulttray/internal/tray"
)

const reconcileInterval = 10 * time.Second

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	vf := addVaultFlags(fs)
	vaultPath := fs.String("vault-path", "", "Vault directory (overrides the config file)")
	display := fs.String("display", "", "X11 display (default: $DISPLAY)")
	logLevel := fs.String("log-level", "", "debug, info, warning or error")
	hidden := fs.Bool("hidden", false, "Start with every window hidden (used by the login item)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vaulttray daemon [--vault NAME] [--vault-path DIR] [--config PATH] [--hidden]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Manage the windows of one vault in the foreground.")
		fs.PrintDefaults()
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := vf.load(
		config.Override{Key: "vault_path", Value: *vaultPath},
		config.Override{Key: "display", Value: *display},
		config.Override{Key: "log_level", Value: *logLevel},
	)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	cfg := res.Config
	vault := cfg.VaultName()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}

	release, err := runtimepath.Lock(vault)
	if errors.Is(err, runtimepath.ErrLocked) {
		log.Printf("A daemon for vault %q is already running", vault)
		return 1
	}
	if err != nil {
		log.Printf("Failed to lock vault: %v", err)
		return 1
	}
	defer release()

	settingsPath, err := cfg.SettingsPath()
	if err != nil {
		log.Printf("Failed to resolve settings path: %v", err)
		return 1
	}
	store, err := settings.Open(settingsPath, logger)
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return 1
	}
	defer store.Flush()

	host, err := platform.NewLinuxHost(platform.LinuxHostConfig{
		Display:      cfg.Display,
		AppClass:     cfg.AppClass,
		TitlePattern: cfg.TitlePattern,
		Vault:        vault,
	})
	if err != nil {
		log.Printf("Failed to connect to display: %v", err)
		return 1
	}
	defer host.Disconnect()

	loginArgs := []string{"daemon", "--vault", vault}
	if *vf.config != "" {
		loginArgs = append(loginArgs, "--config", *vf.config)
	}
	logins, err := autostart.New("vaulttray-"+runtimepath.Slug(vault), loginArgs...)
	if err != nil {
		log.Printf("Failed to resolve login item: %v", err)
		return 1
	}

	systray := tray.NewSystray()
	defer systray.Quit()

	ctrl := shell.New(shell.Deps{
		Host:       host,
		Binder:     hotkeys.NewX11Binder(host.Connection()),
		Tray:       systray,
		LoginItems: logins,
		Notes: &notes.Creator{
			VaultPath: cfg.VaultPath,
			Vault:     vault,
			Clock:     clockwork.NewRealClock(),
			Opener:    notes.URIOpener{Scheme: cfg.URIScheme},
			Logger:    logger,
		},
		Settings:     store,
		Vault:        vault,
		Logger:       logger,
		LaunchHidden: *hidden,
		OnExit:       host.Quit,
	})
	host.Dispatch(func() {
		if err := ctrl.Start(); err != nil {
			logger.Error("failed to start controller", "error", err)
			host.Quit()
		}
	})

	d := daemon.New(ctrl, store, host.Dispatch)
	server, err := ipc.NewServer(vault, d)
	if err != nil {
		log.Printf("Failed to create IPC server: %v", err)
		return 1
	}
	if err := server.Start(); err != nil {
		log.Printf("Failed to start IPC server: %v", err)
		return 1
	}
	defer server.Stop()

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: reconcileInterval,
		Logger:   logger,
	}, d.Reconcile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reconciler.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())
			host.Dispatch(func() {
				ctrl.Detach()
				host.Quit()
			})
		case <-gctx.Done():
		}
		return nil
	})

	logger.Info("vaulttray daemon started", "vault", vault, "socket", server.SocketPath())
	host.Run()

	cancel()
	if err := g.Wait(); err != nil {
		logger.Warn("background task failed", "error", err)
	}
	logger.Info("vaulttray daemon stopped", "vault", vault)
	return 0
}
