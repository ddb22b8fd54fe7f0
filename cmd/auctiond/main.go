package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	auction "github.com/0x5487/auction-directory"
)

func main() {
	cfg := auction.DefaultConfig()

	pflag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "UDP address for request datagrams")
	pflag.StringVar(&cfg.ConsoleAddr, "console", cfg.ConsoleAddr, "HTTP address for the read-only operator console (empty disables it)")
	pflag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for persisted snapshots")
	pflag.IntVar(&cfg.MaxParticipants, "max-participants", cfg.MaxParticipants, "active participant capacity")
	pflag.IntVar(&cfg.MaxSellerListings, "max-seller-listings", cfg.MaxSellerListings, "simultaneous listings per seller")
	pflag.DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "listing countdown interval")
	pflag.DurationVar(&cfg.AnnounceInterval, "announce-interval", cfg.AnnounceInterval, "announcement publish interval")
	pflag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "auctiond:", err)
		os.Exit(1)
	}
}

func run(cfg auction.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	udpAddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer conn.Close()

	store := auction.NewStore(cfg.DataDir)
	dispatcher := auction.NewDispatcher(cfg, store, auction.NewUDPSender(conn))

	participants, err := store.LoadParticipants()
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	listings, err := store.LoadListings()
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}
	subscriptions, err := store.LoadSubscriptions()
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	dispatcher.Restore(participants, listings, subscriptions)

	go func() {
		_ = dispatcher.Start()
	}()
	go dispatcher.RunTimers(ctx)

	var console *http.Server
	if cfg.ConsoleAddr != "" {
		console = &http.Server{Addr: cfg.ConsoleAddr, Handler: auction.NewConsoleRouter(dispatcher)}
		go func() {
			if err := console.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintln(os.Stderr, "auctiond: console:", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	server := auction.NewServer(dispatcher, conn)
	go func() {
		serveErr <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn.Close()
	if console != nil {
		_ = console.Shutdown(shutdownCtx)
	}
	return dispatcher.Shutdown(shutdownCtx)
}
