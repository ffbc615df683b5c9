package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kataras/golog"

	"InkNote/internal/config"
	inknet "InkNote/internal/net"
	"InkNote/internal/ui"
)

// Started either plainly, with flags, or from a share link:
//
//	inknote inknote://192.168.1.20:3001/<noteId>
func main() {
	cfg, err := config.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inknote: %v\n", err)
		os.Exit(2)
	}
	golog.SetLevel(cfg.LogLevel)
	golog.SetTimeFormat("15:04:05")

	if cfg.Discover {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DiscoverTimeout+cfg.DiscoverTimeout/2)
		server, err := inknet.Discover(ctx, cfg.DiscoverTimeout)
		cancel()
		if err != nil {
			golog.Warnf("discovery failed, using %s: %v", cfg.ServerURL, err)
		} else {
			cfg.ServerURL = server
		}
		cfg.Discover = false
	}

	golog.Infof("InkNote starting, server %s, note %q", cfg.ServerURL, cfg.NoteID)
	ui.RunApp(cfg)
}
