// Copyright © 2025 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/lumend/main.go
// Summary: Display service daemon: resolves a screen layout, brings the
// devices up and serves input ingestion and layout control on a unix socket.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/lumenwm/lumen/config"
	"github.com/lumenwm/lumen/display"
	"github.com/lumenwm/lumen/internal/xrandr"
	"github.com/lumenwm/lumen/server"
)

func main() {
	socketPath := flag.String("socket", "/tmp/lumend.sock", "Unix socket path")
	layoutFile := flag.String("layout", "", "Path to a layout file (overrides everything else)")
	storePath := flag.String("store", "", "Path to the named-layout database")
	layoutName := flag.String("layout-name", "", "Named layout to load from the store")
	probe := flag.Bool("probe", false, "Probe monitors over X11 RandR when no layout is given")
	backend := flag.String("backend", "mem", "Device backend for probed/fallback layouts (mem, term, fbdev)")
	flag.Parse()

	if *backend == "term" && !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "lumend: the term backend needs a terminal on stdout")
		os.Exit(1)
	}

	layout, err := resolveLayout(*layoutFile, *storePath, *layoutName, *probe, *backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumend: %v\n", err)
		os.Exit(1)
	}

	registry := display.NewRegistry()
	input := display.NewInput(registry)
	if err := registry.ApplyLayout(layout); err != nil {
		fmt.Fprintf(os.Stderr, "lumend: apply layout: %v\n", err)
		os.Exit(1)
	}
	defer registry.Close()
	log.Printf("lumend: %d screen(s), bounding rect %v", registry.Count(), registry.BoundingRect())

	srv := server.NewServer(*socketPath, registry, input, server.NewApplyLogger(nil))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "lumend: listen on %s: %v\n", *socketPath, err)
		os.Exit(1)
	}
	log.Printf("lumend: listening on %s", *socketPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Printf("lumend: shutdown: %v", err)
	}
}

// resolveLayout picks the layout source in priority order: explicit file,
// named store entry, RandR probe, single-screen fallback.
func resolveLayout(layoutFile, storePath, layoutName string, probe bool, backend string) (display.ScreenLayout, error) {
	if layoutFile != "" {
		return config.LoadLayoutFile(layoutFile)
	}

	if layoutName != "" {
		if storePath == "" {
			root, err := config.ConfigRoot()
			if err != nil {
				return display.ScreenLayout{}, err
			}
			storePath = root + "/layouts.db"
		}
		store, err := config.OpenStore(storePath)
		if err != nil {
			return display.ScreenLayout{}, err
		}
		defer store.Close()
		return store.LoadLayout(layoutName)
	}

	if path, err := config.DefaultLayoutPath(); err == nil {
		if layout, err := config.LoadLayoutFile(path); err == nil {
			return layout, nil
		} else if !os.IsNotExist(err) {
			log.Printf("lumend: ignoring %s: %v", path, err)
		}
	}

	if probe {
		conn, err := xrandr.Connect()
		if err != nil {
			return display.ScreenLayout{}, err
		}
		defer conn.Close()
		monitors, err := conn.Monitors()
		if err != nil {
			return display.ScreenLayout{}, err
		}
		return xrandr.LayoutFromMonitors(monitors, func(m xrandr.Monitor, index int) string {
			return deviceName(backend, m.Name, index)
		}), nil
	}

	return config.FallbackLayout(deviceName(backend, "main", 0)), nil
}

func deviceName(backend, name string, index int) string {
	switch backend {
	case "fbdev":
		return fmt.Sprintf("/dev/fb%d", index)
	case "term":
		return "term:" + name
	default:
		return "mem:" + name
	}
}
