package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/browser"

	"github.com/char5742/inputreader/internal/diagnostics"
	"github.com/char5742/inputreader/internal/evdevsource"
	"github.com/char5742/inputreader/internal/hotplug"
	"github.com/char5742/inputreader/internal/policy"
	"github.com/char5742/inputreader/internal/reader"
	"github.com/char5742/inputreader/internal/uinputdispatch"
)

func main() {
	configPath := flag.String("config", "", "policy config file path (default: $XDG_CONFIG_HOME/inputreader/policy.toml)")
	inputDir := flag.String("input-dir", "/dev/input", "directory to scan and watch for evdev character devices")
	uinputPath := flag.String("uinput", "/dev/uinput", "path to the uinput control device")
	diagPort := flag.Int("diag-port", 8080, "diagnostics HTTP server port")
	openBrowser := flag.Bool("open-browser", false, "open the diagnostics page in a browser once the server is listening")
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			log.Fatalf("determine default config dir: %v", err)
		}
		cfgPath = filepath.Join(dir, "policy.toml")
	}

	pol, err := policy.NewFilePolicy(cfgPath)
	if err != nil {
		log.Fatalf("load policy from %s: %v", cfgPath, err)
	}
	fmt.Printf("loaded policy from %s\n", cfgPath)

	width, height, _, ok := pol.GetDisplayInfo()
	if !ok {
		width, height = 1280, 720
	}

	dispatcher, err := uinputdispatch.New(*uinputPath, width, height)
	if err != nil {
		log.Fatalf("create virtual input devices: %v", err)
	}
	defer dispatcher.Close()

	source, err := evdevsource.New()
	if err != nil {
		log.Fatalf("create event source: %v", err)
	}
	if err := source.ScanDir(*inputDir); err != nil {
		log.Printf("initial device scan of %s failed: %v", *inputDir, err)
	}

	watcher, err := hotplug.New(*inputDir, source)
	if err != nil {
		log.Fatalf("create hotplug watcher: %v", err)
	}
	if err := watcher.Start(); err != nil {
		log.Fatalf("start hotplug watcher: %v", err)
	}
	defer watcher.Stop()

	r := reader.New(source, pol, dispatcher)
	r.ConfigureExcludedDevices()

	diag := diagnostics.New(r, *diagPort)
	go func() {
		if err := diag.ListenAndServe(); err != nil {
			log.Printf("diagnostics server: %v", err)
		}
	}()

	if *openBrowser {
		go func() {
			_ = browser.OpenURL(fmt.Sprintf("http://localhost:%d/healthz", *diagPort))
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	handleSignals(cancel)

	log.Printf("inputreader running (policy=%s, devices=%s, diagnostics=:%d)", cfgPath, *inputDir, *diagPort)
	if err := r.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("reader loop exited: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = diag.Shutdown(shutdownCtx)
}

func defaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "inputreader"), nil
}

func handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("shutting down...")
		cancel()
	}()
}
