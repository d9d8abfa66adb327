package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasync/host"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		entry       = flag.String("entry", host.DefaultEntryPoint, "Export to call first")
		timeout     = flag.Duration("timeout", 0, "Stop waiting for timers after this long (0 = no limit)")
		verbose     = flag.Bool("v", false, "Log host calls and timers")
		jsonLogs    = flag.Bool("json", false, "Log as JSON")
		noWASI      = flag.Bool("no-wasi", false, "Do not provide wasi_snapshot_preview1")
		list        = flag.Bool("list", false, "List imports and exports and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasync-run -wasm <file.wasm> [-entry run] [-timeout 10s] [-v] [-json]")
		fmt.Fprintln(os.Stderr, "       wasync-run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       wasync-run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	logger, err := newLogger(*verbose, *jsonLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	host.SetLogger(logger)

	cfg := host.DefaultConfig()
	cfg.EntryPoint = *entry
	cfg.EnableWASI = !*noWASI
	cfg.Logger = logger

	if *interactive {
		if err := runInteractive(*wasmFile, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg.Stdout = os.Stdout
	cfg.Stderr = os.Stderr
	if err := run(*wasmFile, cfg, *timeout, *verbose, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose, jsonLogs bool) (*zap.Logger, error) {
	var zc zap.Config
	if jsonLogs {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	// guest console output is printed by the observer; zap only carries
	// host diagnostics unless -v is given
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(wasmFile string, cfg *host.Config, timeout time.Duration, verbose, listOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rt, err := host.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(context.Background())

	mod, err := rt.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	if listOnly {
		fmt.Printf("Module: %s\n", wasmFile)
		fmt.Printf("\nImports:\n")
		for _, imp := range mod.Imports() {
			fmt.Printf("  %s\n", strings.Replace(imp, "#", ".", 1))
		}
		fmt.Printf("\nExports:\n")
		for _, exp := range mod.Exports() {
			fmt.Printf("  %s\n", exp)
		}
		return nil
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	rt.Subscribe(host.ObserverFunc(func(e host.Event) {
		line, ok := formatEvent(e, verbose, styled)
		if !ok {
			return
		}
		if e.Type == host.EventError {
			fmt.Fprintln(os.Stderr, line)
			return
		}
		fmt.Println(line)
	}))

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(context.Background())

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	if err := inst.Run(ctx); err != nil {
		return fmt.Errorf("run %s: %w", cfg.EntryPoint, err)
	}
	if verbose {
		fmt.Println(helpStyle.Render(fmt.Sprintf("finished in %s", time.Since(start).Round(time.Millisecond))))
	}
	return nil
}
