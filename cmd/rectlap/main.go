package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/lixenwraith/rectlap/app"
	"github.com/lixenwraith/rectlap/audio"
	"github.com/lixenwraith/rectlap/config"
	"github.com/lixenwraith/rectlap/core"
	"github.com/lixenwraith/rectlap/dispatch"
	"github.com/lixenwraith/rectlap/event"
	"github.com/lixenwraith/rectlap/geom"
	"github.com/lixenwraith/rectlap/layout"
	"github.com/lixenwraith/rectlap/metrics"
	"github.com/lixenwraith/rectlap/model"
	"github.com/lixenwraith/rectlap/service"
)

func main() {
	// Panic Recovery: restore the terminal even if the loop crashes
	defer func() {
		core.HandleCrash(recover())
	}()

	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code
func run(args []string) int {
	fs := pflag.NewFlagSet("rectlap", pflag.ContinueOnError)
	cfg, err := config.Load(fs, args, os.LookupEnv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "rectlap: %v\n", err)
		return 2
	}

	// No terminal on stdout means there is nothing to draw on
	if !cfg.Headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Headless = true
	}

	var logger logr.Logger
	if cfg.Headless {
		logger = setupStderrLogging(cfg.Verbosity)
	} else {
		var logFile *os.File
		logger, logFile = setupLogging(cfg.Debug, cfg.Verbosity)
		if logFile != nil {
			defer logFile.Close()
		}
	}
	logger.Info("Starting", "layout", cfg.Layout, "headless", cfg.Headless, "config", cfg.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logr.NewContext(ctx, logger)

	if err := execute(ctx, cfg); err != nil {
		logger.Error(err, "Exiting with error")
		fmt.Fprintf(os.Stderr, "rectlap: %v\n", err)
		return 1
	}
	return 0
}

// stack is the set of long-lived components shared by both modes
type stack struct {
	hub        *service.Hub
	queue      *event.Queue
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Metrics
	model      *model.LayoutModel
}

func buildStack(ctx context.Context, cfg config.Config) (*stack, error) {
	logger := logr.FromContextOrDiscard(ctx)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	queue := event.NewQueue(cfg.QueueSize)

	d, err := dispatch.New(dispatch.Options{
		PoolSize:   cfg.PoolSize,
		MaxPending: cfg.MaxPending,
		Logger:     logger,
		Metrics:    m,
	})
	if err != nil {
		return nil, err
	}

	hub := service.NewHub()
	if err := hub.Register(d); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr != "" {
		if err := hub.Register(metrics.NewServer(cfg.MetricsAddr, registry, logger)); err != nil {
			return nil, err
		}
	}

	return &stack{
		hub:        hub,
		queue:      queue,
		dispatcher: d,
		metrics:    m,
		model:      model.NewLayoutModel(),
	}, nil
}

func execute(ctx context.Context, cfg config.Config) error {
	logger := logr.FromContextOrDiscard(ctx)

	rects, err := layout.Load(cfg.Layout)
	if err != nil {
		return err
	}
	fp := layout.Fingerprint(rects)
	logger.Info("Layout loaded", "rects", len(rects), "fingerprint", fp)

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Headless {
		return runHeadless(ctx, cfg, st, rects, fp)
	}
	return runInteractive(ctx, cfg, st, rects, fp)
}

func runHeadless(ctx context.Context, cfg config.Config, st *stack, rects []geom.Rectangle, fp uint64) (err error) {
	if err := st.hub.InitAll(ctx); err != nil {
		return err
	}
	if err := st.hub.StartAll(); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, st.hub.StopAll())
	}()

	ctrl := app.New(app.Deps{
		Queue:      st.queue,
		Dispatcher: st.dispatcher,
		Model:      st.model,
		Metrics:    st.metrics,
	}, app.Options{
		LayoutPath: cfg.Layout,
		Logger:     logr.FromContextOrDiscard(ctx),
	})
	ctrl.SetLayout(rects, fp)

	out, err := ctrl.RunOnce(ctx)
	if err != nil {
		return err
	}
	return writeResult(os.Stdout, cfg.Output, out)
}

func runInteractive(ctx context.Context, cfg config.Config, st *stack, rects []geom.Rectangle, fp uint64) (err error) {
	logger := logr.FromContextOrDiscard(ctx)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialize terminal: %w", err)
	}
	core.SetCrashRestore(screen.Fini)

	player := audio.NewPlayer(cfg.Volume, cfg.Mute, logger)
	if err := st.hub.Register(player); err != nil {
		screen.Fini()
		return err
	}

	deps := app.Deps{
		Queue:      st.queue,
		Dispatcher: st.dispatcher,
		Model:      st.model,
		Screen:     screen,
		Cue:        player,
		Metrics:    st.metrics,
	}
	if cfg.Watch {
		watcher := layout.NewWatcher(cfg.Layout, st.queue, 0, logger)
		if err := st.hub.Register(watcher); err != nil {
			screen.Fini()
			return err
		}
		deps.Watcher = watcher
	}

	if err := st.hub.InitAll(ctx); err != nil {
		screen.Fini()
		return err
	}
	if err := st.hub.StartAll(); err != nil {
		screen.Fini()
		return err
	}
	defer func() {
		err = multierr.Append(err, st.hub.StopAll())
	}()

	ctrl := app.New(deps, app.Options{
		LayoutPath:    cfg.Layout,
		FrameInterval: cfg.FrameInterval,
		AutoDetect:    cfg.DetectOnStart,
		ColorSeed:     cfg.ColorSeed,
		Logger:        logger,
	})
	ctrl.SetLayout(rects, fp)

	input := make(chan tcell.Event, 256)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() { core.HandleCrash(recover()) }()
		// Finalizing the screen unblocks the input poller
		defer screen.Fini()
		return ctrl.Run(gctx, input)
	})
	g.Go(func() error {
		defer func() { core.HandleCrash(recover()) }()
		app.PollInput(gctx, screen, input)
		return nil
	})
	return g.Wait()
}
