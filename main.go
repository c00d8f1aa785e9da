// Command armlink supervises a six-joint robotic arm: it reads command
// lines from an input source, drives the arm over its ASCII command channel,
// polls the binary status feedback stream, and publishes per-tick status
// records to broadcast subscribers.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/armlink/internal/api"
	"github.com/banshee-data/armlink/internal/arm"
	"github.com/banshee-data/armlink/internal/armio"
	"github.com/banshee-data/armlink/internal/config"
	"github.com/banshee-data/armlink/internal/db"
	"github.com/banshee-data/armlink/internal/fsutil"
	"github.com/banshee-data/armlink/internal/monitoring"
	"github.com/banshee-data/armlink/internal/timeutil"
	"github.com/banshee-data/armlink/internal/version"
)

var (
	armID        = flag.String("id", "arm01", "arm identifier stamped on history rows and the API")
	configPath   = flag.String("config", config.DefaultConfigPath, "arm configuration file (JSON)")
	outputConfig = flag.Bool("output-config", false, "print the canonical configuration to stdout and exit")
	verbose      = flag.Bool("verbose", false, "log outgoing motion directives in degrees")
	showVersion  = flag.Bool("version", false, "print version and exit")

	robotArm   = flag.String("robot-arm", "", "arm command channel, tcp:host:port or serial:/dev/... (required)")
	feedback   = flag.String("feedback", "", "arm status feedback stream, tcp:host:port or serial:/dev/... (required)")
	input      = flag.String("input", "stdin", "command input source: stdin, tcp:host:port or serial:/dev/...")
	statusPort = flag.String("status-port", "", "listen address for the binary status broadcast, empty disables")
	listen     = flag.String("listen", "", "HTTP API listen address, empty disables")
	dbPath     = flag.String("db", "", "sqlite history database path, empty disables")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("armlink %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *outputConfig {
		if err := config.Canonical().WriteCanonical(os.Stdout); err != nil {
			log.Fatalf("failed to write config: %v", err)
		}
		return
	}

	monitoring.Verbose = *verbose

	if *robotArm == "" || *feedback == "" {
		log.Fatal("-robot-arm and -feedback are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", *configPath, err)
	}
	fs := fsutil.OSFileSystem{}
	if !fs.IsDir(cfg.WorkDirectory) {
		log.Fatalf("work_directory %q does not exist or is not a directory", cfg.WorkDirectory)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("armlink: %v", err)
	}
}

func run(cfg *config.ArmConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	armPort, err := armio.Open(*robotArm, armio.PortOptions{})
	if err != nil {
		return fmt.Errorf("connecting to arm command channel %s: %w", *robotArm, err)
	}
	defer armPort.Close()

	feedbackPort, err := armio.Open(*feedback, armio.PortOptions{})
	if err != nil {
		return fmt.Errorf("connecting to feedback stream %s: %w", *feedback, err)
	}
	defer feedbackPort.Close()

	// The command source doubles as the acknowledgement sink for socket
	// inputs; stdin pairs with stdout.
	var commandIn io.Reader = os.Stdin
	var ackOut io.Writer = os.Stdout
	if *input != "stdin" && *input != "-" {
		inputPort, err := armio.Open(*input, armio.PortOptions{})
		if err != nil {
			return fmt.Errorf("connecting to command input %s: %w", *input, err)
		}
		defer inputPort.Close()
		commandIn = inputPort
		ackOut = inputPort
	}

	var history *db.DB
	if *dbPath != "" {
		history, err = db.Open(*dbPath, *armID)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer history.Close()
		monitoring.Logf("history store %s, run %s", *dbPath, history.RunID())
	}

	var broadcast *armio.Publisher
	if *statusPort != "" {
		broadcast, err = armio.NewPublisher(*statusPort)
		if err != nil {
			return fmt.Errorf("starting status broadcast on %s: %w", *statusPort, err)
		}
		defer broadcast.Close()
		monitoring.Logf("status broadcast on %s", broadcast.Addr())
	}

	clock := timeutil.RealClock{}
	writer := armio.NewChannel(armPort)
	reader := arm.NewStatusReader(feedbackPort, clock)
	home, err := arm.NewHomeMonitor(cfg, fsutil.OSFileSystem{})
	if err != nil {
		return err
	}

	inputs := &arm.MotionInputs{}
	board := &arm.StatusBoard{}

	var events arm.EventRecorder
	if history != nil {
		events = history
	}
	init := arm.NewInitialiser(writer, reader, cfg, home, events)
	dispatcher := arm.NewDispatcher(writer, cfg, inputs, reader, init, home)

	deps := arm.LoopDeps{
		Config:     cfg,
		Clock:      clock,
		Writer:     writer,
		Reader:     reader,
		Source:     armio.NewLineSource(commandIn),
		Acks:       ackOut,
		Dispatcher: dispatcher,
		Home:       home,
		Engine:     arm.NewSimpleEngine(arm.DefaultJointLimits),
		Inputs:     inputs,
		Board:      board,
	}
	if broadcast != nil {
		deps.Broadcast = broadcast
	}
	if history != nil {
		deps.History = history
	}
	loop := arm.NewLoop(deps)

	var wg sync.WaitGroup
	if *listen != "" {
		wg.Add(1)
		go serveAPI(ctx, &wg, board, loop, history)
	}

	monitoring.Logf("armlink %s supervising %s (feedback %s, marker %s)",
		version.Version, *robotArm, *feedback, home.MarkerPath())
	runErr := loop.Run(ctx)

	stop()
	wg.Wait()
	return runErr
}

func serveAPI(ctx context.Context, wg *sync.WaitGroup, board *arm.StatusBoard, loop *arm.Loop, history *db.DB) {
	defer wg.Done()

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(api.NewServer(board, loop, history, *armID).ServeMux()),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()
	monitoring.Logf("HTTP API on %s", *listen)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
	}
}
