package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/activity.report/internal/api"
	"github.com/banshee-data/activity.report/internal/audio"
	"github.com/banshee-data/activity.report/internal/capture"
	"github.com/banshee-data/activity.report/internal/classify"
	"github.com/banshee-data/activity.report/internal/config"
	"github.com/banshee-data/activity.report/internal/db"
	"github.com/banshee-data/activity.report/internal/monitor"
	"github.com/banshee-data/activity.report/internal/notify"
	"github.com/banshee-data/activity.report/internal/timeutil"
	"github.com/banshee-data/activity.report/internal/vision"
)

var (
	devMode    = flag.Bool("dev", false, "Run with the built-in synthetic capture source")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbPath     = flag.String("db", "", "SQLite database path (overrides config)")
	configPath = flag.String("config", "", "Path to a JSON config file")
	migrations = flag.String("migrations", "", "Run schema migrations from this directory before starting")
)

func main() {
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("ACTIVITY_CONFIG")
	}
	cfg := config.Empty()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", cfgPath, err)
		}
	}

	addr := cfg.GetListenAddr()
	if *listen != "" {
		addr = *listen
	}
	databaseFile := cfg.GetDatabasePath()
	if *dbPath != "" {
		databaseFile = *dbPath
	}

	// Only the synthetic source is built in. Real camera and microphone
	// capture lives behind the same interface in external device backends.
	var source capture.Source
	if *devMode {
		source = capture.NewMockSource(cfg.GetVideoWidth(), cfg.GetVideoHeight(), cfg.GetAudioSampleRate())
	} else {
		log.Fatal("no capture device backend configured; run with -dev to use the synthetic source")
	}
	defer source.Close()

	database, err := db.NewDB(databaseFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *migrations != "" {
		if err := database.MigrateUp(*migrations); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	var classifier classify.Classifier = classify.NewHeuristicClassifier()
	if modelPath := cfg.GetModelPath(); modelPath != "" {
		model, err := classify.LoadSoftmaxModel(modelPath)
		if err != nil {
			log.Fatalf("failed to load model %s: %v", modelPath, err)
		}
		classifier = classify.NewModelClassifier(model)
	}
	log.Printf("classifying with %s mode", classifier.Mode())

	var notifier monitor.Notifier
	if url := cfg.GetNotifyURL(); url != "" {
		notifier = notify.NewClient(url, cfg.GetNotifyAPIKey(), nil)
		log.Printf("forwarding activities to %s", url)
	}

	loop := monitor.NewLoop(source, vision.NewExtractor(cfg.GetVideoWidth(), cfg.GetVideoHeight()),
		audio.NewExtractor(cfg.GetAudioSampleRate()), classifier, database, monitor.Options{
			PollInterval:     cfg.GetPollInterval(),
			ClassifyInterval: cfg.GetClassifyInterval(),
			ErrorBackoff:     cfg.GetErrorBackoff(),
			Notifier:         notifier,
		})

	// Wait group covers the sampling loop and the HTTP server routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the sampling loop to capture, classify, and record activity
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("sampling loop error: %v", err)
		}
		log.Print("sampling loop terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database, timeutil.RealClock{}, classifier.Mode()).ServeMux()
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    addr,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
