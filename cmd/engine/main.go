package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"leadsniper-engine/internal/config"
	"leadsniper-engine/internal/cooldown"
	"leadsniper-engine/internal/dispatch"
	"leadsniper-engine/internal/domain"
	"leadsniper-engine/internal/errkind"
	"leadsniper-engine/internal/events"
	"leadsniper-engine/internal/feed"
	"leadsniper-engine/internal/httpapi"
	"leadsniper-engine/internal/monitor"
	"leadsniper-engine/internal/qualify"
	"leadsniper-engine/internal/reddit"
	"leadsniper-engine/internal/retry"
	"leadsniper-engine/internal/secrets"
	"leadsniper-engine/internal/supervisor"
)

func main() {
	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("LEADSNIPER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// .env is optional; real deployments use environment or keychain
	_ = godotenv.Load()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		log.Fatalf("config invalid (%s): %s", userCfgPath, strings.Join(validation.Errors, "; "))
	}

	if cfg.App.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filepath.Join(dataDir, cfg.App.LogFile),
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}))
	}

	// one engine per data dir, or two instances double-notify every lead
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock file: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance already holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	creds := secrets.LoadCredentials()
	if err := creds.Validate(cfg.Reddit.Enabled); err != nil {
		log.Fatalf("startup: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub()
	store := cooldown.New()
	go store.StartSweeper(ctx, cfg.CooldownSweep())

	gate := qualify.NewOpenAIGate(creds.OpenAIKey, "", cfg.Classifier.Model, retry.Policy{
		Attempts: cfg.Classifier.MaxAttempts,
		Base:     cfg.ClassifierBackoff(),
		Max:      time.Minute,
	})
	sender := dispatch.NewDiscord(creds.DiscordWebhookURL, retry.Policy{
		Attempts: cfg.Dispatch.MaxAttempts,
		Base:     cfg.DispatchBackoff(),
		Max:      time.Minute,
	})

	pipeline := &monitor.Pipeline{
		Keywords: cfg.Filter.Keywords,
		Cooldown: store,
		TTL:      cfg.CooldownTTL(),
		Gate:     gate,
		Sender:   sender,
		Hub:      hub,
	}

	var units []supervisor.Unit

	if cfg.Reddit.Enabled {
		client := reddit.NewClient(creds.RedditClientID, creds.RedditClientSecret, cfg.Reddit.UserAgent)
		if err := client.Authenticate(ctx); err != nil {
			if errkind.Is(err, errkind.Fatal) {
				log.Fatalf("reddit auth: %v", err)
			}
			// transient; the stream units retry through the supervisor
			log.Printf("[engine] reddit auth not confirmed at startup: %v", err)
		}

		subs := cfg.Reddit.Subreddits
		submissions := &monitor.StreamMonitor{
			Name: "reddit-submissions",
			Stream: reddit.NewStream(func(ctx context.Context) ([]domain.Candidate, error) {
				return client.NewSubmissions(ctx, subs)
			}),
			Pipeline: pipeline,
			Interval: cfg.RedditPoll(),
		}
		comments := &monitor.StreamMonitor{
			Name: "reddit-comments",
			Stream: reddit.NewStream(func(ctx context.Context) ([]domain.Candidate, error) {
				return client.NewComments(ctx, subs)
			}),
			Pipeline: pipeline,
			Interval: cfg.RedditPoll(),
		}
		units = append(units,
			supervisor.Unit{Name: submissions.Name, Run: submissions.Run},
			supervisor.Unit{Name: comments.Name, Run: comments.Run},
		)
	}

	if cfg.Feeds.Enabled {
		feeds := &monitor.FeedMonitor{
			Name:     "feed-poller",
			Poller:   feed.NewPoller(cfg.Feeds.URLs),
			Pipeline: pipeline,
			Interval: cfg.FeedPoll(),
		}
		units = append(units, supervisor.Unit{Name: feeds.Name, Run: feeds.Run})
	}

	sup := supervisor.New(supervisor.Config{
		BackoffBase: cfg.SupervisorBackoff(),
		BackoffMax:  cfg.SupervisorBackoffMax(),
	}, hub)

	startedAt := time.Now()
	if cfg.App.HTTPAddr != "" {
		srv := &http.Server{
			Addr: cfg.App.HTTPAddr,
			Handler: httpapi.NewMux(httpapi.Deps{
				Hub: hub,
				Status: func() httpapi.Status {
					return httpapi.Status{
						StartedAt:       startedAt,
						UptimeSeconds:   int64(time.Since(startedAt).Seconds()),
						Restarts:        sup.Restarts(),
						LeadsDispatched: pipeline.Dispatched(),
						CooldownEntries: store.Len(),
					}
				},
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("[engine] status server on http://%s", cfg.App.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[engine] status server: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shCtx)
		}()
	}

	log.Printf("[engine] lead sniper started")
	log.Printf("[engine] subreddits: %s", strings.Join(cfg.Reddit.Subreddits, ", "))
	log.Printf("[engine] trigger keywords: %s", strings.Join(cfg.Filter.Keywords, ", "))
	log.Printf("[engine] cooldown: %s, feed poll: %s", cfg.CooldownTTL(), cfg.FeedPoll())

	if err := sup.Run(ctx, units); err != nil {
		log.Printf("[engine] fatal: %v", err)
		_ = lock.Unlock()
		os.Exit(1)
	}
	log.Printf("[engine] clean shutdown")
}
