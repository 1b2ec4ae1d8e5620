/**
 * Feed scanner entry point.
 *
 * Spawns one isolated worker goroutine per device serial. Workers share
 * nothing but the configuration, the classification prompt and the
 * optional stores; a panic or failure on one device never touches the
 * others.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/account"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/classify"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/config"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/device"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/extract"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/feed"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/ocr"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/scanner"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/schedule"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/sink"
)

func main() {
	serialsFlag := flag.String("serials", "", "comma-separated device serials, each optionally SERIAL=host:port")
	resultDir := flag.String("result-dir", "", "artifact output root (overrides RESULT_DIR)")
	ocrLang := flag.String("ocr-lang", "eng", "tesseract language for sponsor detection")
	flag.Parse()

	logger := logging.NewLogger("MAIN")

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	if *resultDir != "" {
		cfg.ResultDir = *resultDir
	}

	serials := parseSerials(*serialsFlag, cfg.DeviceAgentPort)
	if len(serials) == 0 {
		logger.Error("no device serials given, use -serials SERIAL[,SERIAL...]")
		os.Exit(1)
	}

	prompt, err := classify.LoadPrompt(cfg.PromptFile)
	if err != nil {
		logger.Error("classification prompt unavailable", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cache *classify.Cache
	if cfg.RedisURL != "" {
		cache, err = classify.NewCache(cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			logger.Error("classification cache unavailable", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	var index *sink.MatchIndex
	if cfg.DatabaseURL != "" {
		index, err = sink.NewMatchIndex(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("match index unavailable", "error", err)
			os.Exit(1)
		}
		defer index.Close()
	}

	logger.Info("scanner starting", "devices", len(serials), "result_dir", cfg.ResultDir)

	var wg sync.WaitGroup
	for serial, addr := range serials {
		wg.Add(1)
		go func(serial, addr string) {
			defer wg.Done()
			runWorker(ctx, serial, addr, cfg, prompt, *ocrLang, cache, index, logger)
		}(serial, addr)
	}
	wg.Wait()
	logger.Info("all workers stopped")
}

// parseSerials splits the -serials flag into serial -> agent address.
// A bare serial is assumed reachable on its own host at the default
// agent port.
func parseSerials(raw string, defaultPort int) map[string]string {
	serials := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if serial, addr, ok := strings.Cut(entry, "="); ok {
			serials[serial] = addr
			continue
		}
		serials[entry] = fmt.Sprintf("%s:%d", entry, defaultPort)
	}
	return serials
}

// runWorker builds and runs one device worker. Panics are contained so
// a broken device cannot take down its siblings.
func runWorker(ctx context.Context, serial, addr string, cfg *config.Config,
	prompt, ocrLang string, cache *classify.Cache, index *sink.MatchIndex, root *logging.Logger) {

	logger := root.Child(serial)
	logger.Info("worker session", "session_id", uuid.NewString(), "addr", addr)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panicked", "panic", r)
		}
	}()

	dev, err := device.DialUIAutomator(serial, addr, logger)
	if err != nil {
		logger.Error("device unreachable", "addr", addr, "error", err)
		return
	}

	entries, err := schedule.Load(cfg.DeviceScheduleFile, cfg.RegionEmailsFile, serial, logger)
	if err != nil {
		logger.Error("schedule unavailable", "error", err)
		return
	}

	classifier, err := classify.NewClassifier(ctx, classify.Config{
		Serial:        serial,
		APIKey:        cfg.GeminiAPIKey,
		Model:         cfg.GeminiModel,
		Prompt:        prompt,
		ProxyURL:      cfg.ProxyURL,
		MinConfidence: cfg.MinConfidence,
	}, cache, logger)
	if err != nil {
		logger.Error("classifier construction failed", "error", err)
		return
	}

	nodes := device.NewNodes(dev)
	matcher := ocr.NewMatcher(ocr.NewTesseractEngine(ocrLang), logger)
	trav, err := feed.NewTraverser(dev, nodes, matcher, logger, cfg.ActionPause, cfg.BackRetries)
	if err != nil {
		logger.Error("traverser construction failed", "error", err)
		return
	}

	s := scanner.New(scanner.Deps{
		Serial:     serial,
		Config:     cfg,
		Device:     dev,
		App:        device.NewGoogleApp(dev, 2*time.Second),
		Traverser:  trav,
		Accounts:   account.NewSwitcher(dev, nodes, trav, logger),
		Extractor:  extract.NewExtractor(nodes, matcher, trav, logger),
		Classifier: classifier,
		Store:      sink.NewSink(cfg.ResultDir, index, logger),
		Entries:    entries,
		Logger:     logger,
	})

	if err := s.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped with error", "error", err)
	}
}
