package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/navantesolutions/gagateway/config"
	"github.com/navantesolutions/gagateway/internal/admin"
	"github.com/navantesolutions/gagateway/internal/analytics"
	"github.com/navantesolutions/gagateway/internal/auditlog"
	"github.com/navantesolutions/gagateway/internal/gateway"
	"github.com/navantesolutions/gagateway/internal/hub"
	"github.com/navantesolutions/gagateway/internal/logging"
	"github.com/navantesolutions/gagateway/internal/meter"
	"github.com/navantesolutions/gagateway/internal/report"
	"github.com/navantesolutions/gagateway/internal/store"
	"github.com/navantesolutions/gagateway/internal/tui"
)

func printHelp() {
	fmt.Fprintf(os.Stderr, `gagateway - read-only HTTP gateway over the Google Analytics 4 Data API.

USAGE
  gagateway [OPTIONS]

OPTIONS
  -f, -config PATH     Config file path. Default: config.yaml, or GAGW_CONFIG env.
  -tui                 Start the interactive request monitor.
  -hot-reload          Watch config file and reload on change. Without this, use [F2 R] in TUI or restart.
  -use-db              Persist failed requests to SQLite at ./data/gagateway.db (creates dir if needed).
  -use-file-log PATH   Persist failed requests to a JSONL file at PATH. Ignored if -use-db is set.
  -h, -help            Show this help and exit.

ENVIRONMENT
  GA4_PROPERTY_ID                 GA4 property to query (required).
  GOOGLE_APPLICATION_CREDENTIALS  Service account key file; application default credentials otherwise.
  PORT                            Gateway port; overrides gateway.listen.
  GAGW_CONFIG                     Config file path when -f is not set.
  GAGW_FILE_LOG                   Same as -use-file-log.
  GAGW_GATEWAY_LISTEN             Override gateway.listen.
  GAGW_SERVER_LISTEN              Override server.listen.
  LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_FILE
                                  Logger settings.

  A .env file in the working directory is loaded first when present.

EXAMPLES
  gagateway
  gagateway -f ./config/prod.yaml
  gagateway -tui -hot-reload
  gagateway -use-db
  gagateway -use-file-log=ga-failures.jsonl -tui
`)
}

// tuiWriter routes log output into the monitor's dashboard pane.
type tuiWriter struct {
	p *tea.Program
}

func (tw *tuiWriter) Write(p []byte) (n int, err error) {
	if tw.p != nil {
		tw.p.Send(tui.LogMsg(string(p)))
	}
	return len(p), nil
}

func main() {
	flag.Usage = printHelp
	for _, arg := range os.Args[1:] {
		if arg == "-h" || arg == "--help" {
			printHelp()
			os.Exit(0)
		}
	}
	var configPath string
	flag.StringVar(&configPath, "f", "", "Path to config file (default: config.yaml or GAGW_CONFIG)")
	flag.StringVar(&configPath, "config", "", "Path to config file (same as -f)")
	hotReload := flag.Bool("hot-reload", false, "Watch config file and reload on change")
	useTUI := flag.Bool("tui", false, "Enable interactive TUI monitor")
	useDB := flag.Bool("use-db", false, "Persist failed requests to SQLite at ./data/gagateway.db")
	useFileLog := flag.String("use-file-log", "", "Persist failed requests to JSONL file at PATH (ignored if -use-db)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("gagateway: .env: %v", err)
	}

	if configPath == "" {
		configPath = os.Getenv("GAGW_CONFIG")
	}
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		logrus.Fatalf("gagateway: load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("gagateway: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("gagateway: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := analytics.NewClient(ctx, analytics.Config{
		PropertyID:      cfg.Analytics.PropertyID,
		CredentialsFile: cfg.Analytics.CredentialsFile,
		Endpoint:        cfg.Analytics.Endpoint,
	})
	if err != nil {
		logger.Fatalf("gagateway: %v", err)
	}

	st := store.NewStore()
	reg := prometheus.NewRegistry()
	m := meter.New(st, reg)
	hb := hub.NewBroadcaster()

	svc := report.NewService(client,
		report.WithDefaultDays(cfg.Analytics.DefaultDays),
		report.WithTimeout(cfg.Analytics.Timeout),
		report.WithObserver(m),
	)
	gw := gateway.New(cfg, svc, m, hb, logger)

	failLog := openFailureLog(logger, *useDB, *useFileLog)
	if failLog != nil {
		defer failLog.Close()
	}

	var tuiRequestChan chan hub.RequestEvent
	if *useTUI {
		tuiRequestChan = make(chan hub.RequestEvent, 100)
	}
	go func() {
		for ev := range hb.RequestChan() {
			if failLog != nil {
				failLog.Append(ev)
			}
			if tuiRequestChan != nil {
				select {
				case tuiRequestChan <- ev:
				default:
				}
			}
		}
	}()

	reload := func() bool {
		newCfg, err := loadConfig(configPath)
		if err == nil {
			err = newCfg.Validate()
		}
		if err != nil {
			logger.WithError(err).Error("gagateway: reload config")
			return false
		}
		gw.UpdateConfig(newCfg)
		logger.Info("gagateway: config reloaded")
		return true
	}
	if *hotReload {
		go watchConfig(ctx, configPath, logger, reload)
	}

	gatewayServer := &http.Server{
		Addr:              cfg.Gateway.Listen,
		Handler:           gw,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverMux := http.NewServeMux()
	serverMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	serverMux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	serverMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	admin.New(st, gw, "/api/admin").Register(serverMux)
	opsServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           serverMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("gagateway: gateway listening on %s (property %s)", cfg.Gateway.Listen, cfg.Analytics.PropertyID)
		if err := gatewayServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("gagateway: gateway: %v", err)
		}
	}()
	go func() {
		logger.Infof("gagateway: ops server listening on %s (health, metrics, admin)", cfg.Server.Listen)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("gagateway: ops server: %v", err)
		}
	}()

	if *useTUI {
		tuiModel := tui.NewModel(reload, configPath, *hotReload)
		p := tea.NewProgram(tuiModel, tea.WithAltScreen(), tea.WithContext(ctx))
		logger.SetOutput(&tuiWriter{p: p})

		since := func() time.Time { return time.Now().Add(-1 * time.Hour) }
		collector := hub.NewCollector(hb, 2*time.Second, func() hub.SystemStats {
			total, byView := m.StatsSince(since())
			failures, rateLimited := gw.Stats()
			return hub.SystemStats{
				TotalRequests:    total,
				AvgLatency:       m.AvgLatencySince(since()),
				UpstreamFailures: failures,
				RateLimited:      rateLimited,
				ByView:           byView,
			}
		})
		collector.Start()
		defer collector.Stop()

		go func() {
			for s := range hb.StatsChan() {
				p.Send(s)
			}
		}()
		go func() {
			for ev := range tuiRequestChan {
				p.Send(ev)
			}
		}()

		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		}
		logger.SetOutput(os.Stdout)
	} else {
		<-ctx.Done()
	}

	shutdown(logger, gatewayServer, opsServer)
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) {
		logrus.Infof("gagateway: config file not found: %s (using defaults and environment)", path)
		return config.Default()
	}
	return config.Load(path)
}

// openFailureLog picks the failed-request sink: SQLite with -use-db, else a
// JSONL file from -use-file-log or GAGW_FILE_LOG. A nil result disables it.
func openFailureLog(logger *logrus.Logger, useDB bool, fileLog string) auditlog.Logger {
	path := fileLog
	if useDB {
		dbPath := "data/gagateway.db"
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			logger.WithError(err).Warn("gagateway: could not create data dir for -use-db")
			return nil
		}
		path = "sqlite:" + dbPath
	} else if path == "" {
		path = os.Getenv("GAGW_FILE_LOG")
	}
	l, err := auditlog.New(path)
	if err != nil {
		logger.WithError(err).Warn("gagateway: failure log disabled")
		return nil
	}
	if l != nil {
		logger.Infof("gagateway: failed requests logged to %s", path)
	}
	return l
}

// watchConfig polls the config file and reloads it when its mtime moves.
func watchConfig(ctx context.Context, path string, logger *logrus.Logger, reload func() bool) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	lastMod := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(lastMod) {
			logger.Infof("gagateway: %s changed, reloading", path)
			if reload() {
				lastMod = info.ModTime()
			}
		}
	}
}

func shutdown(logger *logrus.Logger, servers ...*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warnf("gagateway: shutdown %s", srv.Addr)
		}
	}
	logger.Info("gagateway: stopped")
}
