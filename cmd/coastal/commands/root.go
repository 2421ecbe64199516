package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/app"
	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/logging"
)

var (
	cfgFile     string
	home        string
	passphrase  string
	logLevel    string
	metricsAddr string
	baseURL     string
	userID      string

	wire    *app.Wire
	metrics *http.Server
)

func Execute() error {
	root := &cobra.Command{
		Use:           "coastal",
		Short:         "Encrypted staff chat and calls",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg)

			if cfg.Home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfg.Home = filepath.Join(dir, ".coastal")
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}

			log, err := logging.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			var reg prometheus.Registerer
			if cfg.MetricsAddr != "" {
				r := prometheus.NewRegistry()
				r.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				reg = r
				metrics = serveMetrics(cfg.MetricsAddr, r, log)
			}

			wire, err = app.NewWire(cfg, log, reg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if metrics != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = metrics.Shutdown(ctx)
			}
			if wire != nil {
				_ = wire.Log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.StringVar(&home, "home", "", "config dir (default ~/.coastal)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity key")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	pf.StringVar(&baseURL, "url", "", "backend base URL, e.g. http://127.0.0.1:8080")
	pf.StringVar(&userID, "user", "", "your user id")

	root.AddCommand(initCmd(), fingerprintCmd(), publishCmd(), chatCmd(), callCmd(), listenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

// applyFlags lets explicitly set flags win over file and environment.
func applyFlags(cmd *cobra.Command, cfg *app.Config) {
	f := cmd.Flags()
	if f.Changed("home") {
		cfg.Home = home
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if f.Changed("url") {
		cfg.BaseURL = baseURL
	}
	if f.Changed("user") {
		cfg.UserID = domain.UserID(userID)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return srv
}

func requirePassphrase() error {
	if passphrase == "" {
		return errors.New("passphrase required (-p)")
	}
	return nil
}
