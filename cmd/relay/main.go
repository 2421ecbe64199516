package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/logging"
	"github.com/emmaarthur191/coastal-project-sub004/internal/relay"
)

func main() {
	var (
		addr     string
		logLevel string
		users    []string
	)
	root := &cobra.Command{
		Use:          "relay",
		Short:        "In-memory development backend for coastal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			srv := relay.NewServer(log)
			for _, entry := range users {
				u, err := parseUser(entry)
				if err != nil {
					return err
				}
				srv.AddUser(u)
			}
			return serve(cmd.Context(), addr, accessLog(log, srv.Handler()), log)
		},
	}
	root.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	root.Flags().StringSliceVar(&users, "user", nil, `seed a directory entry, e.g. --user "u1=Ama Mensah"`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	hs := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.Info("relay listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// parseUser reads "id=First Last".
func parseUser(entry string) (domain.User, error) {
	id, name, ok := strings.Cut(entry, "=")
	if !ok || id == "" {
		return domain.User{}, fmt.Errorf("bad --user %q, want id=First Last", entry)
	}
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return domain.User{ID: domain.UserID(id), FirstName: first, LastName: last}, nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func accessLog(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ws/") {
			// The upgrade hijacks the connection; the hub logs socket sessions.
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Int("bytes", sw.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
