package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-relay/internal/config"
	"contact-relay/internal/factory"
	"contact-relay/internal/util"

	"golang.org/x/sync/errgroup"
)

const serviceName = "contact-relay"

func main() {
	// Initialize factory (which loads config and initializes all clients)
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config()
	router := f.Router(serviceName)

	servers := buildServers(f, cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, servers); err != nil {
		util.Error("Server stopped with error", util.ErrorField(err))
		f.Close()
		os.Exit(1)
	}
}

// servedHTTP pairs a server with how it should listen.
type servedHTTP struct {
	server *http.Server
	useTLS bool
}

func buildServers(f *factory.Factory, cfg *config.Config, router http.Handler) []servedHTTP {
	if !cfg.Server.EnableTLS {
		util.Warn("Starting HTTP server - TLS is disabled",
			util.String("environment", cfg.Environment),
			util.Int("port", cfg.Server.Port),
		)
		return []servedHTTP{{server: newServer(cfg, cfg.GetServerAddress(), router), useTLS: false}}
	}

	tlsManager := f.TLSManager()

	// In production with AutoCert, serve ACME challenges on :80 and the API on :443
	if cfg.IsProduction() && cfg.Server.AutoCert {
		autoCertManager := tlsManager.GetAutocertManager()
		if autoCertManager == nil {
			util.Fatal("AutoCert manager is not available in production")
		}

		httpsServer := newServer(cfg, ":443", router)
		httpsServer.TLSConfig = tlsManager.GetTLSConfig()

		util.Info("Starting HTTPS server with AutoCert on port 443",
			util.String("domain", cfg.Server.Domain),
		)
		return []servedHTTP{
			{server: &http.Server{Addr: ":80", Handler: autoCertManager.HTTPHandler(nil), ReadHeaderTimeout: 5 * time.Second}},
			{server: httpsServer, useTLS: true},
		}
	}

	server := newServer(cfg, fmt.Sprintf(":%d", cfg.Server.TLSPort), router)
	server.TLSConfig = tlsManager.GetTLSConfig()

	util.Info("Starting HTTPS server",
		util.String("environment", cfg.Environment),
		util.Int("port", cfg.Server.TLSPort),
		util.Bool("auto_cert", cfg.Server.AutoCert),
	)
	return []servedHTTP{{server: server, useTLS: true}}
}

func newServer(cfg *config.Config, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// run serves until ctx is cancelled or a server fails, then shuts every
// server down gracefully.
func run(ctx context.Context, servers []servedHTTP) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		s := s
		g.Go(func() error {
			util.Info("Server listening", util.String("address", s.server.Addr), util.Bool("tls", s.useTLS))
			var err error
			if s.useTLS {
				// Certificates come from TLSConfig.GetCertificate.
				err = s.server.ListenAndServeTLS("", "")
			} else {
				err = s.server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", s.server.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		util.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, s := range servers {
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				util.Error("Failed to shutdown server gracefully", util.String("address", s.server.Addr), util.ErrorField(err))
			}
		}
		util.Info("Server shutdown completed")
		return nil
	})

	return g.Wait()
}
