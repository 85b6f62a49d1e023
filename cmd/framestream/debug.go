package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/tsweb"

	"github.com/banshee-data/tailframe/internal/frames"
)

// attachDebugRoutes registers the /debug/ pages and /metrics on mux.
func attachDebugRoutes(mux *http.ServeMux, streams []*frames.Stream, gatherer prometheus.Gatherer) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("streams", "per-stream poll and frame counters", func(w http.ResponseWriter, r *http.Request) {
		stats := make([]frames.Stats, 0, len(streams))
		for _, s := range streams {
			stats = append(stats, s.Stats())
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// serveDebug runs the debug HTTP server until ctx is cancelled.
func serveDebug(ctx context.Context, addr string, streams []*frames.Stream, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	attachDebugRoutes(mux, streams, gatherer)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("debug server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("debug server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("debug server force close error: %v", err)
		}
	}
	return nil
}
