// Command tidemarkd runs the asynchronous data-lifecycle daemon: the bus
// callback endpoint, the wipe orchestrator behind it and the object store
// gateway they share.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tidemark-io/tidemark/bolt"
	"github.com/tidemark-io/tidemark/bus"
	"github.com/tidemark-io/tidemark/document"
	"github.com/tidemark-io/tidemark/kit/cli"
	kithttp "github.com/tidemark-io/tidemark/kit/transport/http"
	"github.com/tidemark-io/tidemark/lifecycle"
	"github.com/tidemark-io/tidemark/logger"
	"github.com/tidemark-io/tidemark/storage"
)

var flags struct {
	logLevel        string
	httpBindAddress string
	boltPath        string

	trustedTopic     string
	handshakeTimeout time.Duration

	s3Endpoint       string
	s3PublicEndpoint string
	s3Region         string
	s3AccessKey      string
	s3SecretKey      string
	s3Bucket         string
	s3PathStyle      bool

	objectTTLDays int
	tileCacheTTL  time.Duration
}

func main() {
	prog := &cli.Program{
		Name: "tidemarkd",
		Run:  run,
		Opts: []cli.Opt{
			{DestP: &flags.logLevel, Flag: "log-level", Default: "info", Desc: "supported log levels are debug, info, warn and error"},
			{DestP: &flags.httpBindAddress, Flag: "http-bind-address", Default: ":8086", Desc: "bind address for the HTTP surface"},
			{DestP: &flags.boltPath, Flag: "bolt-path", Default: "tidemark.bolt", Desc: "path to the boltdb file"},
			{DestP: &flags.trustedTopic, Flag: "trusted-topic", Default: "", Desc: "the single bus topic identifier this deployment accepts"},
			{DestP: &flags.handshakeTimeout, Flag: "handshake-timeout", Default: 10 * time.Second, Desc: "timeout for the outbound bus handshake confirmation"},
			{DestP: &flags.s3Endpoint, Flag: "s3-endpoint", Default: "", Desc: "object store endpoint URL"},
			{DestP: &flags.s3PublicEndpoint, Flag: "s3-public-endpoint", Default: "", Desc: "public base URL for canonical object URLs"},
			{DestP: &flags.s3Region, Flag: "s3-region", Default: "us-east-1", Desc: "object store region"},
			{DestP: &flags.s3AccessKey, Flag: "s3-access-key", Default: "", Desc: "object store access key"},
			{DestP: &flags.s3SecretKey, Flag: "s3-secret-key", Default: "", Desc: "object store secret key"},
			{DestP: &flags.s3Bucket, Flag: "s3-bucket", Default: "tidemark-assets", Desc: "default asset bucket"},
			{DestP: &flags.s3PathStyle, Flag: "s3-path-style", Default: true, Desc: "use path-style bucket addressing"},
			{DestP: &flags.objectTTLDays, Flag: "object-ttl-days", Default: 1, Desc: "lifecycle expiration applied when wiping workspace objects"},
			{DestP: &flags.tileCacheTTL, Flag: "tile-cache-ttl", Default: time.Hour, Desc: "cache-control max-age applied to uploaded objects"},
		},
	}

	cmd := cli.NewCommand(prog)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	log := logger.New(os.Stdout, logger.ParseLevel(flags.logLevel))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.trustedTopic == "" {
		return fmt.Errorf("a trusted topic identifier is required")
	}

	store := bolt.NewKVStore(flags.boltPath)
	store.WithLogger(log.With(zap.String("service", "bolt")))
	if err := store.Open(ctx); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	docStore := document.NewStore(store)

	objStore, err := storage.NewS3Store(ctx, storage.Config{
		Endpoint:       flags.s3Endpoint,
		PublicEndpoint: flags.s3PublicEndpoint,
		Region:         flags.s3Region,
		AccessKey:      flags.s3AccessKey,
		SecretKey:      flags.s3SecretKey,
		Bucket:         flags.s3Bucket,
		TileCacheTTL:   flags.tileCacheTTL,
		UsePathStyle:   flags.s3PathStyle,
	}, log.With(zap.String("service", "storage")))
	if err != nil {
		return err
	}

	orch := lifecycle.NewOrchestrator(
		log.With(zap.String("service", "lifecycle")),
		docStore,
		objStore,
		lifecycle.NewStateStore(store),
		lifecycle.WithObjectTTLDays(flags.objectTTLDays),
	)

	wipeHandler := lifecycle.NewWipeHandler(log.With(zap.String("handler", "wipe")), orch)
	busHandler := bus.NewHandler(
		log.With(zap.String("handler", "bus")),
		bus.StaticTopicVerifier{TopicID: flags.trustedTopic},
		flags.handshakeTimeout,
		wipeHandler,
	)

	reg := prometheus.NewRegistry()
	reqMetric := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tidemark",
		Subsystem: "http",
		Name:      "api_requests_total",
		Help:      "Number of HTTP requests received.",
	}, []string{"handler", "method", "path", "status", "response_code"})
	durMetric := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tidemark",
		Subsystem: "http",
		Name:      "api_request_duration_seconds",
		Help:      "Time taken to respond to HTTP requests.",
	}, []string{"handler", "method", "path", "status", "response_code"})
	reg.MustRegister(reqMetric, durMetric)
	reg.MustRegister(busHandler.PrometheusCollectors()...)
	reg.MustRegister(orch.PrometheusCollectors()...)

	r := chi.NewRouter()
	r.Method(http.MethodPost, "/api/v1/events",
		kithttp.Metrics("events", reqMetric, durMetric)(busHandler))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	srv := &http.Server{
		Addr:    flags.httpBindAddress,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("addr", flags.httpBindAddress))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	log.Info("Shutting down")
	return srv.Shutdown(shutdownCtx)
}
