package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/cli"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/restapi"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/broadcast"
	"github.com/niksmo/storefront/internal/core/discovery"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
	"golang.org/x/text/language"
)

const retryBaseDelay = 200 * time.Millisecond

type App struct {
	ctx context.Context
	cfg config.Config

	kv      storage.KV
	bus     *broadcast.Bus
	watcher port.StorageWatcher
	api     *restapi.Client
	events  port.SearchEventsCloser
	service *service.Storefront
}

// New builds every adapter and the storefront service. A search events
// pipeline that cannot be set up is replaced by a no-op one; everything
// else is required.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()

	steps := []func() error{
		app.initStorage,
		app.initAPIClient,
		app.initSearchEvents,
		app.initCoreService,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() error {
	const op = "App.initStorage"
	path := app.cfg.Storage.Path

	kv, err := storage.Open(app.ctx, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	app.kv = kv
	app.bus = broadcast.New()

	if !app.cfg.Storage.Watch {
		return nil
	}
	watcher, err := storage.NewWatcher(path, kv, app.bus)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	app.watcher = watcher
	return nil
}

func (app *App) initAPIClient() error {
	const op = "App.initAPIClient"
	apiCfg := app.cfg.API

	client, err := restapi.New(
		apiCfg.BaseURL,
		restapi.TimeoutOpt(apiCfg.RequestTimeout),
		restapi.RetryOpt(apiCfg.RetryAttempts, retry.ExponentialBackoff(retryBaseDelay)),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	app.api = client
	return nil
}

func (app *App) initSearchEvents() error {
	const op = "App.initSearchEvents"
	log := slog.With("op", op)

	app.events = kafka.NoopProducer{}
	if !app.cfg.AnalyticsEnabled() {
		log.Debug("search events disabled")
		return nil
	}

	producer, err := app.newSearchEventsProducer()
	if err != nil {
		log.Warn("search events unavailable", "err", err)
		return nil
	}
	app.events = producer
	return nil
}

func (app *App) newSearchEventsProducer() (kafka.SearchEventsProducer, error) {
	brokerCfg := app.cfg.Broker
	topic := brokerCfg.Topics.SearchEvents

	tlsCfg, err := app.brokerTLS()
	if err != nil {
		return kafka.SearchEventsProducer{}, err
	}

	serde, err := app.searchEventsSerde(app.ctx, tlsCfg)
	if err != nil {
		return kafka.SearchEventsProducer{}, err
	}

	return kafka.NewSearchEventsProducer(
		kafka.ProducerClientOpt(app.ctx, brokerCfg.SeedBrokers, topic, tlsCfg),
		kafka.ProducerEncoderOpt(serde),
	)
}

// tail builds a consumer on the search events topic for one command run.
func (app *App) tail(ctx context.Context) (port.SearchEventsTailer, error) {
	const op = "App.tail"
	brokerCfg := app.cfg.Broker

	tlsCfg, err := app.brokerTLS()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serde, err := app.searchEventsSerde(ctx, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	consumer, err := kafka.NewSearchEventsConsumer(
		kafka.ConsumerClientOpt(
			brokerCfg.SeedBrokers, brokerCfg.Topics.SearchEvents,
			brokerCfg.TailGroup, tlsCfg,
		),
		kafka.ConsumerDecoderOpt(serde),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return consumer, nil
}

func (app *App) brokerTLS() (*tls.Config, error) {
	if !app.cfg.TLSEnabled() {
		return nil, nil
	}
	t := app.cfg.Broker.TLS
	return adapter.TLSFiles{CA: t.CA, Cert: t.Cert, Key: t.Key}.Config()
}

func (app *App) searchEventsSerde(ctx context.Context, tlsCfg *tls.Config) (schema.Serde, error) {
	brokerCfg := app.cfg.Broker

	srOpts := []sr.ClientOpt{sr.URLs(brokerCfg.SchemaRegistryURLs...)}
	if tlsCfg != nil {
		srOpts = append(srOpts, sr.HTTPClient(&http.Client{
			Timeout:   app.cfg.API.RequestTimeout,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		}))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		return nil, err
	}

	return schema.NewSearchEventSerde(
		ctx,
		schema.TopicOpt(brokerCfg.Topics.SearchEvents),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
}

func (app *App) initCoreService() error {
	const op = "App.initCoreService"

	locale, err := language.Parse(app.cfg.Locale)
	if err != nil {
		return fmt.Errorf("%s: locale: %w", op, err)
	}

	app.service = service.New(
		app.api, app.api, app.api, app.kv, app.bus,
		service.WithPipeline(discovery.New(discovery.WithLocale(locale))),
		service.WithPriceCeiling(app.cfg.Catalog.DefaultPriceCeiling),
		service.WithSearchEvents(app.events, app.cfg.Broker.SearchEventsTopN),
	)
	return nil
}

func (app *App) header(
	onBadge func(service.BadgeState), onPresence func(bool),
) (port.BadgeSynchronizer, port.AuthPresenceChecker) {
	badge := service.NewCartBadge(
		app.kv, app.api, app.api, app.bus,
		service.WithBadgeListener(onBadge),
	)
	presence := service.NewAuthPresence(
		app.kv, app.bus,
		service.WithPresenceListener(onPresence),
	)
	return badge, presence
}

// Deps is what the command tree runs against.
func (app *App) Deps() cli.Deps {
	deps := cli.Deps{
		Storefront:    app.service,
		Header:        app.header,
		Signals:       app.bus,
		Watcher:       app.watcher,
		FocusInterval: app.cfg.Badge.FocusInterval,
		PrintConfig:   func(w io.Writer) { app.cfg.Print(w) },
	}
	if app.cfg.AnalyticsEnabled() {
		deps.Tail = app.tail
	}
	return deps
}

func (app *App) Close() {
	slog.Debug("application is closing...")

	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.events != nil {
		app.events.Close()
	}
	app.kv.Close()

	slog.Debug("application is closed")
}
