package main

import (
	"log/slog"

	govalidator "github.com/go-playground/validator/v10"

	"reelpass/proj/internal/api/tasks"
	"reelpass/proj/internal/clients/catalog"
	"reelpass/proj/internal/config"
	"reelpass/proj/internal/gate"
	"reelpass/proj/internal/provider"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/services/session"
	"reelpass/proj/internal/storage"
	"reelpass/proj/internal/stores"
)

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	validator *govalidator.Validate
	codec     *gate.MarkerCodec
	session   *session.Controller
	profiles  *stores.ProfileStore
	watchlist *stores.CollectionStore
	liked     *stores.CollectionStore
	catalog   *catalog.Client
	bgTasks   *tasks.BackgroundTasks
}

func NewApplication(
	cfg *config.Config,
	log *slog.Logger,
	kv storage.KeyValueStore,
	bus pubsub.Broadcaster,
	walletProvider provider.WalletProvider,
) *Application {
	bgTasks := tasks.New(log, cfg.Tasks.MaxWorkers, cfg.Tasks.MaxQueueSize)
	// Publishes ride the worker pool so a slow broadcast channel never holds a
	// store write; subscriptions stay on the raw bus.
	asyncBus := pubsub.NewAsync(bus, bgTasks.Add)
	accounts := stores.NewAccountStore(log, kv)
	profiles := stores.NewProfileStore(log, kv, asyncBus)
	watchlist := stores.NewCollectionStore(log, kv, asyncBus, "watchlist", stores.WatchKey)
	liked := stores.NewCollectionStore(log, kv, asyncBus, "liked", stores.LikedKey)
	adapter := provider.New(log, walletProvider, accounts)
	sess := session.New(log, adapter, accounts, profiles, watchlist, liked)
	app := &Application{
		cfg:       cfg,
		log:       log,
		validator: govalidator.New(govalidator.WithRequiredStructEnabled()),
		codec:     gate.NewMarkerCodec(cfg.AppSecret, cfg.Session.CookieTTL),
		session:   sess,
		profiles:  profiles,
		watchlist: watchlist,
		liked:     liked,
		catalog: catalog.New(
			log,
			cfg.Catalog.BaseURL,
			cfg.Catalog.ImageBaseURL,
			cfg.Catalog.Token,
			cfg.Catalog.Language,
			cfg.Catalog.Timeout,
		),
		bgTasks: bgTasks,
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
	return app
}

func (app *Application) Close() {
	app.session.Close()
	app.profiles.Close()
	app.watchlist.Close()
	app.liked.Close()
}
