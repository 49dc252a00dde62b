package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	"github.com/nothingonline/nightscouter-settings/bundle"
	"github.com/nothingonline/nightscouter-settings/configs"
	"github.com/nothingonline/nightscouter-settings/datastore"
	"github.com/nothingonline/nightscouter-settings/datastore/gorm"
	"github.com/nothingonline/nightscouter-settings/datastore/memory"
	redisstore "github.com/nothingonline/nightscouter-settings/datastore/redis"
	"github.com/nothingonline/nightscouter-settings/handlers"
	"github.com/nothingonline/nightscouter-settings/otel"
	"github.com/nothingonline/nightscouter-settings/settings"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/ratelimit"
	upstreamgorm "gorm.io/gorm"
)

const version = "0.1.0"

const repoURL = "https://github.com/nothingonline/nightscouter-settings"

var (
	sha1ver   string // sha1 revision used to build the program
	buildTime string // when the executable was built
)

func main() {
	var (
		printVersion bool
		envFilePath  string
	)

	// If we should just print the version number and exit
	flag.BoolVar(&printVersion, "version", false, "if true, print version and exit")
	flag.StringVar(&envFilePath, "envfile", "", "optional env file to load before parsing the environment")
	flag.Parse()

	if printVersion {
		fmt.Printf("v%s build on %s from sha1 %s\n", version, buildTime, sha1ver)
		os.Exit(0)
	}

	cfg, err := configs.ParseConfig(&configs.Options{EnvFilePath: envFilePath})
	if err != nil {
		panic(err)
	}

	runServer(cfg)

	os.Exit(0)
}

// backend is the opened persistence backend. db is set for the gorm backend
// only.
type backend struct {
	store datastore.KeyValueStore
	db    *upstreamgorm.DB
	close func()
}

func openBackend(cfg *configs.Config) (*backend, error) {
	switch cfg.BackendType {
	case "gorm":
		db, err := gorm.New(cfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: gorm.NewStore(db, cfg.Namespace),
			db:    db,
			close: func() {
				gorm.Close(db)
				log.Info("Closed database")
			},
		}, nil
	case "redis":
		pool, err := redisstore.NewPool(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store := redisstore.NewStore(pool, cfg.Namespace)
		return &backend{
			store: store,
			close: func() {
				if err := store.Close(); err != nil {
					log.Warn(err)
				}
				log.Info("Closed Redis client")
			},
		}, nil
	case "memory":
		log.Warn("Using the in-memory backend, settings are lost on exit")
		return &backend{store: memory.NewStore(), close: func() {}}, nil
	default:
		return nil, fmt.Errorf("backend type %q not supported", cfg.BackendType)
	}
}

func serviceOptions(cfg *configs.Config) []settings.ServiceOption {
	opts := []settings.ServiceOption{}
	if cfg.FlushMaxRate > 0 {
		opts = append(opts, settings.WithFlushRatelimiter(ratelimit.New(cfg.FlushMaxRate, ratelimit.WithoutSlack)))
	}
	return opts
}

func loadBundleInfo(path string) bundle.Info {
	info, err := bundle.Load(path)
	if err != nil {
		log.WithFields(log.Fields{"error": err, "path": path}).Warn("Bundle info not available")
		return nil
	}
	return info
}

func newRouter(cfg *configs.Config, svc *settings.Service, info bundle.Info) *mux.Router {
	settingsHandler := handlers.NewSettings(svc)
	sitesHandler := handlers.NewSites(svc)

	r := mux.NewRouter()

	if cfg.TracingEnabled {
		r.Use(otelmux.Middleware("nightscouter-settings"))
	}

	// Catch the api version
	rv := r.PathPrefix("/{apiVersion}").Subrouter()

	// Debug
	rv.Handle("/debug", handlers.Debug(repoURL, sha1ver, buildTime)).Methods(http.MethodGet)

	// Health
	rv.HandleFunc("/health/ready", handlers.HandleHealthReady).Methods(http.MethodGet)
	rv.Handle("/health/liveness", handlers.Liveness(func() (interface{}, error) {
		return map[string]interface{}{
			"backend": cfg.BackendType,
			"sites":   len(svc.Sites()),
		}, nil
	})).Methods(http.MethodGet)

	// Settings record
	rv.Handle("/settings", settingsHandler.GetSettings()).Methods(http.MethodGet)
	rv.Handle("/settings", settingsHandler.SetSettings()).Methods(http.MethodPost)

	// Sites
	rv.Handle("/sites", sitesHandler.List()).Methods(http.MethodGet)               // list
	rv.Handle("/sites", sitesHandler.Replace()).Methods(http.MethodPut)            // replace
	rv.Handle("/sites", sitesHandler.Add()).Methods(http.MethodPost)               // add
	rv.Handle("/sites", sitesHandler.Update()).Methods(http.MethodPatch)           // update
	rv.Handle("/sites/sample", sitesHandler.LoadSample()).Methods(http.MethodPost) // load sample
	rv.Handle("/sites/{index}", sitesHandler.Delete()).Methods(http.MethodDelete)  // delete

	// Bundle
	rv.Handle("/bundle", handlers.Bundle(info)).Methods(http.MethodGet)

	return r
}

// newIdempotencyStore returns the configured store and a function releasing
// it.
func newIdempotencyStore(cfg *configs.Config, b *backend) (handlers.IdempotencyStore, func(), error) {
	switch cfg.IdempotencyMiddlewareDatabaseType {
	// Shared SQL/Gorm store (same as the settings backend)
	case handlers.IdempotencyStoreTypeShared.String():
		if b.db == nil {
			return nil, nil, fmt.Errorf("idempotency middleware db set to shared but the backend is %q", cfg.BackendType)
		}
		return handlers.NewIdempotencyStoreGorm(b.db), func() {}, nil
	// Redis, separate from the settings backend
	case handlers.IdempotencyStoreTypeRedis.String():
		if cfg.IdempotencyMiddlewareRedisURL == "" {
			return nil, nil, fmt.Errorf("idempotency middleware db set to redis but Redis URL is empty")
		}
		pool := &redis.Pool{
			MaxIdle:   3,
			MaxActive: 16,
			Dial: func() (redis.Conn, error) {
				return redis.DialURL(cfg.IdempotencyMiddlewareRedisURL)
			},
		}
		client := pool.Get()
		if err := client.Err(); err != nil {
			return nil, nil, err
		}
		return handlers.NewIdempotencyStoreRedis(client), func() {
			log.Info("Closing Redis client..")
			if err := client.Close(); err != nil {
				log.Warn(err)
			}
			if err := pool.Close(); err != nil {
				log.Warn(err)
			}
		}, nil
	case handlers.IdempotencyStoreTypeLocal.String():
		return handlers.NewIdempotencyStoreLocal(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("idempotency middleware db type %q not supported", cfg.IdempotencyMiddlewareDatabaseType)
	}
}

// wrapHandler applies the middleware chain around the router.
func wrapHandler(cfg *configs.Config, r http.Handler, is handlers.IdempotencyStore) http.Handler {
	h := http.TimeoutHandler(r, cfg.ServerRequestTimeout, "request timed out")
	h = handlers.UseCors(h)
	h = handlers.UseLogging(h)
	h = handlers.UseCompress(h)

	if is != nil {
		h = handlers.UseIdempotency(h, handlers.IdempotencyHandlerOptions{
			Expiry: cfg.IdempotencyKeyExpiry,
			// Loading the sample list gives the same result every time
			IgnoreSuffixes: []string{"/sites/sample"},
		}, is)
	}

	return h
}

func runServer(cfg *configs.Config) {
	configs.ConfigureLogger(cfg.LogLevel)

	log.Info("Starting server")

	if cfg.TracingEnabled {
		tp, err := otel.InitTracer(cfg.TracingProjectID, cfg.TracingSampleRatio)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otel.Shutdown(ctx, tp); err != nil {
				log.Warn(err)
			}
			log.Info("Stopped tracer")
		}()
	}

	b, err := openBackend(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer b.close()

	provider := settings.NewProvider(func() (*settings.Service, error) {
		return settings.NewService(b.store, serviceOptions(cfg)...)
	})

	svc, err := provider.Get()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.LoadSampleSites && len(svc.Sites()) == 0 {
		if err := svc.LoadSampleSites(); err != nil {
			log.Warn(err)
		}
		log.Info("Loaded sample sites")
	}

	log.WithFields(log.Fields{"settings": svc.Settings()}).Debug("Settings loaded")

	r := newRouter(cfg, svc, loadBundleInfo(cfg.BundleInfoPath))

	// Setup idempotency key middleware if it's enabled
	var is handlers.IdempotencyStore
	if !cfg.DisableIdempotencyMiddleware {
		var release func()
		is, release, err = newIdempotencyStore(cfg, b)
		if err != nil {
			log.Fatal(err)
		}
		defer release()
	}

	// Server boilerplate
	srv := &http.Server{
		Handler:      wrapHandler(cfg, r, is),
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		WriteTimeout: 0, // Disabled, set cfg.ServerRequestTimeout instead
		ReadTimeout:  0, // Disabled, set cfg.ServerRequestTimeout instead
	}

	// Run our server in a goroutine so that it doesn't block.
	go func() {
		log.
			WithFields(log.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
			}).
			Info("Server listening")
		if err := srv.ListenAndServe(); err != nil {
			log.Warn(err)
		}
	}()

	// Trap interupt and gracefully shutdown the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Block until we receive our signal.
	sig := <-c

	log.Infof("Got signal: %s. Shutting down..", sig)

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("Error in server shutdown: %s", err)
	}

	// Anything not yet durable is flushed one last time.
	if err := svc.Save(); err != nil {
		log.Warn(err)
	}
}
