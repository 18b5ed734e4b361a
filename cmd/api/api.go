package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"stash/internal/payments"
	"stash/internal/ratelimiter"
)

type application struct {
	config      config
	logger      *zap.SugaredLogger
	payments    *payments.Manager
	rateLimiter ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	frontendURL string
	testMode    bool
	currency    string
	providers   providersConfig
	rateLimiter ratelimiter.Config
}

type providersConfig struct {
	ozow     ozowConfig
	payfast  payfastConfig
	paystack paystackConfig
}

type ozowConfig struct {
	siteCode   string
	apiKey     string
	privateKey string
}

type payfastConfig struct {
	merchantID  string
	merchantKey string
	passphrase  string
}

type paystackConfig struct {
	secretKey string
}

// secretsFor assembles the per-call credentials bag from the
// environment-backed provider config.
func (app *application) secretsFor(provider payments.Provider) payments.Secrets {
	switch provider {
	case payments.ProviderOzow:
		return payments.Secrets{
			SiteCode:   app.config.providers.ozow.siteCode,
			APIKey:     app.config.providers.ozow.apiKey,
			PrivateKey: app.config.providers.ozow.privateKey,
		}
	case payments.ProviderPayfast:
		return payments.Secrets{
			MerchantID:  app.config.providers.payfast.merchantID,
			MerchantKey: app.config.providers.payfast.merchantKey,
			Passphrase:  app.config.providers.payfast.passphrase,
		}
	case payments.ProviderPaystack:
		return payments.Secrets{
			PaystackSecretKey: app.config.providers.paystack.secretKey,
		}
	default:
		return payments.Secrets{}
	}
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", app.createPaymentHandler)
			r.Get("/{provider}/{reference}", app.verifyPaymentHandler)
		})

		r.Post("/webhooks/{provider}", app.webhookHandler)
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
