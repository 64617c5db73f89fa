package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/edubridge/lti-bridge/internal/config"
	"github.com/edubridge/lti-bridge/internal/lti"
)

func main() {
	cfg := config.FromEnv()

	secrets := lti.StaticSecrets{cfg.ConsumerKey: cfg.ConsumerSecret}
	for k, s := range cfg.ExtraConsumers {
		secrets[k] = s
	}

	verifier := &lti.Verifier{Secrets: secrets}
	if cfg.ReplayGuard {
		verifier.Replay = lti.NewInMemoryReplay(0)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/launch", lti.LaunchHintHandler())
	r.Post("/launch", lti.LaunchHandler(verifier))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	// The pair a consumer needs to sign launches against this provider.
	log.Printf("listening on %s", cfg.HTTPAddr)
	log.Printf("consumer key: %s", cfg.ConsumerKey)
	log.Printf("consumer secret: %s", cfg.ConsumerSecret)

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(s.ListenAndServe())
}
