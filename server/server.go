package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"civic_horizon/generator"
	"civic_horizon/mailer"
)

// Generator is the model-facing side the handlers call.
type Generator interface {
	GenerateVision(ctx context.Context, req generator.VisionRequest) (generator.Vision, error)
	FollowUpQuestions(ctx context.Context, answers generator.Answers) ([]string, error)
	Summarize(ctx context.Context, vision string) (generator.Summary, error)
	GenerateImage(ctx context.Context, req generator.ImageRequest) (generator.Image, error)
}

// Mailer delivers a vision by email.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Options bounds each request.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

const (
	defaultRequestTimeout = 120 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

type Server struct {
	gen  Generator
	mail Mailer
	log  zerolog.Logger
	opts Options
}

func New(gen Generator, mail Mailer, log zerolog.Logger, opts Options) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator agent required")
	}
	if mail == nil {
		return nil, errors.New("mailer required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{gen: gen, mail: mail, log: log, opts: opts}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDHeader)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generateManifesto", s.handleGenerateVision)
		r.Post("/generateVision", s.handleGenerateVision)
		r.Post("/generateImage", s.handleGenerateImage)
		r.Post("/getFollowUpQuestions", s.handleFollowUpQuestions)
		r.Post("/summarizeVision", s.handleSummarizeVision)
		r.Post("/sendEmail", s.handleSendEmail)
	})
	return r
}

// callContext bounds the provider calls of one request.
func (s *Server) callContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
}
