package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/camden-git/contactbook/config"
)

// RouterDeps are the handlers NewRouter mounts. Assets may be nil when the
// media store serves its own URLs (S3).
type RouterDeps struct {
	Contacts *ContactHandler
	API      *ContactsAPI
	Assets   http.Handler
}

// NewRouter builds the application router. Every route lives under
// cfg.URLPrefix.
func NewRouter(cfg config.Config, deps RouterDeps, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	app := chi.NewRouter()
	app.NotFound(deps.Contacts.NotFound)
	app.MethodNotAllowed(deps.Contacts.MethodNotAllowed)

	app.Get("/", deps.Contacts.ContactForm)
	app.Post("/", deps.Contacts.ContactForm)
	app.Get("/list/", deps.Contacts.ListContacts)
	app.Get("/{id:[0-9]+}/", deps.Contacts.ContactForm)
	app.Post("/{id:[0-9]+}/", deps.Contacts.ContactForm)
	app.Post("/delete/{id:[0-9]+}/", deps.Contacts.DeleteContact)

	if deps.Assets != nil && strings.HasPrefix(cfg.MediaURL, "/") {
		app.Get(cfg.MediaURL+"*", deps.Assets.ServeHTTP)
		log.Info().Str("route", cfg.URLPrefix+cfg.MediaURL+"*").Msg("registered media asset server")
	}

	humaCfg := huma.DefaultConfig("Contacts API", "1.0.0")
	humaCfg.OpenAPIPath = "/api/openapi"
	humaCfg.DocsPath = "/api/docs"
	humaCfg.SchemasPath = "/api/schemas"
	// no $schema links, bodies carry the contact keys only
	humaCfg.CreateHooks = nil
	if cfg.URLPrefix != "" {
		humaCfg.Servers = []*huma.Server{{URL: cfg.URLPrefix}}
	}
	api := humachi.New(app, humaCfg)
	huma.AutoRegister(api, deps.API)

	if cfg.URLPrefix == "" {
		r.Mount("/", app)
	} else {
		r.Mount(cfg.URLPrefix, app)
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, cfg.URLPrefix+"/", http.StatusFound)
		})
	}
	return r
}
