package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/camden-git/contactbook/media"
)

// AssetServer serves media assets from store. It expects to be routed with
// a trailing wildcard that holds the asset's relative path, e.g.
//
//	r.Get("/media/*", AssetServer(store))
func AssetServer(store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := chi.URLParam(r, "*")
		if relativePath == "" {
			http.NotFound(w, r)
			return
		}
		if strings.Contains(relativePath, "..") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		rc, err := store.Get(relativePath)
		if err != nil {
			if errors.Is(err, media.ErrAssetNotFound) {
				http.NotFound(w, r)
				return
			}
			zerolog.Ctx(r.Context()).Error().Err(err).Str("asset", relativePath).Msg("failed to open asset")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		if f, ok := rc.(*os.File); ok {
			info, err := f.Stat()
			if err == nil {
				if info.IsDir() {
					http.NotFound(w, r)
					return
				}
				http.ServeContent(w, r, info.Name(), info.ModTime(), f)
				return
			}
		}

		if ct := mime.TypeByExtension(path.Ext(relativePath)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		if _, err := io.Copy(w, rc); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("asset", relativePath).Msg("failed to stream asset")
		}
	}
}
