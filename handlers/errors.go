package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/camden-git/contactbook/views"
)

// renderError writes an HTML error page with the given HTTP status.
func (h *ContactHandler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, views.Error(views.ErrorPage{
		Base:    h.base(),
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	}))
}

// serverError logs err and answers 500. The cause is not shown to the client.
func (h *ContactHandler) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong, please try again.")
}

// NotFound renders the 404 page. It is also the router's NotFound handler.
func (h *ContactHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "The page or contact you asked for does not exist.")
}

// MethodNotAllowed renders the 405 page.
func (h *ContactHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, "")
}
