// Package router implements the local HTTP facade: every request becomes a
// store action, and the cached user list is served without an upstream call.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/userfront/internal/apiclient"
	"github.com/patric-chuzhbe/userfront/internal/logger"
	"github.com/patric-chuzhbe/userfront/internal/models"
	"github.com/patric-chuzhbe/userfront/internal/settings"
	"github.com/patric-chuzhbe/userfront/internal/store"
	"github.com/patric-chuzhbe/userfront/internal/user"
)

type usersReader interface {
	Users() []user.User
	Len() int
	Status() store.Status
}

type usersSyncer interface {
	FetchUsers(ctx context.Context) ([]user.User, error)
	CreateUser(ctx context.Context, payload user.Payload) (user.User, error)
	UpdateUser(ctx context.Context, id int, patch user.Patch) (user.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type usersStore interface {
	usersReader
	usersSyncer
}

type localeKeeper interface {
	Locale() string
	SetLocale(locale string) error
	Negotiate(cookie, acceptLanguage string) string
}

type Router struct {
	store    usersStore
	settings localeKeeper
}

// New builds the facade handler.
func New(usersStore usersStore, localeKeeper localeKeeper) http.Handler {
	r := &Router{
		store:    usersStore,
		settings: localeKeeper,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		middleware.Compress(5, "application/json"),
		r.negotiateLocale,
	)

	router.Get(`/ping`, r.GetPing)
	router.Route(`/api`, func(api chi.Router) {
		api.Get(`/users`, r.GetApiusers)
		api.Post(`/users`, r.PostApiusers)
		api.Post(`/users/sync`, r.PostApiuserssync)
		api.Put(`/users/{id}`, r.PutApiusersID)
		api.Delete(`/users/{id}`, r.DeleteApiusersID)
		api.Get(`/status`, r.GetApistatus)
		api.Get(`/settings/locale`, r.GetApisettingslocale)
		api.Put(`/settings/locale`, r.PutApisettingslocale)
	})

	return router
}

func (r *Router) negotiateLocale(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		var cookieValue string
		if cookie, err := req.Cookie(settings.LocaleCookieName); err == nil {
			cookieValue = cookie.Value
		}

		locale := r.settings.Negotiate(cookieValue, req.Header.Get("Accept-Language"))
		res.Header().Set("Content-Language", locale)

		h.ServeHTTP(res, req.WithContext(settings.WithLocale(req.Context(), locale)))
	})
}

func (r *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
}

// GetApiusers serves the cached list; it never calls the remote API.
func (r *Router) GetApiusers(res http.ResponseWriter, req *http.Request) {
	writeEnvelope(res, http.StatusOK, models.UserList(r.store.Users()))
}

func (r *Router) PostApiuserssync(res http.ResponseWriter, req *http.Request) {
	users, err := r.store.FetchUsers(req.Context())
	if err != nil {
		writeStoreError(res, req, err)
		return
	}

	writeEnvelope(res, http.StatusOK, models.UserList(users))
}

func (r *Router) PostApiusers(res http.ResponseWriter, req *http.Request) {
	var payload user.Payload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeFailure(res, req, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	created, err := r.store.CreateUser(req.Context(), payload)
	if err != nil {
		writeStoreError(res, req, err)
		return
	}

	writeEnvelope(res, http.StatusCreated, created)
}

func (r *Router) PutApiusersID(res http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(req, "id"))
	if err != nil {
		writeFailure(res, req, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var patch user.Patch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		writeFailure(res, req, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	updated, err := r.store.UpdateUser(req.Context(), id, patch)
	if err != nil {
		writeStoreError(res, req, err)
		return
	}

	writeEnvelope(res, http.StatusOK, updated)
}

func (r *Router) DeleteApiusersID(res http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(req, "id"))
	if err != nil {
		writeFailure(res, req, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := r.store.DeleteUser(req.Context(), id); err != nil {
		writeStoreError(res, req, err)
		return
	}

	writeEnvelope[any](res, http.StatusOK, nil)
}

func (r *Router) GetApistatus(res http.ResponseWriter, req *http.Request) {
	writeEnvelope(res, http.StatusOK, models.StatusResponse{
		Status: string(r.store.Status()),
		Count:  r.store.Len(),
	})
}

func (r *Router) GetApisettingslocale(res http.ResponseWriter, req *http.Request) {
	writeEnvelope(res, http.StatusOK, models.LocaleResponse{
		Locale:    r.settings.Locale(),
		Supported: settings.SupportedLocales,
	})
}

func (r *Router) PutApisettingslocale(res http.ResponseWriter, req *http.Request) {
	var request models.LocaleRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		writeFailure(res, req, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	if err := r.settings.SetLocale(request.Locale); err != nil {
		writeFailure(res, req, http.StatusBadRequest, msgUnsupportedLocale, nil)
		return
	}

	http.SetCookie(res, &http.Cookie{
		Name:     settings.LocaleCookieName,
		Value:    request.Locale,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeEnvelope(res, http.StatusOK, models.LocaleResponse{
		Locale:    r.settings.Locale(),
		Supported: settings.SupportedLocales,
	})
}

func writeEnvelope[T any](res http.ResponseWriter, status int, data T) {
	writeJSON(res, status, models.Envelope[T]{
		Code: models.CodeOK,
		Data: data,
	})
}

func writeFailure(
	res http.ResponseWriter,
	req *http.Request,
	status int,
	key messageKey,
	data *models.UpstreamErrorData,
) {
	writeJSON(res, status, models.Envelope[*models.UpstreamErrorData]{
		Code:    models.CodeFailed,
		Data:    data,
		Message: translate(settings.LocaleFromContext(req.Context()), key),
	})
}

// writeStoreError maps the API client error taxonomy onto facade statuses.
func writeStoreError(res http.ResponseWriter, req *http.Request, err error) {
	var (
		httpErr      *apiclient.HTTPError
		transportErr *apiclient.TransportError
		decodeErr    *apiclient.DecodeError
	)

	switch {
	case errors.As(err, &httpErr):
		writeFailure(res, req, http.StatusBadGateway, msgUpstreamFailed, &models.UpstreamErrorData{
			Status: httpErr.Status,
			Body:   string(httpErr.Body),
		})
	case errors.As(err, &transportErr) && transportErr.Timeout():
		writeFailure(res, req, http.StatusGatewayTimeout, msgUpstreamTimeout, nil)
	case errors.As(err, &transportErr):
		writeFailure(res, req, http.StatusBadGateway, msgUpstreamFailed, nil)
	case errors.As(err, &decodeErr):
		writeFailure(res, req, http.StatusBadGateway, msgUpstreamMalformed, nil)
	default:
		logger.Log.Errorw("unexpected store error", zap.Error(err))
		writeFailure(res, req, http.StatusInternalServerError, msgInternal, nil)
	}
}

func writeJSON(res http.ResponseWriter, status int, value any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	if err := json.NewEncoder(res).Encode(value); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder(res).Encode()`: ", zap.Error(err))
	}
}
