package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/userfront/internal/apiclient"
	"github.com/patric-chuzhbe/userfront/internal/mockapi"
	"github.com/patric-chuzhbe/userfront/internal/models"
	"github.com/patric-chuzhbe/userfront/internal/settings"
	"github.com/patric-chuzhbe/userfront/internal/store"
	"github.com/patric-chuzhbe/userfront/internal/user"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func setupTestRouter(t *testing.T, cached []user.User) (http.Handler, *mockapi.ClientMock, *store.Store, *settings.Settings) {
	t.Helper()

	api := new(mockapi.ClientMock)
	usersStore := store.New(api)
	usersStore.SetUsers(cached)

	localeKeeper, err := settings.New(settings.FallbackLocale)
	require.NoError(t, err)

	return New(usersStore, localeKeeper), api, usersStore, localeKeeper
}

func doRequest(handler http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) models.Envelope[T] {
	t.Helper()

	var envelope models.Envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestGetPing(t *testing.T) {
	r, _, _, _ := setupTestRouter(t, nil)

	rec := doRequest(r, http.MethodGet, "/ping", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetApiusers(t *testing.T) {
	cached := []user.User{{ID: 1, Name: "A", Age: 20}, {ID: 2, Name: "B", Age: 30}}
	r, api, _, _ := setupTestRouter(t, cached)

	rec := doRequest(r, http.MethodGet, "/api/users", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope[[]user.User](t, rec)
	assert.Equal(t, models.CodeOK, envelope.Code)
	assert.Equal(t, cached, envelope.Data)
	api.AssertNotCalled(t, "ListUsers", mock.Anything)
}

func TestPostApiuserssync(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r, api, usersStore, _ := setupTestRouter(t, nil)
		returned := []user.User{{ID: 4, Name: "D", Age: 44}}
		api.On("ListUsers", mock.Anything).Return(returned, nil).Once()

		rec := doRequest(r, http.MethodPost, "/api/users/sync", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, returned, decodeEnvelope[[]user.User](t, rec).Data)
		assert.Equal(t, returned, usersStore.Users())
	})

	t.Run("upstream HTTP error", func(t *testing.T) {
		r, api, _, _ := setupTestRouter(t, nil)
		api.On("ListUsers", mock.Anything).Return(nil, &apiclient.HTTPError{
			Op:     "ListUsers",
			Status: http.StatusNotFound,
			Body:   []byte(`{"code":404}`),
		}).Once()

		rec := doRequest(r, http.MethodPost, "/api/users/sync", "", map[string]string{"Accept-Language": "en-US"})

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		envelope := decodeEnvelope[*models.UpstreamErrorData](t, rec)
		assert.Equal(t, models.CodeFailed, envelope.Code)
		assert.Equal(t, "the remote API returned an error", envelope.Message)
		require.NotNil(t, envelope.Data)
		assert.Equal(t, http.StatusNotFound, envelope.Data.Status)
		assert.Equal(t, `{"code":404}`, envelope.Data.Body)
	})
}

func TestStoreErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "timeout",
			err:        &apiclient.TransportError{Op: "ListUsers", Err: timeoutErr{}},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "deadline",
			err:        &apiclient.TransportError{Op: "ListUsers", Err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "connection refused",
			err:        &apiclient.TransportError{Op: "ListUsers", Err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "malformed envelope",
			err:        &apiclient.DecodeError{Op: "ListUsers", Err: errors.New("unexpected end of JSON input")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "anything else",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r, api, _, _ := setupTestRouter(t, nil)
			api.On("ListUsers", mock.Anything).Return(nil, testCase.err).Once()

			rec := doRequest(r, http.MethodPost, "/api/users/sync", "", nil)

			assert.Equal(t, testCase.wantStatus, rec.Code)
			assert.Equal(t, models.CodeFailed, decodeEnvelope[*models.UpstreamErrorData](t, rec).Code)
		})
	}
}

func TestPostApiusers(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r, api, usersStore, _ := setupTestRouter(t, []user.User{})
		api.On("CreateUser", mock.Anything, user.Payload{Name: "B", Age: 30}).
			Return(user.User{ID: 2, Name: "B", Age: 30}, nil).
			Once()

		rec := doRequest(r, http.MethodPost, "/api/users", `{"name":"B","age":30}`, nil)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, user.User{ID: 2, Name: "B", Age: 30}, decodeEnvelope[user.User](t, rec).Data)
		assert.Equal(t, []user.User{{ID: 2, Name: "B", Age: 30}}, usersStore.Users())
	})

	t.Run("malformed body, default locale", func(t *testing.T) {
		r, api, _, _ := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodPost, "/api/users", `{"name":`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, settings.LocaleZhTW, rec.Header().Get("Content-Language"))
		assert.Equal(t, "請求內容格式錯誤", decodeEnvelope[*models.UpstreamErrorData](t, rec).Message)
		api.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("malformed body, english", func(t *testing.T) {
		r, _, _, _ := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodPost, "/api/users", `{"age":"old"}`, map[string]string{"Accept-Language": "en"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, settings.LocaleEnUS, rec.Header().Get("Content-Language"))
		assert.Equal(t, "malformed request body", decodeEnvelope[*models.UpstreamErrorData](t, rec).Message)
	})
}

func TestPutApiusersID(t *testing.T) {
	t.Run("updated in place", func(t *testing.T) {
		r, api, usersStore, _ := setupTestRouter(t, []user.User{{ID: 1, Name: "A", Age: 20}})
		api.On("UpdateUser", mock.Anything, 1, user.Patch{Age: user.IntPtr(21)}).
			Return(user.User{ID: 1, Name: "A", Age: 21}, nil).
			Once()

		rec := doRequest(r, http.MethodPut, "/api/users/1", `{"age":21}`, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.User{ID: 1, Name: "A", Age: 21}, decodeEnvelope[user.User](t, rec).Data)
		assert.Equal(t, []user.User{{ID: 1, Name: "A", Age: 21}}, usersStore.Users())
	})

	t.Run("invalid id", func(t *testing.T) {
		r, _, _, _ := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodPut, "/api/users/abc", `{"age":21}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _, _, _ := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodPut, "/api/users/1", `[]`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteApiusersID(t *testing.T) {
	r, api, usersStore, _ := setupTestRouter(t, []user.User{{ID: 1, Name: "A", Age: 20}, {ID: 2, Name: "B", Age: 30}})
	api.On("DeleteUser", mock.Anything, 1).Return(nil).Once()

	rec := doRequest(r, http.MethodDelete, "/api/users/1", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CodeOK, decodeEnvelope[any](t, rec).Code)
	assert.Equal(t, []user.User{{ID: 2, Name: "B", Age: 30}}, usersStore.Users())
}

func TestGetApistatus(t *testing.T) {
	r, _, _, _ := setupTestRouter(t, []user.User{{ID: 1, Name: "A", Age: 20}})

	rec := doRequest(r, http.MethodGet, "/api/status", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusResponse{Status: "idle", Count: 1}, decodeEnvelope[models.StatusResponse](t, rec).Data)
}

func TestLocaleSettings(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		r, _, _, _ := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodGet, "/api/settings/locale", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.LocaleResponse{
			Locale:    settings.LocaleZhTW,
			Supported: []string{settings.LocaleZhTW, settings.LocaleEnUS},
		}, decodeEnvelope[models.LocaleResponse](t, rec).Data)
	})

	t.Run("set", func(t *testing.T) {
		r, _, _, localeKeeper := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodPut, "/api/settings/locale", `{"locale":"en-US"}`, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, settings.LocaleEnUS, localeKeeper.Locale())
		assert.Contains(t, rec.Header().Get("Set-Cookie"), settings.LocaleCookieName+"=en-US")
	})

	t.Run("unsupported", func(t *testing.T) {
		r, _, _, localeKeeper := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodPut, "/api/settings/locale", `{"locale":"fr-FR"}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, settings.LocaleZhTW, localeKeeper.Locale())
	})

	t.Run("cookie decides the response language", func(t *testing.T) {
		r, _, _, _ := setupTestRouter(t, nil)

		rec := doRequest(r, http.MethodGet, "/ping", "", map[string]string{
			"Cookie":          settings.LocaleCookieName + "=en-US",
			"Accept-Language": "zh-TW",
		})

		assert.Equal(t, settings.LocaleEnUS, rec.Header().Get("Content-Language"))
	})
}

func TestFacadeOverHTTP(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = fmt.Fprint(w, `{"code":0,"data":[{"id":1,"name":"A","age":20}]}`)
		case http.MethodPost:
			_, _ = fmt.Fprint(w, `{"code":0,"data":{"id":2,"name":"B","age":30}}`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer upstream.Close()

	client, err := apiclient.New(upstream.URL)
	require.NoError(t, err)

	localeKeeper, err := settings.New(settings.FallbackLocale)
	require.NoError(t, err)

	usersStore := store.New(client)
	srv := httptest.NewServer(New(usersStore, localeKeeper))
	defer srv.Close()

	resp, err := resty.New().R().Post(srv.URL + "/api/users/sync")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept-Encoding", "gzip").
		SetBody(`{"name":"B","age":30}`).
		Post(srv.URL + "/api/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode())

	var envelope models.Envelope[[]user.User]
	resp, err = resty.New().R().SetResult(&envelope).Get(srv.URL + "/api/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, []user.User{{ID: 1, Name: "A", Age: 20}, {ID: 2, Name: "B", Age: 30}}, envelope.Data)

	resp, err = resty.New().R().Put(srv.URL + "/api/users/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode(), "an empty body is not a patch")

	resp, err = resty.New().R().SetBody(`{"age":21}`).Put(srv.URL + "/api/users/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode())
}
