package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"cod": 200,
	"name": "Paris",
	"main": {"temp": 17.4, "feels_like": 16.9, "humidity": 72},
	"wind": {"speed": 3.6},
	"weather": [{"id": 500, "description": "light rain"}]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{APIKey: "k3y", BaseURL: srv.URL, Timeout: 2 * time.Second, RetryBackoff: time.Millisecond})
	require.NoError(t, err)
	return c
}

func TestFetchSuccess(t *testing.T) {
	var query map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{"q": q.Get("q"), "appid": q.Get("appid"), "units": q.Get("units"), "lang": q.Get("lang")}
		_, _ = w.Write([]byte(okBody))
	})

	rep, err := c.Fetch(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"q": "Paris", "appid": "k3y", "units": "metric", "lang": "en"}, query)
	assert.Equal(t, "Paris", rep.City)
	assert.InDelta(t, 17.4, rep.Temperature, 1e-9)
	assert.InDelta(t, 16.9, rep.FeelsLike, 1e-9)
	assert.Equal(t, 72, rep.Humidity)
	assert.InDelta(t, 3.6, rep.WindSpeed, 1e-9)
	assert.Equal(t, "light rain", rep.Description)
	assert.Equal(t, CategoryRain, rep.Category())
	assert.False(t, rep.IsFavorite)
}

func TestFetchSendsCityVerbatim(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(okBody))
	})

	_, err := c.Fetch(context.Background(), "São Paulo")
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", got)
}

func TestFetchFeelsLikeFallsBackToTemperature(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cod":"200","main":{"temp":-3,"humidity":90},"wind":{"speed":1},"weather":[{"id":601,"description":"snow"}]}`))
	})

	rep, err := c.Fetch(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.InDelta(t, -3.0, rep.FeelsLike, 1e-9)
	assert.Equal(t, CategorySnow, rep.Category())
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		notWant error
	}{
		{name: "internal cod not found", status: http.StatusOK, body: `{"cod":"404","message":"city not found"}`, want: ErrNotFound, notWant: ErrUnavailable},
		{name: "numeric internal cod", status: http.StatusOK, body: `{"cod":404,"message":"city not found"}`, want: ErrNotFound},
		{name: "http not found", status: http.StatusNotFound, body: `{"cod":"404","message":"city not found"}`, want: ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, want: ErrUnavailable, notWant: ErrNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"cod":401}`, want: ErrUnavailable},
		{name: "broken json", status: http.StatusOK, body: `{"cod":200,"main":`, want: ErrMalformed},
		{name: "missing humidity", status: http.StatusOK, body: `{"cod":200,"main":{"temp":1},"wind":{"speed":1},"weather":[{"id":800,"description":"clear"}]}`, want: ErrMalformed},
		{name: "missing cod", status: http.StatusOK, body: `{"main":{"temp":1,"humidity":5},"wind":{"speed":1},"weather":[{"id":800,"description":"clear"}]}`, want: ErrMalformed, notWant: ErrNotFound},
		{name: "zero cod", status: http.StatusOK, body: `{"cod":0,"main":{"temp":1,"humidity":5},"wind":{"speed":1},"weather":[{"id":800,"description":"clear"}]}`, want: ErrMalformed, notWant: ErrNotFound},
		{name: "null cod", status: http.StatusOK, body: `{"cod":null,"main":{"temp":1,"humidity":5},"wind":{"speed":1},"weather":[{"id":800,"description":"clear"}]}`, want: ErrMalformed},
		{name: "empty weather list", status: http.StatusOK, body: `{"cod":200,"main":{"temp":1,"humidity":5},"wind":{"speed":1},"weather":[]}`, want: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Fetch(context.Background(), "Atlantis")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			if tt.notWant != nil {
				assert.NotErrorIs(t, err, tt.notWant)
			}
			var werr *Error
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, "Atlantis", werr.City)
		})
	}
}

func TestMalformedCountsAsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.Fetch(context.Background(), "Rome")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNotFoundMessageNamesCity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := c.Fetch(context.Background(), "Xyzzyville")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Xyzzyville")
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(Config{APIKey: "secret-key", BaseURL: base, Timeout: time.Second, RetryBackoff: time.Millisecond})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "Paris")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond, RetryBackoff: time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Fetch(context.Background(), "Paris")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConfigNormalize(t *testing.T) {
	var empty Config
	err := empty.Normalize()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "WEATHER_API_KEY"))

	cfg := Config{APIKey: "k"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "metric", cfg.Units)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Retries)
}

func TestErrorCode(t *testing.T) {
	err := &Error{Kind: KindNotFound, City: "x"}
	assert.Equal(t, "WEATHER_NOT_FOUND", err.Code())
	assert.False(t, errors.Is(err, ErrMalformed))
}
