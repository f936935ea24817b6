package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/netutil"
)

const maxBodyBytes = 1 << 20

// Client fetches current conditions from an OpenWeatherMap compatible endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient normalizes cfg and builds a client with a retrying transport.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("weather base url: %w", err)
	}
	hc := &http.Client{
		Transport: &netutil.RetryTransport{
			Base:       http.DefaultTransport,
			MaxRetries: cfg.Retries,
			Backoff:    cfg.RetryBackoff,
		},
	}
	return &Client{cfg: cfg, http: hc}, nil
}

// Fetch returns the current weather for city. Failures are *Error values
// matching ErrNotFound, ErrUnavailable or ErrMalformed.
func (c *Client) Fetch(ctx context.Context, city string) (Report, error) {
	start := time.Now()
	rep, err := c.fetch(ctx, city)

	attrs := []slog.Attr{
		slog.String("status", fetchStatus(err)),
		slog.String("city", logger.SanitizeLimit(city, 64)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		var werr *Error
		if errors.As(err, &werr) && werr.HTTPCode != 0 {
			attrs = append(attrs, slog.Int("http_code", werr.HTTPCode))
		}
		attrs = append(attrs, slog.Any("err", err))
		level := slog.LevelWarn
		if errors.Is(err, ErrNotFound) {
			level = slog.LevelInfo
		}
		logger.Event(ctx, "weather", level, "fetch", attrs...)
		return Report{}, err
	}
	attrs = append(attrs, slog.String("category", rep.Category().String()))
	logger.Info(ctx, "weather", "fetch", attrs...)
	return rep, nil
}

func (c *Client) fetch(ctx context.Context, city string) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(city), nil)
	if err != nil {
		return Report{}, &Error{Kind: KindUnavailable, City: city, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, &Error{Kind: KindUnavailable, City: city, Err: redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Report{}, &Error{Kind: KindUnavailable, City: city, HTTPCode: resp.StatusCode, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Report{}, &Error{Kind: KindNotFound, City: city, HTTPCode: resp.StatusCode}
	default:
		return Report{}, &Error{Kind: KindUnavailable, City: city, HTTPCode: resp.StatusCode}
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Report{}, &Error{Kind: KindMalformed, City: city, HTTPCode: resp.StatusCode, Err: err}
	}
	switch {
	case payload.Cod == nil || *payload.Cod == 0:
		return Report{}, &Error{Kind: KindMalformed, City: city, HTTPCode: resp.StatusCode, Err: errors.New("missing cod")}
	case *payload.Cod != http.StatusOK:
		return Report{}, &Error{Kind: KindNotFound, City: city, HTTPCode: int(*payload.Cod)}
	}
	rep, err := payload.report(city)
	if err != nil {
		return Report{}, &Error{Kind: KindMalformed, City: city, HTTPCode: resp.StatusCode, Err: err}
	}
	return rep, nil
}

func (c *Client) endpoint(city string) string {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", c.cfg.Units)
	if c.cfg.Lang != "" {
		q.Set("lang", c.cfg.Lang)
	}
	sep := "?"
	if strings.Contains(c.cfg.BaseURL, "?") {
		sep = "&"
	}
	return c.cfg.BaseURL + sep + q.Encode()
}

// redact strips the request URL (it carries the api key) from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}

func fetchStatus(err error) string {
	var werr *Error
	if errors.As(err, &werr) {
		return string(werr.Kind)
	}
	return logger.Status(err)
}

// statusCode accepts both 200 and "200"; the provider is not consistent.
type statusCode int

func (s *statusCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str = strings.TrimSpace(str); str == "" {
			return nil
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("cod %q: %w", str, err)
		}
		*s = statusCode(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = statusCode(n)
	return nil
}

type apiResponse struct {
	Cod     *statusCode `json:"cod"`
	Message string      `json:"message"`
	Name    string      `json:"name"`
	Main    *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		ID          *int    `json:"id"`
		Description *string `json:"description"`
	} `json:"weather"`
}

func (p apiResponse) report(city string) (Report, error) {
	var missing []string
	if p.Main == nil || p.Main.Temp == nil {
		missing = append(missing, "main.temp")
	}
	if p.Main == nil || p.Main.Humidity == nil {
		missing = append(missing, "main.humidity")
	}
	if p.Wind == nil || p.Wind.Speed == nil {
		missing = append(missing, "wind.speed")
	}
	if len(p.Weather) == 0 || p.Weather[0].ID == nil {
		missing = append(missing, "weather[0].id")
	}
	if len(p.Weather) == 0 || p.Weather[0].Description == nil {
		missing = append(missing, "weather[0].description")
	}
	if len(missing) > 0 {
		return Report{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	rep := Report{
		City:        city,
		Temperature: *p.Main.Temp,
		FeelsLike:   *p.Main.Temp,
		Description: *p.Weather[0].Description,
		Humidity:    *p.Main.Humidity,
		WindSpeed:   *p.Wind.Speed,
		ConditionID: *p.Weather[0].ID,
	}
	if p.Main.FeelsLike != nil {
		rep.FeelsLike = *p.Main.FeelsLike
	}
	return rep, nil
}
