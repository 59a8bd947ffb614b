// Package binance reads the native reference rate from Binance's public REST
// ticker. It is the fallback when the on-chain native→stable quote fails.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bsc-triarb/business/marketdata/app"
	"github.com/fd1az/bsc-triarb/internal/apperror"
	"github.com/fd1az/bsc-triarb/internal/circuitbreaker"
	"github.com/fd1az/bsc-triarb/internal/httpclient"
	"github.com/fd1az/bsc-triarb/internal/logger"
	"github.com/fd1az/bsc-triarb/internal/ratelimit"
)

const (
	BaseAPIURL = "https://api.binance.com"

	tickerEndpoint = "/api/v3/ticker/price"
	tracerName     = "github.com/fd1az/bsc-triarb/business/marketdata/infra/binance"
)

// Config configures the ticker client.
type Config struct {
	BaseURL           string
	Symbol            string
	Timeout           time.Duration
	RequestsPerMinute int
}

var _ app.ReferenceRateSource = (*TickerClient)(nil)

// TickerClient fetches the last traded price of one symbol.
type TickerClient struct {
	client  httpclient.Client
	cfg     Config
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[decimal.Decimal]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewTickerClient creates the client.
func NewTickerClient(cfg Config, log logger.LoggerInterface) (*TickerClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 600
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("binance-ticker")
	cbCfg.ConsecutiveFailures = 3

	return &TickerClient{
		client:  client,
		cfg:     cfg,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		cb:      circuitbreaker.New[decimal.Decimal](cbCfg),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// NativeRate returns the configured symbol's last price.
func (c *TickerClient) NativeRate(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := c.tracer.Start(ctx, "binance.ticker_price",
		trace.WithAttributes(attribute.String("symbol", c.cfg.Symbol)))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	price, err := c.cb.Execute(func() (decimal.Decimal, error) {
		var result tickerResponse
		_, err := c.client.NewRequest(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", "ticker_price")),
			httpclient.WithResponseErrorHandler(binanceErrorHandler),
		).
			SetQueryParam("symbol", c.cfg.Symbol).
			SetResult(&result).
			Get(ctx, tickerEndpoint)
		if err != nil {
			return decimal.Zero, err
		}
		p, err := decimal.NewFromString(result.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse price %q: %w", result.Price, err)
		}
		if !p.IsPositive() {
			return decimal.Zero, fmt.Errorf("non-positive price %s", p)
		}
		return p, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ticker failed")
		code := apperror.CodeReferenceRateFailed
		if circuitbreaker.IsOpen(err) {
			code = apperror.CodeCircuitOpen
		}
		return decimal.Zero, apperror.New(code, apperror.WithCause(err), apperror.WithContext(c.cfg.Symbol))
	}

	span.SetAttributes(attribute.String("price", price.String()))
	c.logger.Debug(ctx, "reference rate fetched", "symbol", c.cfg.Symbol, "price", price.String())
	return price, nil
}

// APIError is an error body returned by Binance.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

func binanceErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
