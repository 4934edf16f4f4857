// Package predict is the HTTP client for the external scoring service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NgigiN/fraudshield/internal/ledger"
	"github.com/NgigiN/fraudshield/internal/metrics"
)

const (
	predictPath = "/api/model/predict"
	healthPath  = "/api/health"

	// DefaultTimeout bounds a call when the caller passes zero.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

// ErrPredictionFailed is returned for any non-2xx answer from the scoring service.
var ErrPredictionFailed = errors.New("prediction failed")

var errBaseURL = errors.New("invalid prediction base url")

// Request is the body of a prediction call.
type Request struct {
	TxnID          string      `json:"txn_id"`
	Step           int64       `json:"step"`
	Type           ledger.Type `json:"type"`
	Amount         float64     `json:"amount"`
	OldBalanceOrg  float64     `json:"oldbalanceOrg"`
	NewBalanceOrg  float64     `json:"newbalanceOrg"`
	OldBalanceDest float64     `json:"oldbalanceDest"`
	NewBalanceDest float64     `json:"newbalanceDest"`
	Origin         string      `json:"origin"`
	Destination    string      `json:"destination"`
}

// Details is the model breakdown. The service may omit it.
type Details struct {
	MLScore        float64  `json:"ml_score"`
	RuleScore      float64  `json:"r_score"`
	RulesTriggered []string `json:"rules_triggered"`
	Threshold      float64  `json:"threshold"`
}

type Response struct {
	TxnID            string      `json:"txn_id"`
	AnomalyScore     float64     `json:"anomaly_score"`
	PredictedAnomaly ledger.Flag `json:"predicted_anomaly"`
	ModelVersion     string      `json:"model_version"`
	Details          *Details    `json:"details,omitempty"`
}

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Mode    string `json:"mode"`
}

// Client talks to one scoring service. It never retries.
type Client struct {
	hc      *http.Client
	base    string
	timeout time.Duration
}

// NewClient builds a client for baseURL. A nil httpClient gets a default one;
// timeout <= 0 means DefaultTimeout.
func NewClient(httpClient *http.Client, baseURL string, timeout time.Duration) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errBaseURL, baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		hc:      httpClient,
		base:    strings.TrimRight(u.String(), "/"),
		timeout: timeout,
	}, nil
}

// Predict scores one transaction.
func (c *Client) Predict(ctx context.Context, in Request) (*Response, error) {
	start := time.Now()
	out, err := c.predict(ctx, in)
	metrics.PredictLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PredictRequests.WithLabelValues("ok").Inc()
	return out, nil
}

func (c *Client) predict(ctx context.Context, in Request) (*Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	// anomaly_score must be present, so it is decoded through a pointer.
	var wire struct {
		Response
		AnomalyScore *float64 `json:"anomaly_score"`
	}
	if err := c.do(ctx, http.MethodPost, predictPath, body, &wire); err != nil {
		return nil, err
	}
	if wire.AnomalyScore == nil {
		return nil, fmt.Errorf("%w: response has no anomaly_score", ErrPredictionFailed)
	}
	out := wire.Response
	out.AnomalyScore = *wire.AnomalyScore
	return &out, nil
}

// Health asks the scoring service whether it is up.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, healthPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status=%d: %s", ErrPredictionFailed, resp.StatusCode, errorMessage(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// errorMessage pulls "detail" out of a FastAPI error body and falls back to
// the raw text.
func errorMessage(body []byte) string {
	var fastapi struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &fastapi); err == nil && len(fastapi.Detail) > 0 {
		var s string
		if err := json.Unmarshal(fastapi.Detail, &s); err == nil {
			return s
		}
		return string(fastapi.Detail)
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "Prediction failed"
	}
	return text
}
