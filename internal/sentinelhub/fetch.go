// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/logging"
	"github.com/tomtom215/tessellatus/internal/metrics"
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
)

// OctetStreamMimeType requests raw little-endian pixel data from the
// process API, the format the chunk store decodes.
const OctetStreamMimeType = "application/octet-stream"

// defaultRetryAfter is assumed when a failed response carries no
// Retry-After header.
const defaultRetryAfter = 100 * time.Millisecond

// FetchResponse is the outcome of a process API call. OK mirrors the HTTP
// success of the final attempt; under the "warn" and "ignore" error
// policies a failed response is returned as-is with OK false rather than
// being turned into an error.
type FetchResponse struct {
	StatusCode int
	OK         bool
	Header     http.Header
	Body       []byte
}

// SampleType returns the SH-SampleType response header, when present.
func (r *FetchResponse) SampleType() string {
	return r.Header.Get("SH-SampleType")
}

// Components returns the SH-Components response header, or -1.
func (r *FetchResponse) Components() int {
	return headerInt(r.Header, "SH-Components")
}

// Width returns the SH-Width response header, or -1.
func (r *FetchResponse) Width() int {
	return headerInt(r.Header, "SH-Width")
}

// Height returns the SH-Height response header, or -1.
func (r *FetchResponse) Height() int {
	return headerInt(r.Header, "SH-Height")
}

func headerInt(h http.Header, key string) int {
	v, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return -1
	}
	return v
}

// GetData posts a process request and returns the response body. Transient
// failures are retried with the configured budget: every failed attempt
// waits Retry-After (default 100ms) plus a random share of the current
// backoff allowance, which itself grows by the backoff base after each
// attempt. A 401 forces a token refresh, and when it strikes on the final
// attempt one extra attempt is granted so a refreshed token gets used at
// least once.
//
// When the budget is exhausted the error policy decides: "fail" surfaces
// an error, "warn" logs and returns the failed response, "ignore" returns
// the failed response silently. A failed response is never dressed up as a
// success.
func (c *Client) GetData(ctx context.Context, request *models.ProcessRequest, mimeType string) (*FetchResponse, error) {
	if mimeType == "" {
		mimeType = requestMimeType(request)
	}
	if c.breaker != nil {
		return c.breaker.execute(func() (*FetchResponse, error) {
			return c.getDataWithRetries(ctx, request, mimeType)
		})
	}
	return c.getDataWithRetries(ctx, request, mimeType)
}

func (c *Client) getDataWithRetries(ctx context.Context, request *models.ProcessRequest, mimeType string) (*FetchResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode process request: %w", err)
	}

	numRetries := c.cfg.NumRetries
	if numRetries < 1 {
		numRetries = config.DefaultNumRetries
	}
	backoffMax := float64(c.cfg.RetryBackoffMax.Milliseconds())
	if backoffMax < 0 {
		backoffMax = 0
	}
	backoffBase := c.cfg.RetryBackoffBase
	if backoffBase <= 1 {
		backoffBase = config.DefaultRetryBackoffBase
	}

	dataset := requestDataset(request)
	processURL := c.cfg.EffectiveProcessURL()

	var lastResponse *FetchResponse
	var lastErr error
	extraAttempt := false
	startTime := time.Now()

	for attempt := 0; attempt < numRetries; attempt++ {
		if err := c.waitForRateLimit(ctx); err != nil {
			return nil, err
		}

		resp, err := c.postProcess(ctx, processURL, payload, mimeType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			lastResponse = nil
			metrics.RecordProcessRequest(dataset, 0, 0, time.Since(startTime))
			metrics.RecordRetry("transport")
		} else {
			lastErr = nil
			lastResponse = resp
			metrics.RecordProcessRequest(dataset, resp.StatusCode, len(resp.Body), time.Since(startTime))

			if resp.StatusCode == http.StatusUnauthorized {
				// The token went stale mid-flight. Refresh it, and when
				// this was the final attempt grant one more so the fresh
				// token gets used.
				if !extraAttempt && attempt == numRetries-1 {
					extraAttempt = true
					attempt--
				}
				if refreshErr := c.refreshToken(ctx); refreshErr != nil {
					lastErr = refreshErr
				}
				metrics.RecordRetry("token_expired")
			} else if resp.OK {
				return resp, nil
			} else if resp.StatusCode == http.StatusTooManyRequests {
				metrics.RecordRetry("throttled")
			} else {
				metrics.RecordRetry("server_error")
			}
		}

		retryMin := defaultRetryAfter
		if lastResponse != nil {
			retryMin = retryAfter(lastResponse.Header)
		}
		retryBackoff := time.Duration(rand.Float64()*backoffMax) * time.Millisecond
		logging.Debug().
			Int("attempt", attempt+1).
			Int("budget", numRetries).
			Dur("wait", retryMin+retryBackoff).
			Msg("process request failed, retrying")
		if err := retryWait(ctx, retryMin+retryBackoff); err != nil {
			return nil, err
		}
		backoffMax *= backoffBase
	}

	elapsed := time.Since(startTime)
	logging.Error().
		Dur("elapsed", elapsed).
		Int("retries", numRetries).
		Err(lastErr).
		Msg("failed to fetch data from Sentinel Hub")

	switch c.cfg.ErrorPolicy {
	case config.ErrorPolicyWarn:
		logging.Warn().Err(fetchFailure(lastResponse, lastErr)).Msg("returning failed response")
		return lastResponse, nil
	case config.ErrorPolicyIgnore:
		return lastResponse, nil
	default:
		return lastResponse, fetchFailure(lastResponse, lastErr)
	}
}

// postProcess performs a single process API attempt, reading the whole body.
func (c *Client) postProcess(ctx context.Context, url string, payload []byte, mimeType string) (*FetchResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("process request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read process response: %w", err)
	}
	return &FetchResponse{
		StatusCode: resp.StatusCode,
		OK:         resp.StatusCode < 400,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// fetchFailure turns the final failed attempt into an error.
func fetchFailure(resp *FetchResponse, lastErr error) error {
	if lastErr != nil {
		return lastErr
	}
	if resp != nil {
		return newAPIError(resp.StatusCode, "", resp.Body)
	}
	return fmt.Errorf("process request failed with no response")
}

// retryAfter reads the Retry-After header in milliseconds, falling back
// to the default wait.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultRetryAfter
}

// requestMimeType derives the Accept header from the request's outputs:
// multiple outputs arrive as a tar archive, a single output in its own
// format.
func requestMimeType(request *models.ProcessRequest) string {
	outputs := request.Output.Responses
	if len(outputs) > 1 {
		return "application/tar"
	}
	if len(outputs) == 1 && outputs[0].Format.Type != "" {
		return outputs[0].Format.Type
	}
	return "image/tiff"
}

// requestDataset extracts the dataset (or collection) label for metrics.
func requestDataset(request *models.ProcessRequest) string {
	if len(request.Input.Data) > 0 {
		return request.Input.Data[0].Type
	}
	return "unknown"
}
