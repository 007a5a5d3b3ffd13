// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across pipeline stages.
package httputil

import (
	"context"
	"io"
	"net/http"
)

// Do executes an HTTP request with at most one immediate retry. A retry is
// attempted on a transport error or on HTTP 429/5xx; there is no backoff
// policy. A still-failing second attempt is returned as-is so the caller
// can treat it like any other recoverable source failure.
//
// On retry the first response body is drained and closed. The request is
// cloned per attempt so a consumed body never leaks between attempts.
func Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req.Clone(ctx))
	if err == nil && !retryable(resp.StatusCode) {
		return resp, nil
	}

	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return client.Do(req.Clone(ctx))
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
