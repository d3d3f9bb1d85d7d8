package controllers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstStreamEvent opens path on a live server as identity, runs trigger once
// the subscription is registered on topic and returns the first event frame.
// It also checks the subscription is released when the client disconnects.
func firstStreamEvent(t *testing.T, router *gin.Engine, broker *realtime.MemoryBroker, topic, path, identity string, trigger func()) string {
	t.Helper()

	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("X-Test-User", identity)

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := server.Client().Do(req)
		done <- result{resp, err}
	}()

	require.Eventually(t, func() bool { return broker.Subscribers(topic) == 1 }, 2*time.Second, 10*time.Millisecond)
	trigger()

	res := <-done
	require.NoError(t, res.err)
	defer res.resp.Body.Close()
	assert.Equal(t, "text/event-stream", res.resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", res.resp.Header.Get("Cache-Control"))

	scanner := bufio.NewScanner(res.resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		if strings.HasPrefix(line, "data:") {
			break
		}
	}

	cancel()
	require.Eventually(t, func() bool { return broker.Subscribers(topic) == 0 }, 2*time.Second, 10*time.Millisecond)
	return strings.Join(lines, "\n")
}
