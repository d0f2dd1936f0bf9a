package targets_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/torosent/kipbench/internal/targets"
)

func TestNewByName(t *testing.T) {
	for _, name := range []string{"noop", "NORM", " sleep "} {
		target, err := targets.New(name, targets.Options{})
		require.NoError(t, err, name)
		assert.NoError(t, target.Do(context.Background()), name)
	}

	_, err := targets.New("quantum", targets.Options{})
	assert.ErrorIs(t, err, targets.ErrUnknownTarget)
	assert.Contains(t, err.Error(), "noop")

	_, err = targets.New("http", targets.Options{})
	assert.Error(t, err)

	_, err = targets.New("sleep", targets.Options{Sleep: -time.Second})
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"http", "noop", "norm", "sleep"}, targets.Names())
}

func TestNormComputesVectorNorm(t *testing.T) {
	n := targets.NewNorm(3)
	require.NoError(t, n.Do(context.Background()))
	// First call builds {1, 2, 3}.
	assert.InDelta(t, math.Sqrt(14), n.Last(), 1e-6)

	require.NoError(t, n.Do(context.Background()))
	// Second call builds {2, 3, 4}.
	assert.InDelta(t, math.Sqrt(29), n.Last(), 1e-6)
}

func TestSleepHonorsContext(t *testing.T) {
	s, err := targets.NewSleep(time.Hour, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Do(ctx), context.DeadlineExceeded)
}

func TestSleepWithJitter(t *testing.T) {
	s, err := targets.NewSleep(time.Millisecond, 2*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, s.Do(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestHTTPTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path == "/fail" {
			http.Error(w, "broken", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ok, err := targets.New("http", targets.Options{URL: srv.URL, Client: srv.Client()})
	require.NoError(t, err)
	assert.NoError(t, ok.Do(context.Background()))

	fail, err := targets.NewHTTP(srv.Client(), srv.URL+"/fail")
	require.NoError(t, err)
	err = fail.Do(context.Background())

	var httpErr *targets.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, "broken", httpErr.Body)
	assert.Equal(t, "HTTP 503: broken", err.Error())
}

func TestHTTPTargetRejectsBadURL(t *testing.T) {
	_, err := targets.NewHTTP(nil, "ftp://example.com")
	assert.Error(t, err)
	_, err = targets.NewHTTP(nil, "   ")
	assert.Error(t, err)
}

func TestNewClientTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, targets.NewClient(5*time.Second).Timeout)
	assert.Zero(t, targets.NewClient(-time.Second).Timeout)
}

func TestHTTPTargetPropagatesTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	headers := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Get("Traceparent")
	}))
	defer srv.Close()

	ctx, span := tp.Tracer("test").Start(context.Background(), "measure")
	defer span.End()

	plain, err := targets.NewHTTP(srv.Client(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, plain.Do(ctx))
	assert.Empty(t, <-headers)

	traced, err := targets.New("http", targets.Options{URL: srv.URL, Client: srv.Client(), Propagate: true})
	require.NoError(t, err)
	require.NoError(t, traced.Do(ctx))
	assert.Contains(t, <-headers, span.SpanContext().TraceID().String())
}
