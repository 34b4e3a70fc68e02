package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quorum/internal/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&StaticSource{SourceID: "Alpha", Value: 50}))
	require.NoError(t, r.Register(&StaticSource{SourceID: "beta", Value: 60}))

	_, ok := r.Lookup("ALPHA")
	assert.True(t, ok, "lookup is case insensitive")
	_, ok = r.Lookup("gamma")
	assert.False(t, ok)

	assert.Error(t, r.Register(&StaticSource{SourceID: "alpha"}), "duplicate id rejected")
	assert.Error(t, r.Register(&StaticSource{SourceID: "  "}))
	assert.Equal(t, []string{"alpha", "beta"}, r.IDs())
}

func TestStaticSourceHonorsContext(t *testing.T) {
	s := &StaticSource{SourceID: "slow", Value: 80, Delay: 10 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Fetch(ctx, "BTC")
	assert.Less(t, time.Since(start), time.Second)
	require.Error(t, err)
	assert.Equal(t, signal.KindTimeout, signal.KindOf(err))
}

func TestHTTPJSONSourceExtractsAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signal/BTC", r.URL.Path)
		w.Write([]byte(`{"data":{"strength":0.75}}`))
	}))
	defer srv.Close()

	s := NewHTTPJSONSource("ext", srv.URL+"/signal/{subject}", "data.strength", 0, 1)
	v, err := s.Fetch(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 75.0, v)
}

func TestHTTPJSONSourceWithoutBoundsClamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score":132}`))
	}))
	defer srv.Close()

	s := NewHTTPJSONSource("ext", srv.URL, "score", 0, 0)
	v, err := s.Fetch(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)
}

func TestHTTPJSONSourceNotFoundIsInvalidSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewHTTPJSONSource("ext", srv.URL, "score", 0, 100)
	_, err := s.Fetch(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, signal.KindInvalidSubject, signal.KindOf(err))
}

func TestHTTPJSONSourceServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPJSONSource("ext", srv.URL, "score", 0, 100)
	_, err := s.Fetch(context.Background(), "BTC")
	require.Error(t, err)
	assert.Equal(t, signal.KindUnavailable, signal.KindOf(err))
}

func TestHTTPJSONSourceMissingPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other":1}`))
	}))
	defer srv.Close()

	s := NewHTTPJSONSource("ext", srv.URL, "score", 0, 100)
	_, err := s.Fetch(context.Background(), "BTC")
	require.Error(t, err)
	assert.Equal(t, signal.KindUnavailable, signal.KindOf(err))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	inner := &StaticSource{SourceID: "flaky", Err: signal.NewSourceError("flaky", signal.KindUnavailable, errors.New("down"))}
	s := WithBreaker(inner, 3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := s.Fetch(context.Background(), "BTC")
		require.Error(t, err)
	}
	// Threshold reached: the upstream stops being hit.
	inner.Err = nil
	_, err := s.Fetch(context.Background(), "BTC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
}

func TestBreakerIgnoresInvalidSubject(t *testing.T) {
	inner := &StaticSource{SourceID: "ok", Err: signal.NewSourceError("ok", signal.KindInvalidSubject, signal.ErrInvalidSubject)}
	s := WithBreaker(inner, 2, time.Minute)

	for i := 0; i < 5; i++ {
		_, err := s.Fetch(context.Background(), "NOPE")
		require.Error(t, err)
		assert.Equal(t, signal.KindInvalidSubject, signal.KindOf(err), "breaker must stay closed")
	}
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	inner := &StaticSource{SourceID: "flaky", Value: 60, Err: signal.NewSourceError("flaky", signal.KindUnavailable, errors.New("down"))}
	s := WithBreaker(inner, 2, 50*time.Millisecond)

	for i := 0; i < 2; i++ {
		s.Fetch(context.Background(), "BTC")
	}
	_, err := s.Fetch(context.Background(), "BTC")
	assert.Contains(t, err.Error(), "circuit open")

	inner.Err = nil
	time.Sleep(80 * time.Millisecond)
	v, err := s.Fetch(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 60.0, v)
}
