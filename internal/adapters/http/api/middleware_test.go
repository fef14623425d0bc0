package api

import (
	"testing"
	"time"
)

func TestRateLimiterRefillsAndSweeps(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewRateLimiter(60, 1)
	l.now = func() time.Time { return now }

	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("first request should pass")
	}
	ok, wait := l.Allow("a")
	if ok || wait <= 0 || wait > time.Second {
		t.Fatalf("second request: ok=%v wait=%v", ok, wait)
	}
	if ok, _ := l.Allow("b"); !ok {
		t.Fatal("clients must not share buckets")
	}

	now = now.Add(time.Second)
	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("token should refill after one second")
	}

	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow("c")
	if _, found := l.clients["a"]; found {
		t.Fatal("idle client should be swept")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	l := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if ok, _ := l.Allow("x"); !ok {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}

func TestGetErrorType(t *testing.T) {
	cases := map[int]string{
		500: "server_error",
		429: "rate_limit",
		404: "not_found",
		409: "conflict",
		422: "validation",
		400: "client_error",
		200: "unknown",
	}
	for code, want := range cases {
		if got := getErrorType(code); got != want {
			t.Errorf("getErrorType(%d) = %q, want %q", code, got, want)
		}
	}
}
