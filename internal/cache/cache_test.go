package cache_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/contactcrawl/internal/cache"
	"github.com/jonesrussell/contactcrawl/internal/domain"
)

// newTestCache starts a miniredis instance and returns a cache against it.
func newTestCache(t *testing.T) (*cache.ResponseCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return cache.New(client, time.Hour, nil), mr
}

func TestGetSet_RoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	want := &domain.PageResult{
		Emails: []domain.EmailHit{
			{Email: "info@acme.se", Source: domain.SourceMailto, Confidence: 0.85},
		},
		Phones:  []string{"+4684002227"},
		Socials: domain.Socials{LinkedIn: "https://linkedin.com/company/acme"},
	}

	c.Set(ctx, "https://acme.se/kontakt", want)

	got, hit := c.Get(ctx, "https://acme.se/kontakt")
	if !hit {
		t.Fatal("expected cache hit")
	}

	if len(got.Emails) != 1 || got.Emails[0].Email != "info@acme.se" {
		t.Errorf("emails = %+v", got.Emails)
	}

	if len(got.Phones) != 1 || got.Phones[0] != "+4684002227" {
		t.Errorf("phones = %+v", got.Phones)
	}

	if got.Socials.LinkedIn != want.Socials.LinkedIn {
		t.Errorf("socials = %+v", got.Socials)
	}
}

func TestGet_Miss(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)

	if _, hit := c.Get(context.Background(), "https://never-seen.se/"); hit {
		t.Error("expected miss for unknown URL")
	}
}

func TestSet_AppliesTTL(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "https://acme.se/", &domain.PageResult{})

	mr.FastForward(2 * time.Hour)

	if _, hit := c.Get(ctx, "https://acme.se/"); hit {
		t.Error("expected entry to expire after TTL")
	}
}

func TestKey_Format(t *testing.T) {
	t.Parallel()

	key := cache.Key("https://acme.se/")

	if !strings.HasPrefix(key, "crawl:") {
		t.Errorf("key = %q, want crawl: prefix", key)
	}

	// sha256 hex digest is 64 characters.
	if len(key) != len("crawl:")+64 {
		t.Errorf("len(key) = %d, want %d", len(key), len("crawl:")+64)
	}

	if key != cache.Key("https://acme.se/") {
		t.Error("key derivation must be deterministic")
	}
}

func TestNilClient_NoOps(t *testing.T) {
	t.Parallel()

	c := cache.New(nil, time.Hour, nil)
	ctx := context.Background()

	c.Set(ctx, "https://acme.se/", &domain.PageResult{})

	if _, hit := c.Get(ctx, "https://acme.se/"); hit {
		t.Error("nil-client cache must always miss")
	}
}

func TestGet_BackendDown(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "https://acme.se/", &domain.PageResult{})
	mr.Close()

	// Failure is swallowed; Get degrades to a miss.
	if _, hit := c.Get(ctx, "https://acme.se/"); hit {
		t.Error("expected miss when backend is down")
	}
}
