package metadata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"NFTProjector/internal/metadata"
	"NFTProjector/internal/model"
	"NFTProjector/internal/observability"
	"NFTProjector/internal/retry"

	"github.com/rs/zerolog"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:    attempts,
		BaseInterval:   time.Millisecond,
		MaxInterval:    2 * time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func testLogger() zerolog.Logger {
	return observability.NewLoggerWithLevel("resolver-test", zerolog.Disabled)
}

func TestResolveNoReferencePassesThrough(t *testing.T) {
	r := metadata.NewResolver("http://gateway.invalid", fastPolicy(1), testLogger())

	meta := model.Metadata{"title": "plain"}
	got, err := r.Resolve(context.Background(), meta)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got["title"] != "plain" {
		t.Errorf("metadata changed: %v", got)
	}
}

func TestResolveMergesFetchedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ipfs/"+testCID {
			t.Errorf("path: got %s", r.URL.Path)
		}
		w.Write([]byte(`{"title": "gateway title", "media": "ipfs://media"}`))
	}))
	defer srv.Close()

	r := metadata.NewResolver(srv.URL, fastPolicy(3), testLogger())
	got, err := r.Resolve(context.Background(), model.Metadata{
		"title":     "chain title",
		"copies":    "10",
		"reference": testCID,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got["title"] != "gateway title" {
		t.Errorf("fetched field should win: %v", got["title"])
	}
	if got["copies"] != "10" {
		t.Errorf("on-chain field lost: %v", got["copies"])
	}
	if got["media"] != "ipfs://media" {
		t.Errorf("media: %v", got["media"])
	}
}

func TestResolveRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"title": "eventually"}`))
	}))
	defer srv.Close()

	r := metadata.NewResolver(srv.URL, fastPolicy(5), testLogger())
	got, err := r.Resolve(context.Background(), model.Metadata{"reference": testCID})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got["title"] != "eventually" {
		t.Errorf("title: %v", got["title"])
	}
	if calls.Load() != 3 {
		t.Errorf("calls: got %d, want 3", calls.Load())
	}
}

func TestResolveBadReferenceImmediate(t *testing.T) {
	r := metadata.NewResolver("http://gateway.invalid", fastPolicy(1), testLogger())

	_, err := r.Resolve(context.Background(), model.Metadata{"reference": "not a cid"})
	if !errors.Is(err, metadata.ErrBadReference) {
		t.Fatalf("error: got %v, want ErrBadReference", err)
	}
}

func TestResolveBrokenDocumentNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	r := metadata.NewResolver(srv.URL, fastPolicy(5), testLogger())
	_, err := r.Resolve(context.Background(), model.Metadata{"reference": testCID})
	if !errors.Is(err, metadata.ErrUnresolved) {
		t.Fatalf("error: got %v, want ErrUnresolved", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}

func TestResolveExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := metadata.NewResolver(srv.URL, fastPolicy(3), testLogger())
	_, err := r.Resolve(context.Background(), model.Metadata{"reference": testCID})
	if !errors.Is(err, metadata.ErrUnresolved) {
		t.Fatalf("error: got %v, want ErrUnresolved", err)
	}
}
