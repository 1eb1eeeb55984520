package plexus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

const fetchTestPayload = `{
	"nodes": [{"id": "a", "type": "feature"}, {"id": "b", "type": "logit"}],
	"edges": [{"source": "a", "target": "b", "weight": 0.5}]
}`

func TestFetchGraphGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		io.WriteString(w, fetchTestPayload)
	}))
	defer srv.Close()

	g, notes, err := NewClient().FetchGraph(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("graph = %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
	if len(notes) != 0 {
		t.Errorf("notes = %v", notes)
	}
}

func TestFetchGraphPostsConfig(t *testing.T) {
	want := &FetchConfig{
		SimilarityThreshold: 0.8,
		MinCorrelation:      0.3,
		MaxCrossEntropyGap:  1.5,
		IntraLayerOnly:      true,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var got FetchConfig
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode config: %v", err)
		} else if got != *want {
			t.Errorf("config = %+v, want %+v", got, *want)
		}
		io.WriteString(w, fetchTestPayload)
	}))
	defer srv.Close()

	if _, _, err := NewClient().FetchGraph(context.Background(), srv.URL, want); err != nil {
		t.Fatal(err)
	}
}

func TestFetchRawReturnsPayloadVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, fetchTestPayload)
	}))
	defer srv.Close()

	data, err := NewClient().FetchRaw(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != fetchTestPayload {
		t.Errorf("payload = %q", data)
	}
}

// --- Error categories ---

func TestFetchGraphHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := NewClient().FetchGraph(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrHTTPStatus) {
		t.Fatalf("err = %v, want ErrHTTPStatus", err)
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnreachable) || errors.Is(err, ErrParse) {
		t.Error("error matched more than one category")
	}
}

func TestFetchGraphParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>definitely not a graph</html>")
	}))
	defer srv.Close()

	_, _, err := NewClient().FetchGraph(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestFetchGraphTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient()
	c.Timeout = 30 * time.Millisecond
	_, _, err := c.FetchGraph(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestFetchGraphUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens here anymore

	_, _, err := NewClient().FetchGraph(context.Background(), url, nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}

// --- Loader ---

func TestLoaderClearsOnCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, fetchTestPayload)
	}))
	defer srv.Close()

	l := NewLoader(NewClient())
	done := make(chan error, 1)
	l.Load(context.Background(), srv.URL, nil, func(g *Graph, notes []string, err error) {
		done <- err
	})

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loader never completed")
	}

	// The flag clears on (or just after) completion.
	deadline := time.Now().Add(time.Second)
	for l.Loading() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if l.Loading() {
		t.Fatal("loading flag stuck after completion")
	}
}

func TestLoaderFailsafeClearsWedgedFlag(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient()
	c.Timeout = 10 * time.Second // the primary path won't finish in this test
	l := NewLoader(c)
	l.FailsafeDelay = 20 * time.Millisecond

	l.Load(context.Background(), srv.URL, nil, func(*Graph, []string, error) {})
	if !l.Loading() {
		t.Fatal("loading flag not set")
	}

	deadline := time.Now().Add(2 * time.Second)
	for l.Loading() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if l.Loading() {
		t.Fatal("failsafe never cleared the loading flag")
	}
}
