package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/inkstack/papyr/internal/config"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	a, err := e.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(context.Background(), "same text")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same input produced different vectors at %d", i)
		}
	}
	c, _ := e.Embed(context.Background(), "different text")
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct inputs produced identical vectors")
	}
}

func TestMockEmbedderUnitLength(t *testing.T) {
	e := NewMockEmbedder(16)
	vec, err := e.Embed(context.Background(), "normalize me")
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-5 {
		t.Errorf("vector norm: got %f, want 1", math.Sqrt(sum))
	}
}

func TestMockEmbedderBatchOrder(t *testing.T) {
	e := NewMockEmbedder(8)
	texts := []string{"first", "second", "third"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Fatalf("batch size: got %d", len(batch))
	}
	for i, text := range texts {
		single, _ := e.Embed(context.Background(), text)
		for j := range single {
			if batch[i][j] != single[j] {
				t.Fatalf("batch[%d] differs from single embedding", i)
			}
		}
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a evicted too early")
	}
	// a was just used, so inserting c evicts b.
	c.Set("c", []float32{3})
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be cached")
	}
	if c.Len() != 2 {
		t.Errorf("len: got %d, want 2", c.Len())
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache(2)
	c.Set("k", []float32{1})
	c.Set("k", []float32{2})
	vec, ok := c.Get("k")
	if !ok || vec[0] != 2 {
		t.Errorf("got %v, %v", vec, ok)
	}
	if c.Len() != 1 {
		t.Errorf("len: got %d, want 1", c.Len())
	}
}

func embeddingsHandler(t *testing.T, dims int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		// Reverse order on the wire; the client must reorder by index.
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dims)
			vec[i%dims] = 1
			data = append(data, item{Index: i, Embedding: vec})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

func TestRemoteEmbedderReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(embeddingsHandler(t, 4))
	defer srv.Close()

	e, err := NewRemoteEmbedder(RemoteConfig{BaseURL: srv.URL, Dimensions: 4})
	if err != nil {
		t.Fatal(err)
	}
	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	for i, vec := range vectors {
		if vec[i%4] != 1 {
			t.Errorf("vector %d not reordered by index: %v", i, vec)
		}
	}
}

func TestRemoteEmbedderRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		embeddingsHandler(t, 4)(w, r)
	}))
	defer srv.Close()

	e, err := NewRemoteEmbedder(RemoteConfig{BaseURL: srv.URL, Dimensions: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("retry did not recover: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRemoteEmbedderClientErrorIsFatal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	e, _ := NewRemoteEmbedder(RemoteConfig{BaseURL: srv.URL, Dimensions: 4})
	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error on 400 response")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("client errors must not be retried, calls=%d", calls)
	}
}

func TestRemoteEmbedderCachesResults(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		embeddingsHandler(t, 4)(w, r)
	}))
	defer srv.Close()

	e, _ := NewRemoteEmbedder(RemoteConfig{BaseURL: srv.URL, Dimensions: 4})
	if _, err := e.Embed(context.Background(), "cached text"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "cached text"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	mock, err := New(&config.EmbeddingConfig{Provider: "mock", Dimensions: 8}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mock.(*MockEmbedder); !ok {
		t.Errorf("provider mock: got %T", mock)
	}
	if _, err := New(&config.EmbeddingConfig{Provider: "bogus"}, ""); err == nil {
		t.Error("expected error for unknown provider")
	}
}
