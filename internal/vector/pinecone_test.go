package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// fakePinecone serves just enough of the Pinecone REST surface for the client.
func fakePinecone(t *testing.T, exists *atomic.Bool) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/test-index", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !exists.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"name":   "test-index",
			"host":   srv.URL,
			"status": map[string]interface{}{"ready": true, "state": "Ready"},
		})
	})
	mux.HandleFunc("POST /indexes", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name      string                 `json:"name"`
			Dimension int                    `json:"dimension"`
			Spec      map[string]interface{} `json:"spec"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Dimension <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		exists.Store(true)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /vectors/upsert", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Vectors []map[string]interface{} `json:"vectors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"upsertedCount": len(body.Vectors)})
	})
	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"matches": []map[string]interface{}{
				{"id": "doc_001", "score": 0.93, "metadata": map[string]string{"title": "First"}},
				{"id": "doc_002", "score": 0.81},
			},
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *PineconeIndex {
	t.Helper()
	idx, err := NewPineconeIndex(PineconeConfig{APIKey: "pk-test", IndexName: "test-index"}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	idx.controlPlane = url
	return idx
}

func TestPineconeEnsureIndexCreates(t *testing.T) {
	var exists atomic.Bool
	srv := fakePinecone(t, &exists)
	idx := newTestClient(t, srv.URL)

	err := idx.EnsureIndex(context.Background(), "test-index", 8, IndexOptions{
		Serverless: true, Cloud: "aws", Region: "us-east-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !exists.Load() {
		t.Error("index was not created")
	}
	if idx.host == "" {
		t.Error("host was not resolved")
	}
}

func TestPineconeSearchTranslatesMatches(t *testing.T) {
	var exists atomic.Bool
	exists.Store(true)
	srv := fakePinecone(t, &exists)
	idx := newTestClient(t, srv.URL)
	ctx := context.Background()

	if err := idx.EnsureIndex(ctx, "test-index", 8, IndexOptions{Serverless: true}); err != nil {
		t.Fatal(err)
	}
	hits, err := idx.Search(ctx, []float32{1, 0, 0, 0, 0, 0, 0, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits", len(hits))
	}
	if hits[0].ID != "doc_001" || hits[0].Score != 0.93 {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[0].Metadata["title"] != "First" {
		t.Errorf("metadata not translated: %v", hits[0].Metadata)
	}
	if hits[1].Metadata == nil {
		t.Error("missing metadata should become an empty map")
	}
}

func TestPineconeDataOpsRequireHost(t *testing.T) {
	idx := newTestClient(t, "http://unused")
	if _, err := idx.Search(context.Background(), []float32{1}, 1, nil); err == nil {
		t.Error("search before EnsureIndex should fail")
	}
	if err := idx.Upsert(context.Background(), []UpsertItem{{ID: "x", Values: []float32{1}}}); err == nil {
		t.Error("upsert before EnsureIndex should fail")
	}
}

func TestPineconePodIndexRequiresEnvironment(t *testing.T) {
	var exists atomic.Bool
	srv := fakePinecone(t, &exists)
	idx := newTestClient(t, srv.URL)
	err := idx.EnsureIndex(context.Background(), "test-index", 8, IndexOptions{Serverless: false})
	if err == nil {
		t.Error("pod index without environment should fail")
	}
}
