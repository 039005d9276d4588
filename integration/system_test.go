//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:5000")

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
	Product struct {
		Stock int `json:"stock"`
	} `json:"product"`
}

func TestSystem_E2E_ProductLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	name := fmt.Sprintf("E2E Brake %d Pad", rand.Intn(1_000_000))

	var created envelope
	doJSON(t, http.MethodPost, baseURL+"/api/products", map[string]any{
		"name":  name,
		"price": 42.5,
		"stock": 1,
	}, &created, 200)
	if created.ID == "" {
		t.Fatalf("create did not return id: %#v", created)
	}

	var got struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	doJSON(t, http.MethodGet, baseURL+"/api/product/"+created.ID, nil, &got, 200)
	if got.Name != name || got.Price != 42.5 {
		t.Fatalf("round trip mismatch: %#v", got)
	}

	var links envelope
	doJSON(t, http.MethodPost, baseURL+"/api/product-list", map[string]any{
		"names": []string{name, name},
	}, &links, 200)
	if !links.Success {
		t.Fatalf("product-list: %#v", links)
	}

	var upd envelope
	doJSON(t, http.MethodPut, baseURL+"/api/product/"+created.ID, nil, &upd, 200)
	if upd.Product.Stock != 0 {
		t.Fatalf("stock=%d want 0", upd.Product.Stock)
	}
	doJSON(t, http.MethodPut, baseURL+"/api/product/"+created.ID, nil, nil, 400)

	if os.Getenv("E2E_RESTART_CATALOG") == "1" {
		restartService(t, ctx, "catalog")
		waitReady(t, ctx, baseURL+"/readyz")
		doJSON(t, http.MethodGet, baseURL+"/api/product/"+created.ID, nil, &got, 200)
	}

	doJSON(t, http.MethodDelete, baseURL+"/api/product/"+created.ID, nil, nil, 200)
	doJSON(t, http.MethodGet, baseURL+"/api/product/"+created.ID, nil, nil, 404)
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
