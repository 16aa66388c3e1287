// Package main implements a mock retailer for local development. It renders
// a JSON catalog as paginated HTML listing pages matching the example custom
// source in config.example.yaml, and exposes admin endpoints to change
// prices and remove products between polls.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const defaultPerPage = 2

type product struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Price   string `json:"price"`
	Image   string `json:"image"`
	InStock bool   `json:"in_stock"`
}

type catalogFile struct {
	Products []product `json:"products"`
}

// catalog is the mutable product list served by the mock.
type catalog struct {
	mu       sync.RWMutex
	products []product
}

func (c *catalog) page(n, perPage int) []product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	start := (n - 1) * perPage
	if start >= len(c.products) || start < 0 {
		return nil
	}
	end := min(start+perPage, len(c.products))
	return append([]product(nil), c.products[start:end]...)
}

func (c *catalog) setPrice(slug, price string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].Slug == slug {
			c.products[i].Price = price
			return true
		}
	}
	return false
}

func (c *catalog) setStock(slug string, inStock bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].Slug == slug {
			c.products[i].InStock = inStock
			return true
		}
	}
	return false
}

func (c *catalog) remove(slug string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].Slug == slug {
			c.products = append(c.products[:i], c.products[i+1:]...)
			return true
		}
	}
	return false
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>Mock amiibo shop</title></head>
<body>
{{range .}}<div class="card">
  <a class="link" href="/p/{{.Slug}}"><h3 class="name">{{.Title}}</h3></a>
  <img class="thumb" src="{{.Image}}">
  <span class="price">{{.Price}}</span>
  {{if not .InStock}}<div class="stock">Sold out</div>{{end}}
</div>
{{end}}</body>
</html>`))

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/catalog.json", "path to catalog fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cat, err := loadCatalog(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded catalog", "products", len(cat.products))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock retailer", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, cat)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &catalog{products: f.Products}, nil
}

func newMux(logger *slog.Logger, cat *catalog) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /amiibo", listHandler(logger, cat))
	mux.HandleFunc("POST /admin/products/{slug}/price", priceHandler(logger, cat))
	mux.HandleFunc("POST /admin/products/{slug}/stock", stockHandler(logger, cat))
	mux.HandleFunc("DELETE /admin/products/{slug}", removeHandler(logger, cat))
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func listHandler(logger *slog.Logger, cat *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := positiveInt(r.URL.Query().Get("page"), 1)
		perPage := positiveInt(r.URL.Query().Get("per_page"), defaultPerPage)

		products := cat.page(page, perPage)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, products); err != nil {
			logger.Error("rendering page", "error", err)
			return
		}
		logger.Info("list", "page", page, "returned", len(products))
	}
}

func priceHandler(logger *slog.Logger, cat *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		price := r.URL.Query().Get("price")
		if price == "" {
			http.Error(w, "price is required", http.StatusBadRequest)
			return
		}
		if !cat.setPrice(slug, price) {
			http.NotFound(w, r)
			return
		}
		logger.Info("price changed", "slug", slug, "price", price)
		w.WriteHeader(http.StatusNoContent)
	}
}

func stockHandler(logger *slog.Logger, cat *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		inStock, err := strconv.ParseBool(r.URL.Query().Get("in_stock"))
		if err != nil {
			http.Error(w, "in_stock must be a boolean", http.StatusBadRequest)
			return
		}
		if !cat.setStock(slug, inStock) {
			http.NotFound(w, r)
			return
		}
		logger.Info("stock changed", "slug", slug, "in_stock", inStock)
		w.WriteHeader(http.StatusNoContent)
	}
}

func removeHandler(logger *slog.Logger, cat *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		if !cat.remove(slug) {
			http.NotFound(w, r)
			return
		}
		logger.Info("product removed", "slug", slug)
		w.WriteHeader(http.StatusNoContent)
	}
}

func positiveInt(s string, fallback int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return fallback
}
