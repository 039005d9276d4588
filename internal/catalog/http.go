package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"SpareParts/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Store    Store
	Resolver *Resolver
	Log      *zap.Logger
	Metrics  *kit.Metrics
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.log().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/product", s.list)
		api.Get("/product/{id}", s.get)
		api.Put("/product/{id}", s.decrementStock)
		api.Delete("/product/{id}", s.delete)
		api.Post("/products", s.create)
		api.Post("/product-list", s.productList)
		api.Get("/search", s.search)
	})

	return r
}

type listResp struct {
	Success bool      `json:"success"`
	Data    []Product `json:"data"`
}

type messageResp struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	ID      string   `json:"id,omitempty"`
	Product *Product `json:"product,omitempty"`
}

type linksResp struct {
	Success bool          `json:"success"`
	Data    []ProductLink `json:"data"`
	Message string        `json:"message,omitempty"`
}

// SearchHit is the text search projection of a product.
type SearchHit struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

type searchResp struct {
	Success bool        `json:"success"`
	Data    []SearchHit `json:"data"`
	Message string      `json:"message,omitempty"`
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Error fetching part", zap.String("id", id))
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Part is not available", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "Error fetching products")
		return
	}
	kit.WriteJSON(w, http.StatusOK, listResp{Success: true, Data: products})
}

type createReq struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    string   `json:"image_url"`
	Description string   `json:"description"`
}

func (req createReq) product() (Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Price == nil || *req.Price == 0 {
		return Product{}, invalid("Please provide all the fields")
	}
	if *req.Price < 0 {
		return Product{}, invalid("price must be positive")
	}

	stock := DefaultStock
	if req.Stock != nil {
		if *req.Stock < 0 {
			return Product{}, invalid("stock must not be negative")
		}
		stock = *req.Stock
	}

	return Product{
		Name:        name,
		Price:       *req.Price,
		Stock:       stock,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Description: req.Description,
	}, nil
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := req.product()
	if err != nil {
		s.writeStoreError(w, r, err, "Server Error")
		return
	}

	created, err := s.Store.Create(r.Context(), p)
	if err != nil {
		s.writeStoreError(w, r, err, "Server Error", zap.String("name", p.Name))
		return
	}

	s.log().Info("product created", zap.String("id", created.ID), zap.String("name", created.Name))
	kit.WriteJSON(w, http.StatusOK, messageResp{Success: true, Message: "New Product added", ID: created.ID})
}

type productListReq struct {
	Names []*string `json:"names"`
}

// names rejects null elements, which would otherwise decode as "" and
// match every product.
func (req productListReq) names() ([]string, error) {
	out := make([]string, 0, len(req.Names))
	for _, n := range req.Names {
		if n == nil {
			return nil, ErrNoNames
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *Server) productList(w http.ResponseWriter, r *http.Request) {
	var req productListReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Please pass an array of names", map[string]any{"cause": err.Error()})
		return
	}

	names, err := req.names()
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	links, err := s.Resolver.Resolve(r.Context(), names)
	if err != nil {
		s.writeStoreError(w, r, err, "Error fetching product links")
		return
	}

	if len(links) == 0 {
		s.Metrics.Outcome("product_list", "miss")
		kit.WriteJSON(w, http.StatusNotFound, linksResp{
			Success: false,
			Data:    links,
			Message: "No products matched the given names",
		})
		return
	}

	s.Metrics.Outcome("product_list", "hit")
	kit.WriteJSON(w, http.StatusOK, linksResp{Success: true, Data: links})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ok, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Error deleting product", zap.String("id", id))
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", map[string]any{"id": id})
		return
	}

	s.log().Info("product deleted", zap.String("id", id))
	kit.WriteJSON(w, http.StatusOK, messageResp{Success: true, Message: "Deleted successfully"})
}

func (s *Server) decrementStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Store.DecrementStock(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.Metrics.Outcome("decrement_stock", "insufficient")
		}
		s.writeStoreError(w, r, err, "Error updating product", zap.String("id", id))
		return
	}

	s.Metrics.Outcome("decrement_stock", "ok")
	kit.WriteJSON(w, http.StatusOK, messageResp{Success: true, Message: "Product updated", Product: &p})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "Please provide a search query", nil)
		return
	}

	products, err := s.Store.SearchText(r.Context(), DefaultTextQuery(query))
	if err != nil {
		s.writeStoreError(w, r, err, "Error performing search", zap.String("query", query))
		return
	}

	hits := make([]SearchHit, 0, len(products))
	for _, p := range products {
		hits = append(hits, SearchHit{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price})
	}

	if len(hits) == 0 {
		s.Metrics.Outcome("search", "miss")
		kit.WriteJSON(w, http.StatusNotFound, searchResp{Success: false, Data: hits, Message: "No products found"})
		return
	}

	s.Metrics.Outcome("search", "hit")
	kit.WriteJSON(w, http.StatusOK, searchResp{Success: true, Data: hits})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
