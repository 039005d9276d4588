package searchview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is one shaped product link returned by the catalog name lookup.
type Result struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

var (
	ErrNoMatches   = errors.New("no products matched")
	ErrBadStatus   = errors.New("catalog bad status")
	ErrUnavailable = errors.New("catalog unavailable")
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

type listReq struct {
	Names []string `json:"names"`
}

type listResp struct {
	Success bool     `json:"success"`
	Data    []Result `json:"data"`
	Message string   `json:"message"`
}

// FindByNames posts the names to the catalog lookup endpoint. An empty
// match set is reported as ErrNoMatches whether the server signalled it
// with a 404 or with success=false.
func (c *Client) FindByNames(ctx context.Context, names []string) ([]Result, error) {
	body, err := json.Marshal(listReq{Names: names})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/product-list", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNoMatches
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	var out listResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrBadStatus, err)
	}
	if !out.Success || len(out.Data) == 0 {
		return nil, ErrNoMatches
	}
	return out.Data, nil
}
