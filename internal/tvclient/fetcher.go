package tvclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/npezzotti/tvdash/internal/reconcile"
	"github.com/npezzotti/tvdash/internal/types"
)

// ErrNotFound is returned when the server has no TV with the requested id.
var ErrNotFound = reconcile.ErrNotFound

type Fetcher interface {
	GetTV(ctx context.Context, id int) (types.TV, error)
}

// HTTPFetcher reads TV records from the server's REST API.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (f *HTTPFetcher) GetTV(ctx context.Context, id int) (types.TV, error) {
	var tv types.TV
	if err := f.get(ctx, fmt.Sprintf("/api/tvs/%d", id), &tv); err != nil {
		return types.TV{}, fmt.Errorf("get tv %d: %w", id, err)
	}
	return tv, nil
}

func (f *HTTPFetcher) ListTVs(ctx context.Context) ([]types.TV, error) {
	var tvs []types.TV
	if err := f.get(ctx, "/api/tvs", &tvs); err != nil {
		return nil, fmt.Errorf("list tvs: %w", err)
	}
	return tvs, nil
}

func (f *HTTPFetcher) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
