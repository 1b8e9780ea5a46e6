package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/rs/zerolog/log"
)

// Client runs the desktop side of the sync protocol: pull the change feed
// down into the local store, push queued offline writes up.
type Client struct {
	serverURL string
	deviceKey string
	deviceID  string
	branchID  int64
	http      *http.Client
	store     *LocalStore
}

func NewClient(serverURL, deviceKey, deviceID string, branchID int64, store *LocalStore) *Client {
	return &Client{
		serverURL: serverURL,
		deviceKey: deviceKey,
		deviceID:  deviceID,
		branchID:  branchID,
		http:      &http.Client{Timeout: 30 * time.Second},
		store:     store,
	}
}

// Pull fetches everything changed since the local cursor and advances the
// cursor to the server's clock. The cursor moves only after the feed is
// applied, so a crash mid-merge re-downloads rather than losing rows.
func (c *Client) Pull(ctx context.Context) error {
	cursor, err := c.store.Cursor(ctx)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}

	q := url.Values{}
	if !cursor.IsZero() {
		q.Set("since", cursor.UTC().Format(time.RFC3339))
	}
	if c.branchID > 0 {
		q.Set("branch_id", strconv.FormatInt(c.branchID, 10))
	}

	var feed domain.SyncDownload
	if err := c.get(ctx, "/api/v1/sync/download?"+q.Encode(), &feed); err != nil {
		return err
	}

	if err := c.store.ApplyDownload(ctx, &feed); err != nil {
		return fmt.Errorf("apply download: %w", err)
	}
	if err := c.store.SetCursor(ctx, feed.ServerTime); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}

	log.Info().
		Int("medicines", len(feed.Medicines)).
		Int("customers", len(feed.Customers)).
		Time("cursor", feed.ServerTime).
		Msg("pull applied")
	return nil
}

// Push uploads the pending queue. Accepted and duplicate records are
// cleared; records the server rejected stay queued and are reported so
// the operator can inspect them.
func (c *Client) Push(ctx context.Context) (*domain.SyncUploadResult, error) {
	sales, err := c.store.PendingSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pending sales: %w", err)
	}
	customers, err := c.store.PendingCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pending customers: %w", err)
	}
	if len(sales) == 0 && len(customers) == 0 {
		return &domain.SyncUploadResult{}, nil
	}

	req := domain.SyncUploadRequest{
		DeviceID:  c.deviceID,
		Sales:     sales,
		Customers: customers,
	}

	var result domain.SyncUploadResult
	if err := c.post(ctx, "/api/v1/sync/upload", req, &result); err != nil {
		return nil, err
	}

	rejected := make(map[string]bool, len(result.Errors))
	for _, e := range result.Errors {
		rejected[e.Kind+":"+e.Key] = true
	}

	for _, sale := range sales {
		if rejected["sale:"+sale.InvoiceNumber] {
			continue
		}
		if err := c.store.ClearSale(ctx, sale.InvoiceNumber); err != nil {
			return nil, fmt.Errorf("clear sale %s: %w", sale.InvoiceNumber, err)
		}
	}
	for _, customer := range customers {
		if rejected["customer:"+customer.Phone] {
			continue
		}
		if err := c.store.ClearCustomer(ctx, customer.Phone); err != nil {
			return nil, fmt.Errorf("clear customer %s: %w", customer.Phone, err)
		}
	}

	log.Info().
		Int("synced", result.SalesSynced).
		Int("duplicate", result.SalesDuplicate).
		Int("customers", result.CustomersSynced).
		Int("rejected", len(result.Errors)).
		Msg("push completed")
	return &result, nil
}

// Run does one full sync cycle: push local writes first so the download
// reflects them, then pull.
func (c *Client) Run(ctx context.Context) error {
	if _, err := c.Push(ctx); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	if err := c.Pull(ctx); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.deviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sync server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
