package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/models"
)

// ErrNotFound is returned when the server answers 404: unknown party
// code, or a credential that does not belong to the party.
var ErrNotFound = errors.New("not found")

// Client is a thin HTTP client for the check-in API, used by scanner
// stations and tooling.
type Client struct {
	base  string
	token string
	http  *http.Client
}

func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken attaches a session token to subsequent requests. Needed only
// for the member endpoints (toggle, guest list); scanner endpoints are
// public.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ResolveParty looks a party up by its short code.
func (c *Client) ResolveParty(ctx context.Context, code string) (models.PartySummary, error) {
	var out models.PartySummary
	u := fmt.Sprintf("%s/api/scanner/party?code=%s", c.base, url.QueryEscape(code))
	err := c.do(ctx, http.MethodGet, u, nil, &out)
	return out, err
}

// CheckIn posts a scanned credential for the given party.
func (c *Client) CheckIn(ctx context.Context, partyID uuid.UUID, qrHash string) (models.CheckInResponse, error) {
	var out models.CheckInResponse
	u := fmt.Sprintf("%s/api/parties/%s/guests/%s/enter", c.base, partyID, url.PathEscape(qrHash))
	err := c.do(ctx, http.MethodPost, u, nil, &out)
	return out, err
}

// ToggleEntry flips a guest's entered state. Requires a session token.
func (c *Client) ToggleEntry(ctx context.Context, partyID uuid.UUID, qrHash string) (models.ToggleResponse, error) {
	var out models.ToggleResponse
	u := fmt.Sprintf("%s/api/parties/%s/guests/%s/toggle_entry", c.base, partyID, url.PathEscape(qrHash))
	err := c.do(ctx, http.MethodPut, u, nil, &out)
	return out, err
}

// ListGuests fetches one page of the guest list. Requires a session token.
func (c *Client) ListGuests(ctx context.Context, partyID uuid.UUID, q models.ListQuery) (models.GuestPage, error) {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.SortDir != "" {
		v.Set("sort_dir", q.SortDir)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}

	u := fmt.Sprintf("%s/api/parties/%s/guests", c.base, partyID)
	if enc := v.Encode(); enc != "" {
		u += "?" + enc
	}

	var out models.GuestPage
	err := c.do(ctx, http.MethodGet, u, nil, &out)
	return out, err
}

// Stats fetches the attendance counters for a party.
func (c *Client) Stats(ctx context.Context, partyID uuid.UUID) (models.PartyStats, error) {
	var out models.PartyStats
	u := fmt.Sprintf("%s/api/parties/%s/stats", c.base, partyID)
	err := c.do(ctx, http.MethodGet, u, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apiError(resp, ErrNotFound)
	case resp.StatusCode >= 400:
		return apiError(resp, nil)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError extracts the server's {"error": ...} message when present.
func apiError(resp *http.Response, sentinel error) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		if sentinel != nil {
			return fmt.Errorf("%s: %w", payload.Error, sentinel)
		}
		return errors.New(payload.Error)
	}
	if sentinel != nil {
		return sentinel
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
