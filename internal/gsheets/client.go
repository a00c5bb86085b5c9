// Package gsheets is the spreadsheet backend client: batched range reads,
// batched USER_ENTERED writes, row location by date, and the per-metric
// writers used at the end of a run.
package gsheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/superself/amazon-monitor/internal/httpx"
	"github.com/superself/amazon-monitor/internal/steplog"
)

const Tag = "[SHEETS]"

const (
	defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	scope          = "https://www.googleapis.com/auth/spreadsheets"
)

// ValueRange is one contiguous block of cells, as the values API models it.
type ValueRange struct {
	Range  string          `json:"range,omitempty"`
	Values [][]interface{} `json:"values,omitempty"`
}

type batchGetResponse struct {
	SpreadsheetID string       `json:"spreadsheetId"`
	ValueRanges   []ValueRange `json:"valueRanges"`
}

type batchUpdateRequest struct {
	ValueInputOption string       `json:"valueInputOption"`
	Data             []ValueRange `json:"data"`
}

// Client talks to the Sheets values API with a service-account token.
type Client struct {
	baseURL    string
	httpClient httpx.Doer
}

// NewClient builds a client from a service-account credentials file.
func NewClient(credentialsFile string) (*Client, error) {
	done := steplog.Start(Tag, "initialize sheets client")

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		err = fmt.Errorf("read credentials: %w", err)
		done(err)
		return nil, err
	}
	jwtCfg, err := google.JWTConfigFromJSON(data, scope)
	if err != nil {
		err = fmt.Errorf("parse credentials: %w", err)
		done(err)
		return nil, err
	}

	authClient := oauth2.NewClient(context.Background(), jwtCfg.TokenSource(context.Background()))
	authClient.Timeout = 60 * time.Second

	done(nil)
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpx.NewRetryClient(authClient, 3),
	}, nil
}

// NewClientWithDoer builds a client around an arbitrary Doer and base
// URL. Used by tests and by tooling that already holds credentials.
func NewClientWithDoer(baseURL string, doer httpx.Doer) *Client {
	return &Client{baseURL: baseURL, httpClient: doer}
}

// BatchGet fetches several ranges from one spreadsheet in a single call.
// The response preserves request order.
func (c *Client) BatchGet(ctx context.Context, spreadsheetID string, ranges []string) ([]ValueRange, error) {
	params := url.Values{}
	for _, r := range ranges {
		params.Add("ranges", r)
	}
	endpoint := fmt.Sprintf("/%s/values:batchGet?%s", spreadsheetID, params.Encode())

	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp batchGetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse batchGet response: %w", err)
	}
	return resp.ValueRanges, nil
}

// GetValues fetches a single range.
func (c *Client) GetValues(ctx context.Context, spreadsheetID, rng string) (ValueRange, error) {
	endpoint := fmt.Sprintf("/%s/values/%s", spreadsheetID, url.PathEscape(rng))

	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ValueRange{}, err
	}

	var vr ValueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return ValueRange{}, fmt.Errorf("parse values response: %w", err)
	}
	return vr, nil
}

// FirstRows fetches row 1 of each listed sheet tab in one batched call.
// The result preserves input order; a tab with an empty first row yields
// a nil slice.
func (c *Client) FirstRows(ctx context.Context, spreadsheetID string, titles []string) ([][]string, error) {
	ranges := make([]string, len(titles))
	for i, t := range titles {
		ranges[i] = t + "!1:1"
	}

	valueRanges, err := c.BatchGet(ctx, spreadsheetID, ranges)
	if err != nil {
		return nil, err
	}
	if len(valueRanges) != len(titles) {
		return nil, fmt.Errorf("batchGet returned %d ranges for %d requests", len(valueRanges), len(titles))
	}

	out := make([][]string, len(valueRanges))
	for i, vr := range valueRanges {
		if len(vr.Values) == 0 {
			continue
		}
		row := make([]string, len(vr.Values[0]))
		for j, cell := range vr.Values[0] {
			if s, ok := cell.(string); ok {
				row[j] = s
			} else {
				row[j] = fmt.Sprint(cell)
			}
		}
		out[i] = row
	}
	return out, nil
}

// BatchUpdate writes several ranges in one call with USER_ENTERED
// semantics, so formulas and locale numbers behave as if typed.
func (c *Client) BatchUpdate(ctx context.Context, spreadsheetID string, data []ValueRange) error {
	endpoint := fmt.Sprintf("/%s/values:batchUpdate", spreadsheetID)
	req := batchUpdateRequest{ValueInputOption: "USER_ENTERED", Data: data}

	_, err := c.doRequest(ctx, http.MethodPost, endpoint, req)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sheets API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
