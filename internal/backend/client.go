package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/opsdeck/opsdeck/internal/errors"
)

const maxResponseBytes = 4 << 20

// TokenSource supplies a bearer token for authenticated calls. The
// credential manager satisfies this.
type TokenSource interface {
	GetToken(ctx context.Context, scopes []string) (string, error)
}

// Client is the typed HTTP surface over the operations backend. The
// conversational endpoints live on BaseURL, the dashboard/report API on
// APIBaseURL; both default to the same host in most deployments.
type Client struct {
	BaseURL    string
	APIBaseURL string
	HTTP       *http.Client
	QueryHTTP  *http.Client // longer timeout for /query exchanges
	Tokens     TokenSource
	Scopes     []string
}

func NewClient(baseURL, apiBaseURL string, httpClient, queryClient *http.Client, tokens TokenSource, scopes []string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if queryClient == nil {
		queryClient = httpClient
	}
	if apiBaseURL == "" {
		apiBaseURL = baseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIBaseURL: strings.TrimRight(apiBaseURL, "/"),
		HTTP:       httpClient,
		QueryHTTP:  queryClient,
		Tokens:     tokens,
		Scopes:     scopes,
	}
}

// Query drives one conversational exchange.
func (c *Client) Query(ctx context.Context, userInput string) (string, error) {
	body, err := json.Marshal(QueryRequest{UserInput: userInput})
	if err != nil {
		return "", err
	}

	var decoded QueryResponse
	if err := c.do(ctx, c.QueryHTTP, http.MethodPost, c.BaseURL+"/query", bytes.NewReader(body), true, &decoded); err != nil {
		return "", err
	}
	if decoded.Response == "" {
		return "", errors.Malformed("query response missing response field")
	}
	return decoded.Response, nil
}

// Reset asks the backend to drop its conversational session state. The
// response body is ignored; callers treat any failure as advisory.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, c.HTTP, http.MethodPost, c.BaseURL+"/reset", nil, true, nil)
}

// Dashboard fetches the aggregate ticket/health payload.
func (c *Client) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	var decoded DashboardResponse
	if err := c.do(ctx, c.HTTP, http.MethodGet, c.APIBaseURL+"/api/dashboard", nil, true, &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

// Updates fetches the primary free-text notice feed.
func (c *Client) Updates(ctx context.Context) ([]NoticeItem, error) {
	return c.notices(ctx, c.BaseURL+"/updates")
}

// ShortLiveUpdates fetches the secondary, faster-cycling notice feed.
func (c *Client) ShortLiveUpdates(ctx context.Context) ([]NoticeItem, error) {
	return c.notices(ctx, c.BaseURL+"/shortliveupdates")
}

func (c *Client) notices(ctx context.Context, endpoint string) ([]NoticeItem, error) {
	var decoded []NoticeItem
	if err := c.do(ctx, c.HTTP, http.MethodGet, endpoint, nil, true, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// TicketRecommendation fetches per-ticket advisory text.
func (c *Client) TicketRecommendation(ctx context.Context, ticketID string) (string, error) {
	endpoint := c.APIBaseURL + "/api/ticket-recommendation/" + url.PathEscape(ticketID)

	var decoded RecommendationResponse
	if err := c.do(ctx, c.HTTP, http.MethodGet, endpoint, nil, true, &decoded); err != nil {
		return "", err
	}
	return decoded.Recommendation, nil
}

// DailyReport fetches the server-composed daily summary document.
func (c *Client) DailyReport(ctx context.Context) (*DailyReport, error) {
	var decoded DailyReport
	if err := c.do(ctx, c.HTTP, http.MethodGet, c.APIBaseURL+"/api/daily_report", nil, true, &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, method, endpoint string, body io.Reader, authenticated bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		token, err := c.Tokens.GetToken(ctx, c.Scopes)
		if err != nil {
			return fmt.Errorf("acquire token for %s: %w", endpoint, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Network(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Backend(resp.StatusCode, method+" "+endpoint)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return errors.Malformed(fmt.Sprintf("decode %s response: %v", endpoint, err))
	}
	return nil
}
