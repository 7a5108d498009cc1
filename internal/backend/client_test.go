package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/errors"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) GetToken(ctx context.Context, scopes []string) (string, error) {
	s.calls++
	return s.token, s.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server, *staticTokens) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := &staticTokens{token: "tok-1"}
	client := NewClient(server.URL, server.URL, server.Client(), server.Client(), tokens, []string{"api://backend/access_as_user"})
	return client, server, tokens
}

func TestQuerySendsBearerAndBody(t *testing.T) {
	client, _, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"user_input":"restart vm web-01"}`, string(body))

		json.NewEncoder(w).Encode(QueryResponse{Response: "Restarting web-01 now."})
	})

	got, err := client.Query(context.Background(), "restart vm web-01")
	require.NoError(t, err)
	assert.Equal(t, "Restarting web-01 now.", got)
	assert.Equal(t, 1, tokens.calls)
}

func TestQueryNonSuccessStatus(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Query(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBackend)
}

func TestQueryTokenFailureAbortsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	tokens := &staticTokens{err: errors.NotAuthenticated("no active identity")}
	client := NewClient(server.URL, server.URL, server.Client(), nil, tokens, nil)

	_, err := client.Query(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)
	assert.False(t, called, "request must not be sent without a token")
}

func TestQueryNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(server.URL, server.URL, server.Client(), nil, &staticTokens{token: "tok"}, nil)
	server.Close()

	_, err := client.Query(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNetwork)
}

func TestDashboardDecode(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard", r.URL.Path)
		io.WriteString(w, `{
			"myAndGroupTickets":[{"key":"OPS-1","summary":"Disk pressure","assignee":"Alice","status":"In Progress"}],
			"highCritical":[],
			"serviceHealth":[{"trackingId":"SH-1","issueName":"Storage latency","level":"warning"}]
		}`)
	})

	dash, err := client.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, dash.MyAndGroupTickets, 1)
	assert.Equal(t, "OPS-1", dash.MyAndGroupTickets[0].Key)
	assert.Empty(t, dash.HighCritical)
	require.Len(t, dash.ServiceHealth, 1)
	assert.Equal(t, "SH-1", dash.ServiceHealth[0].TrackingID)
}

func TestDashboardMalformedPayload(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>gateway error</html>`)
	})

	_, err := client.Dashboard(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMalformedResponse)
}

func TestNoticeFeeds(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/updates":
			io.WriteString(w, `[{"text":"Patch window Saturday","type":"maintenance"}]`)
		case "/shortliveupdates":
			io.WriteString(w, `[{"text":"Deploy frozen until 14:00"}]`)
		default:
			http.NotFound(w, r)
		}
	})

	updates, err := client.Updates(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "Patch window Saturday", updates[0].Text)

	short, err := client.ShortLiveUpdates(context.Background())
	require.NoError(t, err)
	require.Len(t, short, 1)
	assert.Empty(t, short[0].Type)
}

func TestTicketRecommendationEscapesID(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ticket-recommendation/OPS-42", r.URL.Path)
		json.NewEncoder(w).Encode(RecommendationResponse{Recommendation: "Check the disk quota."})
	})

	rec, err := client.TicketRecommendation(context.Background(), "OPS-42")
	require.NoError(t, err)
	assert.Equal(t, "Check the disk quota.", rec)
}

func TestDailyReportDecode(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/daily_report", r.URL.Path)
		io.WriteString(w, `{
			"date":"2026-08-31",
			"assignedToday":{"count":2,"tickets":[{"key":"OPS-1","summary":"a"},{"key":"OPS-2","summary":"b"}]},
			"resolvedToday":{"count":1,"tickets":[{"key":"OPS-0","summary":"c"}]},
			"chatbotActions":7,
			"userName":"Alice"
		}`)
	})

	report, err := client.DailyReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.AssignedToday.Count)
	assert.Equal(t, 1, report.ResolvedToday.Count)
	assert.Equal(t, "Alice", report.UserName)
}

func TestResetIgnoresBody(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/reset", r.URL.Path)
		io.WriteString(w, "ok")
	})

	require.NoError(t, client.Reset(context.Background()))
}
