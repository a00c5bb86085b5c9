package helium

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superself/amazon-monitor/internal/config"
	"github.com/superself/amazon-monitor/internal/models"
)

func TestWeekWindow(t *testing.T) {
	// Tuesday 7 Jan 2025: the window is the prior Mon..Sun full week.
	start, end, err := weekWindow("07/Jan/25")
	require.NoError(t, err)

	wantEnd := time.Date(2025, 1, 5, 0, 0, 0, 0, time.Local)
	wantStart := time.Date(2024, 12, 30, 0, 0, 0, 0, time.Local)
	assert.Equal(t, wantStart.Unix(), start)
	assert.Equal(t, wantEnd.Unix(), end)

	_, _, err = weekWindow("2025-01-07")
	assert.Error(t, err)
}

func TestExtractKeywords(t *testing.T) {
	row := []string{"Date", "Other Sales", "widget", "", "kw2", "search term", "blue widget", "widget uk"}
	assert.Equal(t, []string{"widget", "blue widget", "widget uk"}, extractKeywords(row))

	row = []string{"Date", "Target Search Term: main", "skip", "blue widget"}
	assert.Equal(t, []string{"blue widget"}, extractKeywords(row))

	assert.Nil(t, extractKeywords([]string{"Date", "Sessions", "Units"}))
	assert.Nil(t, extractKeywords(nil))
}

func TestParseRanksMean(t *testing.T) {
	csvText := "Keyword,Organic Rank\nWidget,4\nwidget,6\nblue widget,12\n"
	ranks, err := parseRanks(csvText)
	require.NoError(t, err)

	p := &models.Product{Helium: models.Helium{Ranks: []models.KeywordRank{
		{Word: "Widget"},
		{Word: "blue widget"},
		{Word: "missing"},
	}}}
	applied := applyRanks(p, ranks)

	assert.Equal(t, 2, applied)
	assert.Equal(t, 5.0, p.Helium.Ranks[0].Rank)
	assert.Equal(t, 12.0, p.Helium.Ranks[1].Rank)
	assert.Equal(t, 0.0, p.Helium.Ranks[2].Rank)
}

func TestParseRanksMissingColumns(t *testing.T) {
	_, err := parseRanks("Keyword,Position\nwidget,4\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Organic Rank")

	_, err = parseRanks("Keyword,Organic Rank\n")
	assert.Error(t, err)
}

func exportEnvelope(csvText string) string {
	payload := map[string]interface{}{
		"code": 200,
		"data": map[string]interface{}{
			"results": map[string]interface{}{"csv": csvText},
		},
	}
	out, _ := json.Marshal(payload)
	return string(out)
}

func testClient(serverURL string, server *httptest.Server) *Client {
	c := NewClient(config.HeliumConfig{
		AccountID:      77,
		AuthToken:      "auth",
		PacvueToken:    "pacvue",
		BaseURL:        serverURL,
		TimeoutSeconds: 5,
		Concurrency:    2,
	})
	c.SetHTTPClient(server.Client())
	return c
}

func TestFetchWeeklyRanks(t *testing.T) {
	var mu sync.Mutex
	var gotAuth, gotPacvue, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotPacvue = r.Header.Get("X-Pacvue-Token")
		gotQuery = r.URL.RawQuery
		mu.Unlock()
		switch {
		case strings.Contains(r.URL.Path, "/products/1/"):
			fmt.Fprint(w, exportEnvelope("Keyword,Organic Rank\nwidget,4\nwidget,6\n"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	good := &models.Product{ASIN: "A1", Helium: models.Helium{ID: 1,
		Ranks: []models.KeywordRank{{Word: "widget"}}}}
	broken := &models.Product{ASIN: "A2", Helium: models.Helium{ID: 2,
		Ranks: []models.KeywordRank{{Word: "gadget"}}}}
	noID := &models.Product{ASIN: "A3", Helium: models.Helium{
		Ranks: []models.KeywordRank{{Word: "gizmo"}}}}

	c := testClient(server.URL, server)
	err := c.FetchWeeklyRanks(context.Background(), []*models.Product{good, broken, noID}, "07/Jan/25")
	require.NoError(t, err)

	assert.Equal(t, 5.0, good.Helium.Ranks[0].Rank)
	assert.Equal(t, 0.0, broken.Helium.Ranks[0].Rank)
	assert.Equal(t, 0.0, noID.Helium.Ranks[0].Rank)

	assert.Equal(t, "Bearer auth", gotAuth)
	assert.Equal(t, "Bearer pacvue", gotPacvue)
	assert.Contains(t, gotQuery, "accountId=77")
}

func TestFetchWeeklyRanksAllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := &models.Product{ASIN: "A1", Helium: models.Helium{ID: 1,
		Ranks: []models.KeywordRank{{Word: "widget"}}}}

	c := testClient(server.URL, server)
	err := c.FetchWeeklyRanks(context.Background(), []*models.Product{p}, "07/Jan/25")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keyword ranks")
}

func TestFetchWeeklyRanksEnvelopeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":403,"data":{"results":{"csv":""}}}`)
	}))
	defer server.Close()

	p := &models.Product{ASIN: "A1", Helium: models.Helium{ID: 1,
		Ranks: []models.KeywordRank{{Word: "widget"}}}}

	c := testClient(server.URL, server)
	err := c.FetchWeeklyRanks(context.Background(), []*models.Product{p}, "07/Jan/25")
	require.Error(t, err)
}
