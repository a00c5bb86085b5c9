package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superself/amazon-monitor/internal/gsheets"
	"github.com/superself/amazon-monitor/internal/models"
)

func registryServer(t *testing.T, values [][]interface{}) *gsheets.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gsheets.ValueRange{Values: values})
	}))
	t.Cleanup(server.Close)
	return gsheets.NewClientWithDoer(server.URL, server.Client())
}

func TestLoadRegistry(t *testing.T) {
	client := registryServer(t, [][]interface{}{
		{"asin", "sheet", "campaign", "helium_id"},
		{"B0AAA111", "Widget", "widget-uk", "4242"},
		{"", "Orphan", "orphan-uk", "1"},              // no asin: skipped
		{"B0BBB222", "Gadget", "gadget-uk", "oops"},   // bad id: kept, id 0
		{"B0CCC333"},                                  // asin only
	})

	products, err := Load(context.Background(), client, "sheet-id", models.RegionUK)
	require.NoError(t, err)
	require.Len(t, products, 3)

	widget := models.ByASIN(products, "B0AAA111")
	require.NotNil(t, widget)
	assert.Equal(t, "Widget", widget.SheetTitle)
	assert.Equal(t, "widget-uk", widget.Campaign.Name)
	assert.Equal(t, 4242, widget.Helium.ID)
	assert.Equal(t, models.RowNotFound, widget.RowIndex)

	gadget := models.ByASIN(products, "B0BBB222")
	require.NotNil(t, gadget)
	assert.Equal(t, 0, gadget.Helium.ID)

	bare := models.ByASIN(products, "B0CCC333")
	require.NotNil(t, bare)
	assert.Empty(t, bare.SheetTitle)
}

func TestLoadRegistryEmptyTab(t *testing.T) {
	client := registryServer(t, [][]interface{}{
		{"asin", "sheet", "campaign", "helium_id"},
	})

	_, err := Load(context.Background(), client, "sheet-id", models.RegionUK)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no products")
}
