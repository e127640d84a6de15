package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shillz96/carfinderai/internal/lead"
)

const crmBase = "https://crm.test/v1"

func newTestCRM(t *testing.T) *Client {
	t.Helper()
	c := New(Config{BaseURL: crmBase, APIKey: "key", AccountID: "acct-1"}, nil)
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func crmLead() lead.Lead {
	return lead.Lead{
		Title:       "2020 Toyota Camry - Excellent",
		Year:        2020,
		Make:        "Toyota",
		Model:       "Camry",
		Price:       "22500",
		Source:      "Craigslist",
		ListingURL:  "https://example.org/1",
		Description: "One owner",
		SellerPhone: "+18085551234",
		DatePosted:  "2026-08-29",
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	c := newTestCRM(t)

	httpmock.RegisterResponder(http.MethodGet, crmBase+"/accounts/acct-1",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer key", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(200, map[string]any{"id": "acct-1"})
		})

	assert.True(t, c.Authenticate(context.Background()))
}

func TestAuthenticateRejected(t *testing.T) {
	c := newTestCRM(t)

	httpmock.RegisterResponder(http.MethodGet, crmBase+"/accounts/acct-1",
		httpmock.NewStringResponder(401, "bad key"))

	assert.False(t, c.Authenticate(context.Background()))
}

func TestCreateLeadSuccess(t *testing.T) {
	c := newTestCRM(t)

	var got map[string]any
	httpmock.RegisterResponder(http.MethodPost, crmBase+"/leads",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewJsonResponse(201, map[string]any{"id": "TH-789"})
		})

	ok, id := c.CreateLead(context.Background(), crmLead())
	assert.True(t, ok)
	assert.Equal(t, "TH-789", id)

	assert.Equal(t, "Used Car Lead - 2020 Toyota Camry", got["title"])
	contact, isMap := got["contact"].(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, "+18085551234", contact["phone"])
	fields, isMap := got["customFields"].(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, "https://example.org/1", fields["listing_url"])
}

func TestCreateLeadOmitsEmptyContact(t *testing.T) {
	c := newTestCRM(t)

	var got map[string]any
	httpmock.RegisterResponder(http.MethodPost, crmBase+"/leads",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewJsonResponse(200, map[string]any{"lead_id": "TH-1"})
		})

	l := crmLead()
	l.SellerPhone = ""
	ok, id := c.CreateLead(context.Background(), l)
	assert.True(t, ok)
	assert.Equal(t, "TH-1", id)
	_, hasContact := got["contact"]
	assert.False(t, hasContact)
}

func TestCreateLeadRejected(t *testing.T) {
	c := newTestCRM(t)

	httpmock.RegisterResponder(http.MethodPost, crmBase+"/leads",
		httpmock.NewStringResponder(422, `{"error":"missing source"}`))

	ok, reason := c.CreateLead(context.Background(), crmLead())
	assert.False(t, ok)
	assert.Contains(t, reason, "422")
	assert.Contains(t, reason, "missing source")
}

func TestCreateLeadUnknownYear(t *testing.T) {
	c := newTestCRM(t)

	var got map[string]any
	httpmock.RegisterResponder(http.MethodPost, crmBase+"/leads",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewJsonResponse(201, map[string]any{"id": "TH-2"})
		})

	l := crmLead()
	l.Year = 0
	ok, _ := c.CreateLead(context.Background(), l)
	assert.True(t, ok)
	assert.Equal(t, "Used Car Lead - Unknown Toyota Camry", got["title"])
}
