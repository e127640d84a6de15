package sheets

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

const (
	testBase  = "https://sheets.test/v4"
	testSheet = "sheet-123"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := New(Config{BaseURL: testBase, SheetID: testSheet, Token: "tok"}, nil)
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestGetAllDecodesValues(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet,
		testBase+"/spreadsheets/"+testSheet+"/values/Leads%21A:M",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"values": [][]string{{"Timestamp", "Title"}, {"2026-08-30", "2020 Camry"}},
		}))

	values, err := c.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "2020 Camry", values[1][1])
}

func TestGetAllSendsBearerToken(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet,
		testBase+"/spreadsheets/"+testSheet+"/values/Leads%21A:M",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(200, map[string]any{"values": [][]string{}})
		})

	_, err := c.GetAll(context.Background())
	require.NoError(t, err)
}

func TestAppendPostsRows(t *testing.T) {
	c := newTestClient(t)

	var got valuesRequest
	httpmock.RegisterResponder(http.MethodPost,
		testBase+"/spreadsheets/"+testSheet+"/values/Leads%21A:M:append",
		func(req *http.Request) (*http.Response, error) {
			assert.Contains(t, req.URL.RawQuery, "valueInputOption=USER_ENTERED")
			assert.Contains(t, req.URL.RawQuery, "insertDataOption=INSERT_ROWS")
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewJsonResponse(200, map[string]any{})
		})

	err := c.Append(context.Background(), [][]string{{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, got.Values, 1)
	assert.Equal(t, []string{"a", "b"}, got.Values[0])
}

func TestUpdateCellPutsSingleValue(t *testing.T) {
	c := newTestClient(t)

	var got valuesRequest
	httpmock.RegisterResponder(http.MethodPut,
		testBase+"/spreadsheets/"+testSheet+"/values/Leads%21L5",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewJsonResponse(200, map[string]any{})
		})

	err := c.UpdateCell(context.Background(), 5, "L", "Sent to Thryv")
	require.NoError(t, err)
	require.Len(t, got.Values, 1)
	assert.Equal(t, []string{"Sent to Thryv"}, got.Values[0])
}

func TestErrorStatusBecomesRemoteError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet,
		testBase+"/spreadsheets/"+testSheet+"/values/Leads%21A:M",
		httpmock.NewStringResponder(503, "overloaded"))

	_, err := c.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, lead.IsTransient(err))

	httpmock.Reset()
	httpmock.RegisterResponder(http.MethodGet,
		testBase+"/spreadsheets/"+testSheet+"/values/Leads%21A:M",
		httpmock.NewStringResponder(401, "expired"))

	_, err = c.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, lead.IsAuthError(err))
}

func TestCreateProvisionsAndSwitchesSheet(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/spreadsheets",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"spreadsheetId": "fresh-id"}))
	httpmock.RegisterResponder(http.MethodPost,
		testBase+"/spreadsheets/fresh-id:batchUpdate",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{}))
	httpmock.RegisterResponder(http.MethodPut,
		testBase+"/spreadsheets/fresh-id/values/Leads%21A1",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{}))

	id, err := c.Create(context.Background(), lead.Header)
	require.NoError(t, err)
	assert.Equal(t, "fresh-id", id)
	assert.Equal(t, "fresh-id", c.SheetID())
}

func TestRefreshAuthSwapsToken(t *testing.T) {
	c := New(Config{
		BaseURL: testBase,
		SheetID: testSheet,
		Token:   "old",
		Refresher: func(context.Context) (string, error) {
			return "new", nil
		},
	}, nil)
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)

	require.NoError(t, c.RefreshAuth(context.Background()))

	httpmock.RegisterResponder(http.MethodGet,
		testBase+"/spreadsheets/"+testSheet+"/values/Leads%21A:M",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer new", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(200, map[string]any{"values": [][]string{}})
		})
	_, err := c.GetAll(context.Background())
	require.NoError(t, err)
}

func TestRefreshAuthWithoutRefresher(t *testing.T) {
	c := New(Config{BaseURL: testBase, SheetID: testSheet}, nil)
	assert.Error(t, c.RefreshAuth(context.Background()))
}
