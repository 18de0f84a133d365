package source

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := New("http://source.local", 248, 1, 200, 5*time.Second, zap.NewNop())
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestAuthors_SendsPagedRequestBody(t *testing.T) {
	c := newTestClient(t)

	var got map[string]any
	httpmock.RegisterResponder(http.MethodPost, "http://source.local/authors",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(200, map[string]any{
				"authors": []map[string]any{
					{"id": 11, "firstName": "হুমায়ূন", "lastName": "আহমেদ"},
				},
			})
		})

	authors, err := c.Authors(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	require.Equal(t, 11, authors[0].ID)
	require.Equal(t, "হুমায়ূন আহমেদ", authors[0].FullName())

	require.EqualValues(t, 248, got["userId"])
	require.EqualValues(t, 3, got["page"])
	require.EqualValues(t, 200, got["limit"])
}

func TestAuthors_EmptyPageSignalsEnd(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, "http://source.local/authors",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"authors": []any{}}))

	authors, err := c.Authors(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, authors)
}

func TestAuthors_NonOKIsError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, "http://source.local/authors",
		httpmock.NewStringResponder(502, "bad gateway"))

	_, err := c.Authors(context.Background(), 1)
	require.Error(t, err)
}
