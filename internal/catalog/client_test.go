package catalog

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
	c := New("http://catalog.local", 5*time.Second, zap.NewNop())
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestCreateBook_Requires201AndID(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, "http://catalog.local/books/",
		httpmock.NewJsonResponderOrPanic(201, map[string]any{"book_id": 42}))

	id, err := c.CreateBook(context.Background(), Book{BookID: 42, Title: "বই"})
	require.NoError(t, err)
	require.Equal(t, 42, id)
}

func TestCreateBook_NonCreatedStatusIsError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, "http://catalog.local/books/",
		httpmock.NewJsonResponderOrPanic(400, map[string]any{"message": "title already exists"}))

	_, err := c.CreateBook(context.Background(), Book{Title: "dup"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "title already exists")
}

func TestListBooks_StripsContent(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, "http://catalog.local/books/",
		httpmock.NewJsonResponderOrPanic(200, []map[string]any{
			{"book_id": 1, "title": "এক", "content": "<p>big</p>", "is_posted": false},
			{"book_id": 2, "title": "দুই", "content": "<p>body</p>", "is_posted": true},
		}))

	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	for _, b := range books {
		require.Empty(t, b.Content)
	}
}

func TestUnpostedBooks_FiltersPosted(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, "http://catalog.local/books/",
		httpmock.NewJsonResponderOrPanic(200, []map[string]any{
			{"book_id": 1, "title": "এক", "is_posted": false},
			{"book_id": 2, "title": "দুই", "is_posted": true},
			{"book_id": 3, "title": "তিন", "is_posted": false},
		}))

	books, err := c.UnpostedBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.Equal(t, 1, books[0].BookID)
	require.Equal(t, 3, books[1].BookID)
}

func TestMarkPosted_PatchesFlag(t *testing.T) {
	c := newTestClient(t)

	var patched map[string]any
	httpmock.RegisterResponder(http.MethodPatch, "http://catalog.local/books/7/",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&patched); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(200, map[string]any{"success": true})
		})

	require.NoError(t, c.MarkPosted(context.Background(), 7))
	require.Equal(t, map[string]any{"is_posted": true}, patched)
}

func TestCreateAuthor_SurfacesAPIError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, "http://catalog.local/authors/",
		httpmock.NewStringResponder(500, "boom"))

	err := c.CreateAuthor(context.Background(), Author{AuthorID: "9", AuthorName: "নাম"})
	require.Error(t, err)
}

func TestListUsers_DecodesTokens(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, "http://catalog.local/users/",
		httpmock.NewJsonResponderOrPanic(200, []map[string]any{
			{"user_id": 1, "token": "tok-a", "is_verified": true},
			{"user_id": 2, "token": "tok-b", "is_verified": false},
		}))

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.True(t, users[0].IsVerified)
	require.Equal(t, "tok-b", users[1].Token)
}
