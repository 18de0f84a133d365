package publish

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/samircd4/bookspointer/internal/catalog"
	"github.com/samircd4/bookspointer/internal/category"
)

const publishURL = "https://publisher.example/api/books"

type fakeCatalog struct {
	mu       sync.Mutex
	users    []catalog.User
	unposted []catalog.Book
	books    map[int]catalog.Book
	posted   []int
	fetchErr error
}

func (f *fakeCatalog) ListUsers(context.Context) ([]catalog.User, error) {
	return f.users, nil
}

func (f *fakeCatalog) UnpostedBooks(context.Context) ([]catalog.Book, error) {
	return f.unposted, nil
}

func (f *fakeCatalog) GetBook(_ context.Context, bookID int) (catalog.Book, error) {
	if f.fetchErr != nil {
		return catalog.Book{}, f.fetchErr
	}
	return f.books[bookID], nil
}

func (f *fakeCatalog) MarkPosted(_ context.Context, bookID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, bookID)
	return nil
}

func newTestPublisher(t *testing.T, cat *fakeCatalog) *Publisher {
	t.Helper()
	p := New(Config{
		CreateBookURL: publishURL,
		Timeout:       5 * time.Second,
	}, cat, rand.New(rand.NewSource(1)), zap.NewNop())

	httpmock.ActivateNonDefault(p.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return p
}

func TestTokenPool_KeepsOnlyVerifiedTokens(t *testing.T) {
	cat := &fakeCatalog{users: []catalog.User{
		{UserID: 1, Token: "tok-a", IsVerified: true},
		{UserID: 2, Token: "tok-b", IsVerified: false},
		{UserID: 3, Token: "", IsVerified: true},
		{UserID: 4, Token: "tok-d", IsVerified: true},
	}}

	tokens, err := TokenPool(context.Background(), cat, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"tok-a", "tok-d"}, tokens)
}

func TestPost_SuccessMarksPosted(t *testing.T) {
	cat := &fakeCatalog{}
	p := newTestPublisher(t, cat)

	var got envelope
	var auth string
	httpmock.RegisterResponder(http.MethodPost, publishURL,
		func(req *http.Request) (*http.Response, error) {
			auth = req.Header.Get("Authorization")
			require.NoError(t, req.ParseMultipartForm(1<<20))
			require.NoError(t, json.Unmarshal([]byte(req.FormValue("data")), &got))
			return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{
				"last_book": map[string]any{"id": 99},
			})
		})

	msg, err := p.Post(context.Background(), catalog.Book{
		BookID:     42,
		Title:      "দেয়াল",
		AuthorID:   11,
		Category:   "উপন্যাস",
		CategoryID: 3,
		Content:    "<div>body</div>",
	}, "tok-a")
	require.NoError(t, err)
	require.Equal(t, "Book created with ID: 99", msg)
	require.Equal(t, "Bearer tok-a", auth)

	require.Equal(t, "দেয়াল", got.Title)
	require.Equal(t, 3, got.Category.ID)
	require.Equal(t, 11, got.Author.ID)
	require.Equal(t, []string{}, got.Tags)
	require.Empty(t, got.SeriesName)
	require.Equal(t, []int{42}, cat.posted)
}

func TestPost_IncompleteCategorySetsSeries(t *testing.T) {
	cat := &fakeCatalog{}
	p := newTestPublisher(t, cat)

	var got envelope
	httpmock.RegisterResponder(http.MethodPost, publishURL,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			require.NoError(t, json.Unmarshal([]byte(req.FormValue("data")), &got))
			return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{
				"last_book": map[string]any{"id": 1},
			})
		})

	_, err := p.Post(context.Background(), catalog.Book{
		BookID:   7,
		Title:    "আংশিক",
		Category: category.IncompleteLabel,
	}, "tok-a")
	require.NoError(t, err)
	require.Equal(t, category.IncompleteLabel, got.SeriesName)
}

func TestPost_PlatformErrorStillMarksPosted(t *testing.T) {
	cat := &fakeCatalog{}
	p := newTestPublisher(t, cat)

	httpmock.RegisterResponder(http.MethodPost, publishURL,
		httpmock.NewStringResponder(http.StatusBadRequest, `{"message":"title already exists"}`))

	msg, err := p.Post(context.Background(), catalog.Book{BookID: 5, Title: "দ্বৈত"}, "tok-a")
	require.NoError(t, err)
	require.Equal(t, "title already exists", msg)
	require.Equal(t, []int{5}, cat.posted)
}

func TestPost_TransportErrorLeavesFlagUnset(t *testing.T) {
	cat := &fakeCatalog{}
	p := newTestPublisher(t, cat)

	httpmock.RegisterResponder(http.MethodPost, publishURL,
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	_, err := p.Post(context.Background(), catalog.Book{BookID: 5, Title: "অফলাইন"}, "tok-a")
	require.Error(t, err)
	require.Empty(t, cat.posted)
}

func TestRun_RotatesTokensAcrossBooks(t *testing.T) {
	cat := &fakeCatalog{
		users: []catalog.User{
			{UserID: 1, Token: "tok-a", IsVerified: true},
			{UserID: 2, Token: "tok-b", IsVerified: true},
		},
		unposted: []catalog.Book{
			{BookID: 1, Title: "এক"},
			{BookID: 2, Title: "দুই"},
			{BookID: 3, Title: "তিন"},
		},
		books: map[int]catalog.Book{
			1: {BookID: 1, Title: "এক", Content: "a"},
			2: {BookID: 2, Title: "দুই", Content: "b"},
			3: {BookID: 3, Title: "তিন", Content: "c"},
		},
	}
	p := newTestPublisher(t, cat)

	var mu sync.Mutex
	var auths []string
	httpmock.RegisterResponder(http.MethodPost, publishURL,
		func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			auths = append(auths, req.Header.Get("Authorization"))
			mu.Unlock()
			return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{
				"last_book": map[string]any{"id": 1},
			})
		})

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, auths, 3)
	// Two tokens over three books: the first token comes around again.
	require.Equal(t, auths[0], auths[2])
	require.NotEqual(t, auths[0], auths[1])
	require.ElementsMatch(t, []int{1, 2, 3}, cat.posted)
}

func TestRun_NoVerifiedTokens(t *testing.T) {
	cat := &fakeCatalog{users: []catalog.User{{UserID: 1, Token: "t", IsVerified: false}}}
	p := newTestPublisher(t, cat)

	require.Error(t, p.Run(context.Background()))
}

func TestRun_FetchFailureSkipsBook(t *testing.T) {
	cat := &fakeCatalog{
		users:    []catalog.User{{UserID: 1, Token: "tok-a", IsVerified: true}},
		unposted: []catalog.Book{{BookID: 1, Title: "এক"}},
		fetchErr: context.DeadlineExceeded,
	}
	p := newTestPublisher(t, cat)

	httpmock.RegisterResponder(http.MethodPost, publishURL,
		httpmock.NewStringResponder(http.StatusCreated, `{}`))

	require.NoError(t, p.Run(context.Background()))
	require.Zero(t, httpmock.GetTotalCallCount())
	require.Empty(t, cat.posted)
}
