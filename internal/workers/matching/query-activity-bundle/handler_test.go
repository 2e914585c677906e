package queryactivitybundle

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"edunet-workers/internal/common/logger"
)

// stubTransport serves a canned Elasticsearch response.
type stubTransport struct {
	status int
	body   string
	err    error
}

func (s *stubTransport) RoundTrip(*http.Request) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}},
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func newStubES(t *testing.T, transport http.RoundTripper) *elasticsearch.Client {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://elasticsearch.invalid:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return client
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func searchHitsBody() string {
	return `{
		"hits": {
			"hits": [
				{"_source": {"id": "search-1", "userId": "institute-123", "query": "robotica educativa", "occurredAt": "2024-05-10T09:30:00Z"}},
				{"_source": {"id": "search-2", "userId": "institute-123", "query": "laboratorio fisica", "occurredAt": "2024-05-09T14:00:00Z"}}
			]
		}
	}`
}

func expectPosts(mock sqlmock.Sqlmock, userID string) {
	rows := sqlmock.NewRows([]string{"id", "author_id", "tags", "themes", "created_at"}).
		AddRow("post-1", userID, "{stem,robotica}", "{tecnologia}", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	mock.ExpectQuery(`SELECT id, author_id, tags, themes, created_at FROM posts WHERE author_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(userID, 50).
		WillReturnRows(rows)
}

func expectProjects(mock sqlmock.Sqlmock, userID string) {
	rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "methodologies", "themes", "project_type", "created_at"}).
		AddRow("project-1", userID, "Orto botanico", "{pbl}", "{scienza}", "laboratorio", time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC))
	mock.ExpectQuery(`SELECT id, owner_id, title, methodologies, themes, project_type, created_at FROM projects WHERE owner_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(userID, 30).
		WillReturnRows(rows)
}

func expectInteractions(mock sqlmock.Sqlmock, userID string) {
	rows := sqlmock.NewRows([]string{"id", "user_id", "target_id", "target_type", "action", "keywords", "occurred_at"}).
		AddRow("event-1", userID, "post-9", "post", "like", "{stem}", time.Date(2024, 5, 2, 16, 0, 0, 0, time.UTC))
	mock.ExpectQuery(`SELECT id, user_id, target_id, target_type, action, keywords, occurred_at FROM interactions WHERE user_id = \$1 ORDER BY occurred_at DESC LIMIT \$2`).
		WithArgs(userID, 100).
		WillReturnRows(rows)
}

func TestHandler_Execute_FullBundle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := "institute-123"
	expectPosts(mock, userID)
	expectProjects(mock, userID)
	expectInteractions(mock, userID)

	es := newStubES(t, &stubTransport{status: http.StatusOK, body: searchHitsBody()})
	handler := NewHandler(LoadConfig(), db, es, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{UserID: userID})

	assert.NoError(t, err)
	assert.Empty(t, output.Degraded)
	assert.Equal(t, userID, output.Activity.UserID)
	assert.Len(t, output.Activity.Posts, 1)
	assert.Len(t, output.Activity.Projects, 1)
	assert.Len(t, output.Activity.Interactions, 1)
	assert.Len(t, output.Activity.Searches, 2)
	assert.Equal(t, "robotica educativa", output.Activity.Searches[0].Query)
	assert.Equal(t, []string{"stem", "robotica"}, output.Activity.Posts[0].Tags)
	assert.False(t, output.Activity.FetchedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DegradedSources(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := "institute-123"
	mock.ExpectQuery(`SELECT id, author_id, tags, themes, created_at FROM posts`).
		WithArgs(userID, 50).
		WillReturnError(errors.New("connection reset"))
	expectProjects(mock, userID)
	expectInteractions(mock, userID)

	es := newStubES(t, &stubTransport{err: errors.New("cluster unreachable")})
	handler := NewHandler(LoadConfig(), db, es, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{UserID: userID})

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"posts", "searches"}, output.Degraded)
	assert.Empty(t, output.Activity.Posts)
	assert.Empty(t, output.Activity.Searches)
	assert.Len(t, output.Activity.Projects, 1)
	assert.Len(t, output.Activity.Interactions, 1)
}

func TestHandler_Execute_AllSourcesDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := "institute-123"
	dbErr := errors.New("database down")
	mock.ExpectQuery(`FROM posts`).WillReturnError(dbErr)
	mock.ExpectQuery(`FROM projects`).WillReturnError(dbErr)
	mock.ExpectQuery(`FROM interactions`).WillReturnError(dbErr)

	handler := NewHandler(LoadConfig(), db, nil, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{UserID: userID})

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"posts", "projects", "interactions", "searches"}, output.Degraded)
	assert.Equal(t, float64(0), output.Activity.DataPoints())
}

func TestHandler_Execute_MissingUserID(t *testing.T) {
	handler := NewHandler(LoadConfig(), nil, nil, createTestLogger(t))

	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil input", input: nil},
		{name: "empty user id", input: &Input{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrMissingUserID)
			assert.Nil(t, output)
		})
	}
}

func TestHandler_Execute_SearchErrorResponse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := "institute-123"
	expectPosts(mock, userID)
	expectProjects(mock, userID)
	expectInteractions(mock, userID)

	es := newStubES(t, &stubTransport{status: http.StatusInternalServerError, body: `{"error":"boom"}`})
	handler := NewHandler(LoadConfig(), db, es, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{UserID: userID})

	assert.NoError(t, err)
	assert.Contains(t, output.Degraded, "searches")
	assert.Empty(t, output.Activity.Searches)
}
