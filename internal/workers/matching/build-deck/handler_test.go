package builddeck

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/matching/deck"
	"edunet-workers/internal/models"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return server, client
}

func testRequester() *models.Profile {
	return &models.Profile{
		ID:       "institute-123",
		Name:     "Liceo Scientifico Volta",
		Type:     "institute",
		City:     "Milano",
		Province: "Milano",
		Region:   "Lombardia",
		Tags:     []string{"stem", "robotica"},
		Themes:   []string{"scienza", "tecnologia"},
	}
}

func testCandidates() []models.Profile {
	return []models.Profile{
		{
			ID: "institute-remote", Name: "IC Palermo Centro", Type: "institute",
			City: "Palermo", Region: "Sicilia",
			Tags: []string{"musica"}, Themes: []string{"arte"},
		},
		{
			ID: "institute-close", Name: "ITIS Galilei", Type: "institute",
			City: "Milano", Province: "Milano", Region: "Lombardia",
			Tags: []string{"stem", "robotica"}, Themes: []string{"tecnologia"},
		},
	}
}

func TestHandler_Execute_InlineCandidates(t *testing.T) {
	server, client := newTestRedis(t)
	defer client.Close()

	handler := NewHandler(LoadConfig(), nil, client, createTestLogger(t))

	input := &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
		Candidates:       testCandidates(),
	}

	output, err := handler.execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, "inline", output.Source)
	assert.Equal(t, 2, output.DeckSize)
	assert.Equal(t, "deck:session:institute-123", output.SessionKey)

	// The nearby look-alike institute must outrank the distant one.
	require.NotEmpty(t, output.Visible)
	assert.Equal(t, "institute-close", output.Visible[0].Profile.ID)

	// Session persisted with a TTL.
	stored, err := server.Get("deck:session:institute-123")
	require.NoError(t, err)
	var session models.DeckSession
	require.NoError(t, json.Unmarshal([]byte(stored), &session))
	assert.Equal(t, "institute-123", session.UserID)
	assert.Len(t, session.Candidates, 2)
	assert.Equal(t, 0, session.Cursor)
	assert.Greater(t, server.TTL("deck:session:institute-123"), time.Duration(0))
}

func TestHandler_Execute_StoreCandidates(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{
		"id", "name", "type", "city", "province", "region", "description",
		"tags", "interests", "methodologies", "themes", "project_types",
	}
	mock.ExpectQuery(`SELECT id, name, type, city, province, region, description, tags, interests, methodologies, themes, project_types FROM profiles WHERE type = 'institute' AND id <> \$1 AND id NOT IN \(SELECT target_id FROM deck_decisions WHERE actor_id = \$1\) ORDER BY created_at DESC, id ASC LIMIT \$2`).
		WithArgs("institute-123", 50).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"institute-456", "ITIS Galilei", "institute", "Roma", "Roma", "Lazio", "",
			"{stem}", "{elettronica}", "{pbl}", "{tecnologia}", "{laboratorio}",
		))
	mock.ExpectQuery(`SELECT content_weight, behavior_weight, interest_weight, geo_weight, network_weight, search_weight FROM user_weights WHERE user_id = \$1`).
		WithArgs("institute-123").
		WillReturnError(errors.New("no weights yet"))

	handler := NewHandler(LoadConfig(), db, client, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
	})

	assert.NoError(t, err)
	assert.Equal(t, "store", output.Source)
	assert.Equal(t, 1, output.DeckSize)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_FallbackCandidates(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM profiles`).
		WillReturnError(errors.New("store down"))

	fallback := append(testCandidates(), *testRequester())
	data, err := json.Marshal(fallback)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fallback-candidates.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	config := LoadConfig()
	config.FallbackPath = path

	handler := NewHandler(config, db, client, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
		Weights:          map[string]float64{"geo": 100},
	})

	assert.NoError(t, err)
	assert.Equal(t, "fallback", output.Source)
	// The requester's own profile in the fallback list is skipped.
	assert.Equal(t, 2, output.DeckSize)
}

func TestHandler_Execute_EmptyStoreUsesFallback(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Reachable store, zero usable rows: every institute already swiped.
	cols := []string{
		"id", "name", "type", "city", "province", "region", "description",
		"tags", "interests", "methodologies", "themes", "project_types",
	}
	mock.ExpectQuery(`FROM profiles`).
		WillReturnRows(sqlmock.NewRows(cols))

	data, err := json.Marshal(testCandidates())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fallback-candidates.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	config := LoadConfig()
	config.FallbackPath = path

	handler := NewHandler(config, db, client, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
	})

	assert.NoError(t, err)
	assert.Equal(t, "fallback", output.Source)
	assert.Equal(t, 2, output.DeckSize)
	assert.NotEmpty(t, output.Visible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmptyStoreAndMissingFallback(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{
		"id", "name", "type", "city", "province", "region", "description",
		"tags", "interests", "methodologies", "themes", "project_types",
	}
	mock.ExpectQuery(`FROM profiles`).
		WillReturnRows(sqlmock.NewRows(cols))

	config := LoadConfig()
	config.FallbackPath = filepath.Join(t.TempDir(), "missing.json")

	handler := NewHandler(config, db, client, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
	})

	assert.ErrorIs(t, err, ErrCandidateFetchFailed)
	assert.Nil(t, output)
}

func TestHandler_Execute_CandidateFetchFailed(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM profiles`).
		WillReturnError(errors.New("store down"))

	config := LoadConfig()
	config.FallbackPath = filepath.Join(t.TempDir(), "missing.json")

	handler := NewHandler(config, db, client, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
	})

	assert.ErrorIs(t, err, ErrCandidateFetchFailed)
	assert.Nil(t, output)
}

func TestHandler_Execute_RequesterNotFound(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM profiles WHERE id = \$1`).
		WithArgs("institute-123").
		WillReturnError(errors.New("not found"))

	handler := NewHandler(LoadConfig(), db, client, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{UserID: "institute-123"})

	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Nil(t, output)
}

func TestHandler_Execute_MissingUserID(t *testing.T) {
	handler := NewHandler(LoadConfig(), nil, nil, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{})

	assert.ErrorIs(t, err, ErrMissingUserID)
	assert.Nil(t, output)
}

func TestHandler_Execute_SessionStoreFailed(t *testing.T) {
	server, client := newTestRedis(t)
	server.Close() // sabotage the store

	handler := NewHandler(LoadConfig(), nil, client, createTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
		Candidates:       testCandidates(),
	})

	assert.ErrorIs(t, err, ErrSessionStoreFailed)
	assert.Nil(t, output)
}

func TestHandler_Execute_DeckSizeCap(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	handler := NewHandler(LoadConfig(), nil, client, createTestLogger(t))

	candidates := make([]models.Profile, 10)
	for i := range candidates {
		candidates[i] = models.Profile{
			ID:     "institute-" + string(rune('a'+i)),
			Type:   "institute",
			Region: "Lazio",
		}
	}

	output, err := handler.execute(context.Background(), &Input{
		UserID:           "institute-123",
		RequesterProfile: testRequester(),
		Candidates:       candidates,
		DeckSize:         3,
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, output.DeckSize)
	assert.LessOrEqual(t, len(output.Visible), deck.VisibleStackSize)
}
