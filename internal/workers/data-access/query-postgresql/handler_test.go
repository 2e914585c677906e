package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/models"
	"edunet-workers/internal/workers/data-access/query-postgresql/queries"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createValidInput(queryType models.QueryType) *Input {
	input := &Input{
		QueryType: string(queryType),
		UserID:    "institute-123",
	}

	if queryType == models.QueryNetworkOverlap {
		input.TargetID = "institute-456"
	}

	return input
}

func profileColumns() []string {
	return []string{
		"id", "name", "type", "city", "province", "region", "description",
		"tags", "interests", "methodologies", "themes", "project_types",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		queryType      models.QueryType
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:      "institute profile",
			queryType: models.QueryInstituteProfile,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(append(profileColumns(), "created_at")).AddRow(
					"institute-123", "Liceo Scientifico Volta", "institute",
					"Milano", "Milano", "Lombardia", "Liceo scientifico statale",
					"{stem,robotica}", "{fisica,coding}", "{pbl}",
					"{scienza,tecnologia}", "{laboratorio}", "2024-01-01",
				)
				mock.ExpectQuery(`SELECT id, name, type, city, province, region, description, tags, interests, methodologies, themes, project_types, created_at FROM profiles WHERE id = \$1`).
					WithArgs("institute-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "institute-123", data["id"])
				assert.Equal(t, "Liceo Scientifico Volta", data["name"])
				assert.Equal(t, "Lombardia", data["region"])
				assert.Equal(t, []string{"stem", "robotica"}, data["tags"])
			},
		},
		{
			name:      "candidate profiles",
			queryType: models.QueryCandidateProfiles,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(profileColumns()).AddRow(
					"institute-456", "ITIS Galilei", "institute",
					"Roma", "Roma", "Lazio", "Istituto tecnico industriale",
					"{stem}", "{elettronica}", "{pbl}", "{tecnologia}", "{laboratorio}",
				).AddRow(
					"institute-789", "Liceo Classico Manzoni", "institute",
					"Napoli", "Napoli", "Campania", "Liceo classico",
					"{lettere}", "{latino}", "{flipped}", "{cultura}", "{scambio}",
				)
				mock.ExpectQuery(`SELECT id, name, type, city, province, region, description, tags, interests, methodologies, themes, project_types FROM profiles WHERE type = 'institute' AND id <> \$1 ORDER BY created_at DESC, id ASC LIMIT 50`).
					WithArgs("institute-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, 2, len(data))
				assert.Equal(t, "institute-456", data[0]["id"])
				assert.Equal(t, "institute-789", data[1]["id"])
			},
		},
		{
			name:      "user weights",
			queryType: models.QueryUserWeights,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"content_weight", "behavior_weight", "interest_weight",
					"geo_weight", "network_weight", "search_weight",
				}).AddRow(32.5, 22.5, 20.0, 10.0, 10.0, 5.0)
				mock.ExpectQuery(`SELECT content_weight, behavior_weight, interest_weight, geo_weight, network_weight, search_weight FROM user_weights WHERE user_id = \$1`).
					WithArgs("institute-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, 32.5, data["content"])
				assert.Equal(t, 5.0, data["search"])
			},
		},
		{
			name:      "decision history",
			queryType: models.QueryDecisionHistory,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "actor_id", "target_id", "action", "predicted_score", "created_at",
				}).AddRow(
					"decision-1", "institute-123", "institute-456", "like", 72, "2024-05-01",
				).AddRow(
					"decision-2", "institute-123", "institute-789", "pass", 31, "2024-05-01",
				)
				mock.ExpectQuery(`SELECT id, actor_id, target_id, action, predicted_score, created_at FROM deck_decisions WHERE actor_id = \$1 ORDER BY created_at DESC LIMIT 100`).
					WithArgs("institute-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "like", data[0]["action"])
				assert.Equal(t, 72, data[0]["predictedScore"])
				assert.Equal(t, "pass", data[1]["action"])
			},
		},
		{
			name:      "network overlap",
			queryType: models.QueryNetworkOverlap,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"followers", "followees", "collaborators"}).
					AddRow(4, 2, 1)
				mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM follows`).
					WithArgs("institute-123", "institute-456").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, 4, data["commonFollowers"])
				assert.Equal(t, 2, data["commonFollowees"])
				assert.Equal(t, 1, data["commonCollaborators"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockQuery(mock)

			handler := NewHandler(createTestConfig(), db, createTestLogger(t))
			input := createValidInput(tt.queryType)

			output, err := handler.execute(context.Background(), input)

			assert.NoError(t, err)
			assert.NotNil(t, output)
			assert.NoError(t, mock.ExpectationsWereMet())

			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

func TestHandler_Execute_UserWeightsDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT content_weight, behavior_weight, interest_weight, geo_weight, network_weight, search_weight FROM user_weights WHERE user_id = \$1`).
		WithArgs("institute-123").
		WillReturnError(sql.ErrNoRows)

	handler := NewHandler(createTestConfig(), db, createTestLogger(t))
	output, err := handler.execute(context.Background(), createValidInput(models.QueryUserWeights))

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, 0, output.RowCount)

	data := output.Data.(map[string]interface{})
	assert.Equal(t, 30.0, data["content"])
	assert.Equal(t, 25.0, data["behavior"])
	assert.Equal(t, 5.0, data["search"])
}

func TestHandler_Execute_CandidateFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(profileColumns()).AddRow(
		"institute-456", "ITIS Galilei", "institute",
		"Roma", "Roma", "Lazio", "Istituto tecnico industriale",
		"{stem}", "{elettronica}", "{pbl}", "{tecnologia}", "{laboratorio}",
	)
	mock.ExpectQuery(`SELECT id, name, type, city, province, region, description, tags, interests, methodologies, themes, project_types FROM profiles WHERE type = 'institute' AND id <> \$1 AND lower\(region\) = lower\(\$2\) ORDER BY created_at DESC, id ASC LIMIT 10`).
		WithArgs("institute-123", "Lazio").
		WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, createTestLogger(t))
	input := &Input{
		QueryType: string(models.QueryCandidateProfiles),
		UserID:    "institute-123",
		Limit:     10,
		Filters: map[string]interface{}{
			"region": "Lazio",
		},
	}

	output, err := handler.execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Timeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, type, city, province, region, description, tags, interests, methodologies, themes, project_types, created_at FROM profiles WHERE id = \$1`).
		WithArgs("institute-123").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("institute-123"))

	config := createTestConfig()
	config.Timeout = 50 * time.Millisecond

	handler := NewHandler(config, db, createTestLogger(t))
	input := createValidInput(models.QueryInstituteProfile)

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	output, err := handler.execute(ctx, input)

	if err != nil {
		assert.True(t, errors.Is(err, ErrQueryTimeout) ||
			errors.Is(err, context.DeadlineExceeded) ||
			strings.Contains(err.Error(), "timeout") ||
			strings.Contains(err.Error(), "deadline"))
	} else {
		assert.Nil(t, output)
	}
}

func TestHandler_Execute_QueryErrors(t *testing.T) {
	tests := []struct {
		name          string
		input         *Input
		mockQuery     func(mock sqlmock.Sqlmock)
		expectedErr   error
		errorContains string
	}{
		{
			name: "unknown query type",
			input: &Input{
				QueryType: "unknown_query",
			},
			mockQuery:     func(mock sqlmock.Sqlmock) {},
			expectedErr:   ErrInvalidQueryType,
			errorContains: "INVALID_QUERY_TYPE",
		},
		{
			name:  "database error",
			input: createValidInput(models.QueryInstituteProfile),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, type, city, province, region, description, tags, interests, methodologies, themes, project_types, created_at FROM profiles WHERE id = \$1`).
					WithArgs("institute-123").
					WillReturnError(errors.New("database connection failed"))
			},
			expectedErr:   ErrQueryExecutionFailed,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
		{
			name: "missing user ID",
			input: &Input{
				QueryType: string(models.QueryInstituteProfile),
			},
			mockQuery:     func(mock sqlmock.Sqlmock) {},
			expectedErr:   queries.ErrMissingParam,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
		{
			name: "missing target ID for overlap",
			input: &Input{
				QueryType: string(models.QueryNetworkOverlap),
				UserID:    "institute-123",
			},
			mockQuery:     func(mock sqlmock.Sqlmock) {},
			expectedErr:   queries.ErrMissingParam,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
		{
			name:  "no rows found",
			input: createValidInput(models.QueryInstituteProfile),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, type, city, province, region, description, tags, interests, methodologies, themes, project_types, created_at FROM profiles WHERE id = \$1`).
					WithArgs("institute-123").
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr:   ErrQueryExecutionFailed,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			if tt.mockQuery != nil {
				tt.mockQuery(mock)
			}

			handler := NewHandler(createTestConfig(), db, createTestLogger(t))
			output, err := handler.execute(context.Background(), tt.input)

			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.expectedErr) || errors.Is(err, ErrQueryExecutionFailed))
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Nil(t, output)
		})
	}
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_EdgeCases(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	t.Run("nil input", func(t *testing.T) {
		output, err := handler.execute(context.Background(), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "input cannot be nil")
		assert.Nil(t, output)
	})

	t.Run("empty query type", func(t *testing.T) {
		input := &Input{
			QueryType: "",
		}
		output, err := handler.execute(context.Background(), input)
		assert.Error(t, err)
		assert.Nil(t, output)
	})

	t.Run("limit above cap falls back to cap", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery(`LIMIT 50`).
			WithArgs("institute-123").
			WillReturnRows(sqlmock.NewRows(profileColumns()))

		handler := NewHandler(createTestConfig(), db, createTestLogger(t))
		input := &Input{
			QueryType: string(models.QueryCandidateProfiles),
			UserID:    "institute-123",
			Limit:     500,
		}

		output, err := handler.execute(context.Background(), input)

		assert.NoError(t, err)
		assert.Equal(t, 0, output.RowCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
