package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ehrm-server/config"
	"ehrm-server/database"
)

// swapMockDB points database.DB at an sqlmock-backed connection for the
// duration of one test.
func swapMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	previous := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = previous })
	return mock
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterAuthRoutes(router.Group("/api/v1/auth"))
	return router
}

func postRegister(router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterCreatesKaryawanAccount(t *testing.T) {
	config.Load()
	mock := swapMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WithArgs("budi@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "refresh_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	w := postRegister(authTestRouter(), map[string]interface{}{
		"full_name": "Budi Santoso",
		"email":     "Budi@Example.com",
		"password":  "Rahasia123",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "budi@example.com", resp.User.Email)
	assert.Equal(t, "karyawan", resp.User.Role)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	config.Load()
	mock := swapMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WithArgs("budi@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := postRegister(authTestRouter(), map[string]interface{}{
		"full_name": "Budi Santoso",
		"email":     "budi@example.com",
		"password":  "Rahasia123",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	config.Load()
	mock := swapMockDB(t)

	// No uppercase letter: rejected before any database access.
	w := postRegister(authTestRouter(), map[string]interface{}{
		"full_name": "Budi Santoso",
		"email":     "budi@example.com",
		"password":  "rahasia123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
