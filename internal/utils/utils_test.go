package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"precision-medicine-server/internal/config"
	"precision-medicine-server/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "access-secret",
		JWTRefreshSecret:          "refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	cfg := testConfig()
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}, Username: "jdoe"}

	access, refresh, err := GenerateTokens(user, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	claims, err := ValidateToken(access, cfg.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)

	_, err = ValidateToken(refresh, cfg.JWTSecret)
	assert.Error(t, err)

	claims, err = ValidateToken(refresh, cfg.JWTRefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestGenerateTokensAreUnique(t *testing.T) {
	cfg := testConfig()
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}}

	_, first, err := GenerateTokens(user, cfg)
	require.NoError(t, err)
	_, second, err := GenerateTokens(user, cfg)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", "secret")
	assert.Error(t, err)
}

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Mode     string `json:"mode" validate:"omitempty,oneof=single agent"`
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantText string
	}{
		{name: "valid", body: `{"username":"jdoe"}`, wantOK: true},
		{name: "missing field", body: `{}`, wantText: "Username is required"},
		{name: "bad enum", body: `{"username":"jdoe","mode":"turbo"}`, wantText: "Mode must be one of [single agent]"},
		{name: "bad json", body: `{`, wantText: "Invalid request payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var body loginBody
			ok := BindAndValidate(c, &body)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), tt.wantText)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "input", err: InputError("No text provided"), wantStatus: http.StatusBadRequest, wantError: "No text provided"},
		{name: "extraction", err: ExtractionError("Could not read PDF", errors.New("eof")), wantStatus: http.StatusUnprocessableEntity, wantError: "Could not read PDF"},
		{name: "not found", err: NotFoundError("Report not found"), wantStatus: http.StatusNotFound, wantError: "Report not found"},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", NotFoundError("Report not found")), wantStatus: http.StatusNotFound, wantError: "Report not found"},
		{name: "gorm not found", err: gorm.ErrRecordNotFound, wantStatus: http.StatusNotFound, wantError: "Resource not found"},
		{name: "persistence", err: PersistenceError("Failed to save therapies", errors.New("deadlock")), wantStatus: http.StatusInternalServerError, wantError: "Failed to save therapies"},
		{name: "untyped", err: errors.New("boom: secret detail"), wantStatus: http.StatusInternalServerError, wantError: "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ResponseData
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotContains(t, w.Body.String(), "secret detail")
		})
	}
}

func TestAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "therapy_report_20240101_000000.pdf", "application/pdf", []byte("%PDF-"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="therapy_report_20240101_000000.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-", w.Body.String())
}
