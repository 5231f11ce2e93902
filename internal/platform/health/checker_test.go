package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metadata"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssess(t *testing.T) {
	var sm statusManager
	now := time.Now()

	assert.Equal(t, StateHealthy, sm.assess(nil, nil, false, now).State)
	assert.Equal(t, StateDegraded, sm.assess(nil, errors.New("refused"), true, now).State)
	// 未启用Redis时忽略它的错误
	assert.Equal(t, StateHealthy, sm.assess(nil, errors.New("refused"), false, now).State)
	assert.Equal(t, StateDown, sm.assess(errors.New("closed"), nil, true, now).State)
	assert.Equal(t, StateDown, sm.get().State)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t, &metadata.Metadata{})
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, metadata.SetTime(context.Background(), db, metadata.LastReconcileAtKey, at))

	checker := NewChecker(db, nil)
	r := gin.New()
	r.GET("/api/health", checker.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "disabled", body["redis"])
	assert.Equal(t, "2025-01-02T03:04:05Z", body["lastReconcileAt"])
	assert.Equal(t, StateHealthy, checker.Current().State)
}
