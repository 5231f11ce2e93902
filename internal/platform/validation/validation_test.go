package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchBody struct {
	MealType *string `json:"mealType" binding:"required,mealtype"`
}

type dayQuery struct {
	Date string `json:"date" binding:"omitempty,isodate"`
}

func contextWithBody(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	return c
}

func TestBindStrict(t *testing.T) {
	Register()

	var ok patchBody
	require.NoError(t, BindStrict(contextWithBody(`{"mealType":"lunch"}`), &ok))
	assert.Equal(t, "lunch", *ok.MealType)

	var unknown patchBody
	err := BindStrict(contextWithBody(`{"mealType":"lunch","calories":5}`), &unknown)
	assert.True(t, errors.Is(err, ErrUnknownField))

	var bad patchBody
	err = BindStrict(contextWithBody(`{"mealType":"brunch"}`), &bad)
	require.Error(t, err)
	assert.Equal(t, "MealType", FailedField(err))

	var missing patchBody
	err = BindStrict(contextWithBody(`{}`), &missing)
	assert.Equal(t, "MealType", FailedField(err))

	var garbage patchBody
	err = BindStrict(contextWithBody(`{`), &garbage)
	require.Error(t, err)
	assert.Empty(t, FailedField(err))
}

func TestIsoDate(t *testing.T) {
	Register()

	var q dayQuery
	require.NoError(t, BindStrict(contextWithBody(`{"date":"2025-01-31"}`), &q))
	require.NoError(t, BindStrict(contextWithBody(`{}`), &q))

	err := BindStrict(contextWithBody(`{"date":"31.01.2025"}`), &q)
	assert.Equal(t, "Date", FailedField(err))
}
