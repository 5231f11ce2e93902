package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	db := dbtest.Open(t, &Metadata{})
	ctx := context.Background()

	v, err := GetValue(ctx, db, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, SetValue(ctx, db, "k", "one"))
	require.NoError(t, SetValue(ctx, db, "k", "two"))
	v, err = GetValue(ctx, db, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	var count int64
	require.NoError(t, db.Model(&Metadata{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTypedHelpers(t *testing.T) {
	db := dbtest.Open(t, &Metadata{})
	ctx := context.Background()

	zero, err := GetTime(ctx, db, LastReconcileAtKey)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	at := time.Date(2025, 5, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, SetTime(ctx, db, LastReconcileAtKey, at))
	got, err := GetTime(ctx, db, LastReconcileAtKey)
	require.NoError(t, err)
	assert.True(t, at.Equal(got))

	require.NoError(t, SetInt(ctx, db, LastReconcileCorrectedKey, 3))
	n, err := GetInt(ctx, db, LastReconcileCorrectedKey)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.NoError(t, SetValue(ctx, db, LastReconcileCorrectedKey, "x"))
	_, err = GetInt(ctx, db, LastReconcileCorrectedKey)
	assert.Error(t, err)
}
