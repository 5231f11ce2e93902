package totals

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/calendar"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var today = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	meals *meal.Repository
	agg   *Aggregator
	svc   *meal.Service
	cal   *calendar.Calendar
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &meal.Meal{}, &DailyTotals{}, &metadata.Metadata{})
	meals := meal.NewRepository(db)
	agg := NewAggregator(db, meals)
	cal := calendar.WithClock(time.UTC, func() time.Time { return today })
	return &fixture{
		db:    db,
		meals: meals,
		agg:   agg,
		svc:   meal.NewService(meals, agg.ForMeals(), nil, cal),
		cal:   cal,
	}
}

func (f *fixture) add(t *testing.T, userID, date string, m nutrition.Macros) *meal.Meal {
	t.Helper()
	created, err := f.svc.LogFromMacros(context.Background(), userID, "meal", meal.Lunch, m, date)
	require.NoError(t, err)
	return created
}

func (f *fixture) totals(t *testing.T, userID, date string) nutrition.Macros {
	t.Helper()
	row, err := f.agg.Get(context.Background(), userID, date)
	require.NoError(t, err)
	return row.Macros()
}

func TestAddAddDeleteScenario(t *testing.T) {
	f := newFixture(t)
	const d = "2025-06-15"

	a := f.add(t, "U", d, nutrition.Macros{Calories: 100, Protein: 10, Carbs: 5, Fats: 2})
	assert.Equal(t, nutrition.Macros{Calories: 100, Protein: 10, Carbs: 5, Fats: 2}, f.totals(t, "U", d))

	f.add(t, "U", d, nutrition.Macros{Calories: 50, Protein: 5, Carbs: 5, Fats: 1})
	assert.Equal(t, nutrition.Macros{Calories: 150, Protein: 15, Carbs: 10, Fats: 3}, f.totals(t, "U", d))

	require.NoError(t, f.svc.Delete(context.Background(), "U", a.ID))
	assert.Equal(t, nutrition.Macros{Calories: 50, Protein: 5, Carbs: 5, Fats: 1}, f.totals(t, "U", d))

	// 只有一行
	var count int64
	require.NoError(t, f.db.Model(&DailyTotals{}).Where("user_id = ? AND date = ?", "U", d).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTotalsMatchSumAfterEveryStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const d = "2025-06-14"

	values := []nutrition.Macros{
		{Calories: 70, Protein: 2.5, Carbs: 2.5, Fats: 6},
		{Calories: 60, Protein: 12, Carbs: 3, Fats: 0},
		{Calories: 110.25, Protein: 25, Carbs: 2, Fats: 1},
		{Calories: 0.1, Protein: 0.2, Carbs: 0.3, Fats: 0.4},
	}
	var ids []string
	for _, v := range values {
		ids = append(ids, f.add(t, "U", d, v).ID)
		sum, err := f.meals.SumByDate(ctx, "U", d)
		require.NoError(t, err)
		assert.InDeltaMapValues(t, asMap(sum), asMap(f.totals(t, "U", d)), 1e-9)
	}
	for _, id := range []string{ids[2], ids[0]} {
		require.NoError(t, f.svc.Delete(ctx, "U", id))
		sum, err := f.meals.SumByDate(ctx, "U", d)
		require.NoError(t, err)
		assert.Equal(t, sum, f.totals(t, "U", d))
	}
}

func asMap(m nutrition.Macros) map[string]float64 {
	return map[string]float64{"calories": m.Calories, "protein": m.Protein, "carbs": m.Carbs, "fats": m.Fats}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const d = "2025-06-13"

	f.add(t, "U", d, nutrition.Macros{Calories: 0.1, Protein: 0.2, Carbs: 0.3, Fats: 0.7})
	f.add(t, "U", d, nutrition.Macros{Calories: 0.2, Protein: 0.1, Carbs: 0.7, Fats: 0.3})

	first, err := f.agg.RecomputeTotals(ctx, nil, "U", d)
	require.NoError(t, err)
	second, err := f.agg.RecomputeTotals(ctx, nil, "U", d)
	require.NoError(t, err)
	assert.Equal(t, first.Macros(), second.Macros())
	assert.Equal(t, first.ID, second.ID)
}

func TestDeletingLastMealLeavesZeroRow(t *testing.T) {
	f := newFixture(t)
	const d = "2025-06-12"

	only := f.add(t, "U", d, nutrition.Macros{Calories: 500, Protein: 30, Carbs: 60, Fats: 15})
	require.NoError(t, f.svc.Delete(context.Background(), "U", only.ID))

	row, err := f.agg.Get(context.Background(), "U", d)
	require.NoError(t, err)
	assert.True(t, row.IsEmpty())

	day, err := f.svc.GetDay(context.Background(), "U", d)
	require.NoError(t, err)
	assert.Empty(t, day.Meals)
	assert.Equal(t, nutrition.Macros{}, day.Totals)
}

func TestRecomputeWithoutMealsCreatesZeroRow(t *testing.T) {
	f := newFixture(t)

	row, err := f.agg.RecomputeTotals(context.Background(), nil, "U", "2025-01-01")
	require.NoError(t, err)
	assert.True(t, row.IsEmpty())
	assert.NotEmpty(t, row.ID)
}

func TestTotalsAreIsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	const d = "2025-06-15"

	f.add(t, "U", d, nutrition.Macros{Calories: 100})
	theirs := f.add(t, "V", d, nutrition.Macros{Calories: 900})

	assert.Equal(t, 100.0, f.totals(t, "U", d).Calories)
	assert.Equal(t, 900.0, f.totals(t, "V", d).Calories)

	err := f.svc.Delete(context.Background(), "U", theirs.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 900.0, f.totals(t, "V", d).Calories)
}

func TestGetMissingIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.agg.Get(context.Background(), "U", "2025-06-15")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	current, err := f.agg.ForMeals().Current(context.Background(), "U", "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, nutrition.Macros{}, current)
}
