package meal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/calendar"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingKeeper 记录汇总钩子的调用，可注入失败
type recordingKeeper struct {
	added      []string
	recomputed []string
	failAdd    error
}

func (k *recordingKeeper) ApplyMealAdded(_ context.Context, _ *gorm.DB, m *Meal) (nutrition.Macros, error) {
	if k.failAdd != nil {
		return nutrition.Macros{}, k.failAdd
	}
	k.added = append(k.added, m.ID)
	return m.Macros, nil
}

func (k *recordingKeeper) RecomputeTotals(_ context.Context, _ *gorm.DB, userID, date string) (nutrition.Macros, error) {
	k.recomputed = append(k.recomputed, userID+"/"+date)
	return nutrition.Macros{}, nil
}

func (k *recordingKeeper) Current(context.Context, string, string) (nutrition.Macros, error) {
	return nutrition.Macros{}, nil
}

var testDay = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, extractor nutrition.Extractor) (*Service, *Repository, *recordingKeeper) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t, &Meal{}))
	keeper := &recordingKeeper{}
	cal := calendar.WithClock(time.UTC, func() time.Time { return testDay })
	return NewService(repo, keeper, extractor, cal), repo, keeper
}

func fixedExtractor(m nutrition.Macros) nutrition.Extractor {
	return nutrition.ExtractorFunc(func(context.Context, string) (nutrition.Macros, error) {
		return m, nil
	})
}

func TestLogFromText(t *testing.T) {
	svc, repo, keeper := newTestService(t, fixedExtractor(nutrition.Macros{Calories: 110, Protein: 25, Carbs: 2, Fats: 1}))
	ctx := context.Background()

	m, err := svc.LogFromText(ctx, "u", "  30g whey protein ", "snack")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", m.Date)
	assert.Equal(t, "30g whey protein", m.Description)
	assert.Equal(t, Snack, m.MealType)
	assert.Equal(t, []string{m.ID}, keeper.added)

	stored, err := repo.GetByID(ctx, m.ID, "u")
	require.NoError(t, err)
	assert.Equal(t, 25.0, stored.Protein)
}

func TestLogFromTextValidation(t *testing.T) {
	svc, _, _ := newTestService(t, fixedExtractor(nutrition.Macros{}))
	ctx := context.Background()

	_, err := svc.LogFromText(ctx, "u", "   ", "lunch")
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "Meal description is required", err.(*apperror.Error).Message)

	_, err = svc.LogFromText(ctx, "u", "toast", "brunch")
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, MealTypeMessage, err.(*apperror.Error).Message)
}

func TestLogFromTextExtractionFailurePersistsNothing(t *testing.T) {
	failing := nutrition.ExtractorFunc(func(context.Context, string) (nutrition.Macros, error) {
		return nutrition.Macros{}, errors.New("model timed out")
	})
	svc, repo, keeper := newTestService(t, failing)
	ctx := context.Background()

	_, err := svc.LogFromText(ctx, "u", "pasta", "dinner")
	assert.ErrorIs(t, err, apperror.ErrExtraction)

	meals, err := repo.ListByDate(ctx, "u", "2025-06-15")
	require.NoError(t, err)
	assert.Empty(t, meals)
	assert.Empty(t, keeper.added)
}

func TestTotalsFailureRollsBackMeal(t *testing.T) {
	svc, repo, keeper := newTestService(t, fixedExtractor(nutrition.Macros{Calories: 10}))
	keeper.failAdd = errors.New("disk full")
	ctx := context.Background()

	_, err := svc.LogFromText(ctx, "u", "apple", "snack")
	assert.ErrorIs(t, err, apperror.ErrStorage)

	meals, err := repo.ListByDate(ctx, "u", "2025-06-15")
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestChangeTypeAndDelete(t *testing.T) {
	svc, _, keeper := newTestService(t, fixedExtractor(nutrition.Macros{Calories: 10}))
	ctx := context.Background()

	m, err := svc.LogFromText(ctx, "u", "apple", "snack")
	require.NoError(t, err)

	dinner := "dinner"
	changed, err := svc.ChangeType(ctx, "u", m.ID, MealPatch{MealType: &dinner})
	require.NoError(t, err)
	assert.Equal(t, Dinner, changed.MealType)
	assert.Empty(t, keeper.recomputed)

	_, err = svc.ChangeType(ctx, "intruder", m.ID, MealPatch{MealType: &dinner})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "intruder", m.ID), apperror.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "u", m.ID))
	assert.Equal(t, []string{"u/2025-06-15"}, keeper.recomputed)
}

func TestGetDay(t *testing.T) {
	svc, _, _ := newTestService(t, fixedExtractor(nutrition.Macros{Calories: 10}))
	ctx := context.Background()

	day, err := svc.GetDay(ctx, "u", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", day.Date)
	assert.Empty(t, day.Meals)

	_, err = svc.GetDay(ctx, "u", "15/06/2025")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLogFromTextRateLimited(t *testing.T) {
	calls := 0
	flaky := nutrition.ExtractorFunc(func(context.Context, string) (nutrition.Macros, error) {
		calls++
		if calls == 1 {
			return nutrition.Macros{}, errors.New("upstream 500")
		}
		return nutrition.Macros{Calories: 50}, nil
	})
	svc, _, _ := newTestService(t, flaky)
	svc.WithLimiter(ratelimit.NewMemoryLimiter(1, time.Hour))
	ctx := context.Background()

	// 解析失败退回名额
	_, err := svc.LogFromText(ctx, "u", "apple", "snack")
	require.ErrorIs(t, err, apperror.ErrExtraction)

	_, err = svc.LogFromText(ctx, "u", "apple", "snack")
	require.NoError(t, err)

	_, err = svc.LogFromText(ctx, "u", "apple", "snack")
	assert.ErrorIs(t, err, apperror.ErrRateLimited)
	assert.Equal(t, 2, calls)
}
