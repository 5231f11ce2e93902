package meal

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/SlpAus/macro-tracker-backend/internal/nutrition"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/calendar"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metrics"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/ratelimit"
	"gorm.io/gorm"
)

// 餐食来源，用于指标
const (
	SourceText   = "text"
	SourceRecipe = "recipe"
)

// TotalsKeeper 维护每日汇总。实现方必须使用传入的 tx，
// 使餐食的写入和汇总的更新在同一个事务里提交或回滚。
type TotalsKeeper interface {
	// ApplyMealAdded 把一条已写入的餐食累加到当天汇总
	ApplyMealAdded(ctx context.Context, tx *gorm.DB, m *Meal) (nutrition.Macros, error)
	// RecomputeTotals 用当天剩余的全部餐食重算汇总
	RecomputeTotals(ctx context.Context, tx *gorm.DB, userID, date string) (nutrition.Macros, error)
	// Current 读取当天汇总，没有记录时为零
	Current(ctx context.Context, userID, date string) (nutrition.Macros, error)
}

type Service struct {
	repo      *Repository
	totals    TotalsKeeper
	extractor nutrition.Extractor
	cal       *calendar.Calendar
	limiter   ratelimit.Limiter
}

func NewService(repo *Repository, totals TotalsKeeper, extractor nutrition.Extractor, cal *calendar.Calendar) *Service {
	return &Service{repo: repo, totals: totals, extractor: extractor, cal: cal, limiter: ratelimit.Unlimited{}}
}

// WithLimiter 限制每个用户调用解析器的频率，nil 表示不限制
func (s *Service) WithLimiter(l ratelimit.Limiter) *Service {
	if l == nil {
		l = ratelimit.Unlimited{}
	}
	s.limiter = l
	return s
}

// LogFromText 用解析器估算描述的营养数值，并记为今天的一餐。
// 解析失败时不会写入任何数据。
func (s *Service) LogFromText(ctx context.Context, userID, description, mealType string) (*Meal, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.Validation("Meal description is required")
	}
	t, err := ParseMealType(mealType)
	if err != nil {
		return nil, apperror.Validation(MealTypeMessage)
	}
	if s.extractor == nil {
		return nil, apperror.Extraction(nutrition.ErrNotConfigured)
	}

	// 只有成功记录的餐食才计入限额
	permit, err := s.limiter.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			metrics.ExtractionFailures.WithLabelValues("rate_limited").Inc()
			return nil, apperror.RateLimited("Too many meal parsing requests, please try again later")
		}
		return nil, apperror.Storage(err)
	}
	defer permit.RollbackUnlessCommitted()

	macros, err := s.extractor.Extract(ctx, description)
	if err != nil {
		if apperror.KindOf(err) != apperror.KindExtraction {
			err = apperror.Extraction(err)
		}
		return nil, err
	}
	m, err := s.create(ctx, SourceText, userID, s.cal.Today(), description, t, macros)
	if err != nil {
		return nil, err
	}
	permit.Commit()
	return m, nil
}

// LogFromMacros 用已知的营养数值记录一餐，date 为空时记在今天
func (s *Service) LogFromMacros(ctx context.Context, userID, description string, t MealType, macros nutrition.Macros, date string) (*Meal, error) {
	if _, err := ParseMealType(string(t)); err != nil {
		return nil, apperror.Validation(MealTypeMessage)
	}
	if date == "" {
		date = s.cal.Today()
	} else if !calendar.Valid(date) {
		return nil, apperror.Validation("Invalid date, expected YYYY-MM-DD")
	}
	return s.create(ctx, SourceRecipe, userID, date, description, t, macros)
}

func (s *Service) create(ctx context.Context, source, userID, date, description string, t MealType, macros nutrition.Macros) (*Meal, error) {
	if err := macros.Validate(); err != nil {
		return nil, apperror.Validation("All nutritional values are required")
	}

	m := &Meal{
		UserID:      userID,
		Date:        date,
		Description: description,
		MealType:    t,
		Macros:      macros,
	}

	// 餐食和汇总在同一事务中写入，任一失败都不会留下不一致的状态
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, m); err != nil {
			return err
		}
		_, err := s.totals.ApplyMealAdded(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, apperror.OrStorage(err)
	}

	metrics.MealsCreated.WithLabelValues(source).Inc()
	slog.Debug("已记录餐食", "user", userID, "meal", m.ID, "date", date, "source", source)
	return m, nil
}

// Get 返回用户的一条餐食
func (s *Service) Get(ctx context.Context, userID, id string) (*Meal, error) {
	m, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, apperror.OrStorage(err)
	}
	return m, nil
}

// ChangeType 修改餐次。餐次不影响汇总，因此不需要重算。
func (s *Service) ChangeType(ctx context.Context, userID, id string, patch MealPatch) (*Meal, error) {
	if patch.MealType == nil {
		return nil, apperror.Validation(MealTypeMessage)
	}
	t, err := ParseMealType(*patch.MealType)
	if err != nil {
		return nil, apperror.Validation(MealTypeMessage)
	}
	m, err := s.repo.UpdateMealType(ctx, id, userID, t)
	if err != nil {
		return nil, apperror.OrStorage(err)
	}
	return m, nil
}

// Delete 删除餐食，并在同一事务中重算那一天的汇总
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, id, userID)
		if err != nil {
			return err
		}
		_, err = s.totals.RecomputeTotals(ctx, tx, deleted.UserID, deleted.Date)
		return err
	})
	if err != nil {
		return apperror.OrStorage(err)
	}

	metrics.MealsDeleted.Inc()
	metrics.TotalsRecomputed.WithLabelValues("delete").Inc()
	return nil
}

// GetDay 返回某天的餐食和汇总，date 为空时为今天
func (s *Service) GetDay(ctx context.Context, userID, date string) (*Day, error) {
	if date == "" {
		date = s.cal.Today()
	} else if !calendar.Valid(date) {
		return nil, apperror.Validation("Invalid date, expected YYYY-MM-DD")
	}

	meals, err := s.repo.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	totals, err := s.totals.Current(ctx, userID, date)
	if err != nil {
		return nil, apperror.OrStorage(err)
	}
	return &Day{Date: date, Meals: meals, Totals: totals}, nil
}
