// Package validation 在 gin 的 validator 上注册业务校验规则，并提供严格的请求体解析。
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/calendar"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var mealTypes = map[string]struct{}{
	"breakfast": {},
	"lunch":     {},
	"dinner":    {},
	"snack":     {},
}

var registerOnce sync.Once

// Register 注册 mealtype 和 isodate 两个校验标签，可重复调用
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("gin 的校验引擎不是 validator/v10")
		}
		_ = v.RegisterValidation("mealtype", func(fl validator.FieldLevel) bool {
			_, ok := mealTypes[fl.Field().String()]
			return ok
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			return calendar.Valid(fl.Field().String())
		})
	})
}

// ErrUnknownField 表示请求体包含未声明的字段
var ErrUnknownField = errors.New("请求包含不允许修改的字段")

// BindStrict 解析JSON请求体，拒绝未知字段，然后执行 binding 标签校验
func BindStrict(c *gin.Context, obj any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fmt.Errorf("无法读取请求体: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return fmt.Errorf("%w: %v", ErrUnknownField, err)
		}
		return fmt.Errorf("请求体不是有效的JSON: %w", err)
	}
	return binding.Validator.ValidateStruct(obj)
}

// FailedField 返回第一个未通过校验的字段名（结构体字段名）；不是校验错误时返回空字符串
func FailedField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].StructField()
	}
	return ""
}
