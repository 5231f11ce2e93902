// Package apperror 定义了应用统一的错误分类，并负责在请求边界将其转换为HTTP响应。
package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind 是错误的分类
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindExtraction
	KindStorage
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindExtraction:
		return "extraction"
	case KindStorage:
		return "storage"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// 哨兵错误，用于 errors.Is 判断分类
var (
	ErrValidation   = &Error{Kind: KindValidation, Message: "请求参数无效"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "资源不存在"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "未登录或会话已失效"}
	ErrExtraction   = &Error{Kind: KindExtraction, Message: "无法解析餐食的营养信息"}
	ErrStorage      = &Error{Kind: KindStorage, Message: "数据存储失败"}
	ErrRateLimited  = &Error{Kind: KindRateLimited, Message: "请求过于频繁，请稍后再试"}
)

// Error 是带分类的应用错误。Message 会展示给用户，Err 只用于日志。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 让同一分类的错误互相匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Extraction(err error) error {
	return &Error{Kind: KindExtraction, Message: ErrExtraction.Message, Err: err}
}

func Storage(err error) error {
	return &Error{Kind: KindStorage, Message: ErrStorage.Message, Err: err}
}

func RateLimited(message string) error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// OrStorage 保留已分类的应用错误，其余错误视为存储错误
func OrStorage(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Storage(err)
}

// KindOf 返回错误链中第一个应用错误的分类；非应用错误视为内部错误
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StatusOf 将错误分类映射为HTTP状态码
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindExtraction:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Respond 把错误写成 {"error": "..."} 响应。存储和内部错误只记录日志，不向用户暴露细节。
func Respond(c *gin.Context, err error) {
	status := StatusOf(err)
	message := "服务器内部错误"

	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		slog.Error("请求处理出错", "path", c.FullPath(), "kind", KindOf(err).String(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
