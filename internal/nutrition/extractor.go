package nutrition

import "context"

// Extractor 根据一段自由文本估算营养数值。
// 失败时返回 apperror.KindExtraction 类型的错误，调用方不应重试。
type Extractor interface {
	Extract(ctx context.Context, description string) (Macros, error)
}

// ExtractorFunc 让普通函数满足 Extractor 接口
type ExtractorFunc func(ctx context.Context, description string) (Macros, error)

func (f ExtractorFunc) Extract(ctx context.Context, description string) (Macros, error) {
	return f(ctx, description)
}
