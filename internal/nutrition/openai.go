package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/config"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metrics"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a nutrition expert. Parse meal descriptions and extract nutritional information.
Return ONLY a valid JSON object with the following structure:
{
  "calories": number,
  "protein": number (in grams),
  "carbs": number (in grams),
  "fats": number (in grams)
}

Be accurate and realistic. If quantities are specified (like "100g"), use those. If not, estimate reasonable portions.
For example:
- "100g of Magerquark" might be ~60 calories, 12g protein, 3g carbs, 0g fat
- "30g whey protein" might be ~110 calories, 25g protein, 2g carbs, 1g fat
- "10 almonds" might be ~70 calories, 2.5g protein, 2.5g carbs, 6g fat

Return ONLY the JSON, no other text.`

// ErrNotConfigured 表示没有配置API Key
var ErrNotConfigured = errors.New("未配置营养解析服务的API Key")

// OpenAIExtractor 通过 chat completions 接口解析餐食描述
type OpenAIExtractor struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewOpenAIExtractor 根据配置创建解析器。BaseURL 可指向任何兼容OpenAI协议的服务。
func NewOpenAIExtractor(cfg config.NutritionConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	slog.Info("营养解析服务已初始化", "model", model)
	return &OpenAIExtractor{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

// Extract 实现 Extractor 接口
func (e *OpenAIExtractor) Extract(ctx context.Context, description string) (Macros, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Parse this meal description and return nutritional values: %q", description)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    e.temperature,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.ExtractionFailures.WithLabelValues("request").Inc()
		slog.Warn("营养解析请求失败", "model", e.model, "error", err)
		return Macros{}, apperror.Extraction(fmt.Errorf("chat completion 调用失败: %w", err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.ExtractionFailures.WithLabelValues("empty").Inc()
		return Macros{}, apperror.Extraction(errors.New("模型没有返回内容"))
	}

	macros, err := ParseMacrosJSON(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.ExtractionFailures.WithLabelValues("invalid").Inc()
		return Macros{}, apperror.Extraction(err)
	}
	return macros, nil
}

// rawMacros 用指针区分“字段缺失”和“值为0”
type rawMacros struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fats     *float64 `json:"fats"`
}

// ParseMacrosJSON 解析模型输出。四个字段必须全部存在且为非负数字。
func ParseMacrosJSON(content string) (Macros, error) {
	content = strings.TrimSpace(content)
	// 有些模型即使在 json_object 模式下也会包一层代码块
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw rawMacros
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Macros{}, fmt.Errorf("模型返回的内容不是有效的JSON: %w", err)
	}
	if raw.Calories == nil || raw.Protein == nil || raw.Carbs == nil || raw.Fats == nil {
		return Macros{}, errors.New("模型返回的数据缺少营养字段")
	}

	m := Macros{
		Calories: *raw.Calories,
		Protein:  *raw.Protein,
		Carbs:    *raw.Carbs,
		Fats:     *raw.Fats,
	}
	if err := m.Validate(); err != nil {
		return Macros{}, fmt.Errorf("模型返回的数据无效: %w", err)
	}
	return m, nil
}
