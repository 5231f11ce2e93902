package nutrition

import (
	"fmt"
	"math"
)

// Macros 是追踪的四项营养数值：热量(kcal)以及蛋白质、碳水、脂肪(g)。
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Add 返回两组数值之和
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fats:     m.Fats + o.Fats,
	}
}

// Validate 要求四项数值都是有限的非负数
func (m Macros) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", m.Calories},
		{"protein", m.Protein},
		{"carbs", m.Carbs},
		{"fats", m.Fats},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s 不是有效数字", f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%s 不能为负数", f.name)
		}
	}
	return nil
}

// Rounded 返回四舍五入到整数的副本，只用于展示，持久化的数值保持完整精度
func (m Macros) Rounded() Macros {
	return Macros{
		Calories: math.Round(m.Calories),
		Protein:  math.Round(m.Protein),
		Carbs:    math.Round(m.Carbs),
		Fats:     math.Round(m.Fats),
	}
}
