package nutrition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMacrosAdd(t *testing.T) {
	a := Macros{Calories: 100, Protein: 10, Carbs: 5, Fats: 2}
	b := Macros{Calories: 150, Protein: 15, Carbs: 10, Fats: 3}
	assert.Equal(t, Macros{Calories: 250, Protein: 25, Carbs: 15, Fats: 5}, a.Add(b))
	assert.Equal(t, a, a.Add(Macros{}))
}

func TestMacrosValidate(t *testing.T) {
	assert.NoError(t, Macros{}.Validate())
	assert.NoError(t, Macros{Calories: 60, Protein: 12, Carbs: 3}.Validate())

	assert.Error(t, Macros{Calories: -1}.Validate())
	assert.Error(t, Macros{Fats: math.NaN()}.Validate())
	assert.Error(t, Macros{Protein: math.Inf(1)}.Validate())
}

func TestMacrosRounded(t *testing.T) {
	m := Macros{Calories: 70.4, Protein: 2.5, Carbs: 2.49, Fats: 6.6}
	assert.Equal(t, Macros{Calories: 70, Protein: 3, Carbs: 2, Fats: 7}, m.Rounded())
	// 原值保持不变
	assert.Equal(t, 2.5, m.Protein)
}
