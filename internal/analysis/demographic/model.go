package demographic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

// Fields 是模型需要的全部字段，顺序即校验顺序。
var Fields = []string{
	"gender", "profession", "sleep_duration", "dietary_habits", "degree",
	"suicidal_thoughts", "family_history",
	"age", "academic_pressure", "work_pressure", "study_satisfaction",
	"job_satisfaction", "work_study_hours", "financial_stress",
}

var numericFields = map[string]bool{
	"age":                true,
	"academic_pressure":  true,
	"work_pressure":      true,
	"study_satisfaction": true,
	"job_satisfaction":   true,
	"work_study_hours":   true,
	"financial_stress":   true,
}

// MissingFieldError 表示请求缺少必填字段。
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing required field: '%s'", e.Field)
}

// InvalidFieldError 表示字段值无法被模型使用。
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid value %q for field %s", e.Value, e.Field)
}

// Result 是模型输出：类别与类别 1 的概率。
type Result struct {
	Class       int
	Probability float64
}

// ConfidencePercentage 返回保留两位小数的百分比。
func (r Result) ConfidencePercentage() float64 {
	return math.Round(r.Probability*100*100) / 100
}

const bias = -2.6

var numericWeights = map[string]float64{
	"age":                -0.06,
	"academic_pressure":  0.55,
	"work_pressure":      0.45,
	"study_satisfaction": -0.3,
	"job_satisfaction":   -0.3,
	"work_study_hours":   0.09,
	"financial_stress":   0.5,
}

// 年龄以 25 岁为中心，其余数值直接使用。
var numericCenter = map[string]float64{
	"age": 25,
}

var categoricalWeights = map[string]map[string]float64{
	"gender":            {"male": 0, "female": 0.05},
	"profession":        {"student": 0.3, "working professional": 0},
	"sleep_duration":    {"low": 0.6, "medium": 0.2, "normal": 0, "high": 0.1},
	"dietary_habits":    {"healthy": -0.4, "moderate": 0, "unhealthy": 0.6},
	"degree":            {"high school": 0.2, "undergrad": 0.1, "postgrad": 0},
	"suicidal_thoughts": {"yes": 2.4, "no": 0},
	"family_history":    {"yes": 0.25, "no": 0},
}

// Predict 使用逻辑回归式的加权模型估计抑郁概率。
func Predict(responses questionnaire.Responses) (Result, error) {
	z := bias
	for _, field := range Fields {
		value, ok := responses[field]
		if !ok {
			return Result{}, &MissingFieldError{Field: field}
		}

		if numericFields[field] {
			n, err := numeric(field, value)
			if err != nil {
				return Result{}, err
			}
			z += numericWeights[field] * (n - numericCenter[field])
			continue
		}

		category := strings.ToLower(strings.TrimSpace(value.String()))
		weight, known := categoricalWeights[field][category]
		if !known {
			return Result{}, &InvalidFieldError{Field: field, Value: value.String()}
		}
		z += weight
	}

	p := 1 / (1 + math.Exp(-z))
	result := Result{Probability: p}
	if p > 0.5 {
		result.Class = 1
	}
	return result, nil
}

// numeric 接受数字或可解析为数字的字符串。
func numeric(field string, value questionnaire.Value) (float64, error) {
	if n, ok := value.Float(); ok {
		return n, nil
	}
	text, _ := value.Text()
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, &InvalidFieldError{Field: field, Value: text}
	}
	return n, nil
}
