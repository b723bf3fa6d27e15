package sentiment

import (
	"math"
	"strings"
)

// Label 表示帖子分析给出的结论。
type Label string

const (
	Depressed    Label = "Depressed"
	NotDepressed Label = "Not Depressed"
)

// Threshold 是判定为抑郁倾向的平均置信度下限（严格大于）。
const Threshold = 0.5

// Decision 给出一组帖子的抑郁倾向判断。
type Decision struct {
	Label      Label
	Confidence float64
	Scored     int
}

var keywordBuckets = map[string][]string{
	"negative": {
		"depressed", "depression", "hopeless", "worthless", "empty", "alone", "lonely", "tired of",
		"exhausted", "can't sleep", "cannot sleep", "insomnia", "crying", "cry", "hate myself",
		"give up", "no point", "numb", "sad", "miserable", "anxious", "panic", "burden", "pain",
		"难过", "绝望", "孤独", "失眠", "崩溃", "没意义",
	},
	"crisis": {
		"kill myself", "end it all", "suicide", "suicidal", "want to die", "self harm", "self-harm",
		"不想活",
	},
	"positive": {
		"happy", "grateful", "excited", "love", "great day", "amazing", "proud", "fun", "blessed",
		"awesome", "enjoy", "laugh", "smile", "good news", "开心", "快乐", "感恩",
	},
}

var bucketWeight = map[string]float64{
	"negative": 1,
	"crisis":   2.5,
	"positive": -1,
}

// Score 计算单条帖子的抑郁倾向概率，空文本返回 ok=false。
func Score(post string) (float64, bool) {
	normalized := strings.TrimSpace(strings.ToLower(post))
	if normalized == "" {
		return 0, false
	}

	z := -0.5
	for bucket, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				z += bucketWeight[bucket]
			}
		}
	}

	// 连续感叹号多为情绪外放，轻微拉低。
	if strings.Count(post, "!") > 1 {
		z -= 0.25
	}

	return sigmoid(z), true
}

// Analyze 对所有帖子求平均概率，忽略空帖子。
func Analyze(posts []string) Decision {
	total := 0.0
	scored := 0
	for _, post := range posts {
		p, ok := Score(post)
		if !ok {
			continue
		}
		total += p
		scored++
	}

	if scored == 0 {
		return Decision{Label: NotDepressed, Confidence: 0, Scored: 0}
	}

	confidence := total / float64(scored)
	return Decision{Label: LabelFor(confidence), Confidence: confidence, Scored: scored}
}

// LabelFor 将平均置信度映射为结论。
func LabelFor(confidence float64) Label {
	if confidence > Threshold {
		return Depressed
	}
	return NotDepressed
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
