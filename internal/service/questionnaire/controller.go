package questionnaire

import (
	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

// Controller walks the fixed question list. States are question indices;
// an accepted answer moves to the next index, a rejected one stays put.
type Controller struct {
	questions []questionnaire.Question
	index     int
	responses questionnaire.Responses
}

// NewController starts a walk at the first question.
func NewController(questions []questionnaire.Question) *Controller {
	return &Controller{
		questions: append([]questionnaire.Question(nil), questions...),
		responses: make(questionnaire.Responses, len(questions)),
	}
}

// Index is the position of the active question, or Len() once complete.
func (c *Controller) Index() int {
	return c.index
}

// Len is the number of questions in the walk.
func (c *Controller) Len() int {
	return len(c.questions)
}

// IsComplete reports whether every question has been answered.
func (c *Controller) IsComplete() bool {
	return c.index >= len(c.questions)
}

// Current returns the active question.
func (c *Controller) Current() (questionnaire.Question, bool) {
	if c.IsComplete() {
		return questionnaire.Question{}, false
	}
	return c.questions[c.index], true
}

// Submit validates raw against the active question. On success the coerced
// value is recorded and the walk advances by one.
func (c *Controller) Submit(raw string) (questionnaire.Value, error) {
	q, ok := c.Current()
	if !ok {
		return questionnaire.Value{}, ErrComplete
	}

	if !q.Validate(raw) {
		return questionnaire.Value{}, &ValidationError{Key: q.Key, Message: q.ErrorMessage}
	}

	value, err := q.Coerce(raw)
	if err != nil {
		return questionnaire.Value{}, &ValidationError{Key: q.Key, Message: q.ErrorMessage}
	}

	c.responses[q.Key] = value
	c.index++
	return value, nil
}

// Responses returns a copy of the accepted answers.
func (c *Controller) Responses() questionnaire.Responses {
	return c.responses.Clone()
}
