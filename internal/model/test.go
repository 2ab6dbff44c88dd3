package model

import (
	"errors"
	"fmt"
	"time"
)

// Test is a quiz: an ordered question list plus the live-session pointer.
// ID is a teacher-chosen string ("Math101"). While live, CurrentQuestion is
// the 0-based index of the question being hosted; only the cursor mutates
// IsLive/CurrentQuestion.
type Test struct {
	ID              string     `json:"ID"`
	TeacherID       int        `json:"TID"`
	Title           string     `json:"title,omitempty"`
	Questions       []Question `json:"questions"`
	IsLive          bool       `json:"isLive"`
	CurrentQuestion int        `json:"currentQuestion"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Question is a single quiz question. Prompt and ImageURL are mutually
// exclusive, as are an option's Text and ImageURL. Answer is the index of
// the correct option. Immutable once the test is authored.
type Question struct {
	Prompt   string   `json:"question,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Options  []Option `json:"options"`
	Answer   int      `json:"answer"`
}

// Option is a possible answer, text or image.
type Option struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Validation errors for authored questions.
var (
	ErrPromptRequired   = errors.New("question needs a prompt or an image, not both")
	ErrBadOptionCount   = errors.New("question needs exactly 2 or 4 options")
	ErrBadOption        = errors.New("option needs text or an image, not both")
	ErrAnswerOutOfRange = errors.New("answer index is out of range")
)

// Validate checks the authoring rules for a single question.
func (q Question) Validate() error {
	if (q.Prompt == "") == (q.ImageURL == "") {
		return ErrPromptRequired
	}
	if len(q.Options) != 2 && len(q.Options) != 4 {
		return ErrBadOptionCount
	}
	for i, opt := range q.Options {
		if (opt.Text == "") == (opt.ImageURL == "") {
			return fmt.Errorf("option %d: %w", i, ErrBadOption)
		}
	}
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return ErrAnswerOutOfRange
	}
	return nil
}

// ValidateQuestions checks the full authored sequence.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

// QuestionView is a question as shown to a live audience: the correct answer
// index is stripped.
type QuestionView struct {
	Prompt   string   `json:"question,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Options  []Option `json:"options"`
}

// View returns the sanitized form of the question.
func (q Question) View() QuestionView {
	return QuestionView{
		Prompt:   q.Prompt,
		ImageURL: q.ImageURL,
		Options:  q.Options,
	}
}

// TestView is the poll target for students and resuming hosts: live state plus
// sanitized questions, never the answer key.
type TestView struct {
	ID              string         `json:"ID"`
	Title           string         `json:"title,omitempty"`
	IsLive          bool           `json:"isLive"`
	CurrentQuestion int            `json:"currentQuestion"`
	Questions       []QuestionView `json:"questions"`
}

// View returns the sanitized form of the test.
func (t *Test) View() TestView {
	views := make([]QuestionView, len(t.Questions))
	for i, q := range t.Questions {
		views[i] = q.View()
	}
	return TestView{
		ID:              t.ID,
		Title:           t.Title,
		IsLive:          t.IsLive,
		CurrentQuestion: t.CurrentQuestion,
		Questions:       views,
	}
}

// CreateTestRequest is the authoring payload. Field names follow the web
// client (uppercase ID at the top level, option objects inside questions).
type CreateTestRequest struct {
	ID        string     `json:"ID" binding:"required,min=1,max=100"`
	Title     string     `json:"title" binding:"omitempty,max=255"`
	Questions []Question `json:"questions" binding:"required,min=1"`
}

// UpdateTestRequest replaces a test's title and question list.
type UpdateTestRequest struct {
	Title     string     `json:"title" binding:"omitempty,max=255"`
	Questions []Question `json:"questions" binding:"required,min=1"`
}

// StartTestRequest starts hosting a test.
type StartTestRequest struct {
	ID string `json:"ID" binding:"required,min=1,max=100"`
}

// NextQuestionRequest advances the cursor. FromIndex, when present, is a
// compare-and-swap guard: the advance only applies if the cursor is still at
// that index, which turns a duplicated request into a detectable no-op.
type NextQuestionRequest struct {
	ID        string `json:"ID" binding:"required,min=1,max=100"`
	FromIndex *int   `json:"fromIndex" binding:"omitempty,min=0"`
}

// SubmitAnswerRequest records one answer outcome for the current question.
// QuestionIndex, when present, rejects late deliveries for an older question.
type SubmitAnswerRequest struct {
	TestID        string `json:"testID" binding:"required,min=1,max=100"`
	IsCorrect     *bool  `json:"isCorrect" binding:"required"`
	QuestionIndex *int   `json:"questionIndex" binding:"omitempty,min=0"`
}
