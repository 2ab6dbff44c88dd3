package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func validQuestion() Question {
	return Question{
		Prompt:  "Capital of France?",
		Options: []Option{{Text: "Paris"}, {Text: "Lyon"}},
		Answer:  0,
	}
}

func TestQuestionValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Question)
		want   error
	}{
		{"valid two options", func(q *Question) {}, nil},
		{"valid four options", func(q *Question) {
			q.Options = append(q.Options, Option{Text: "Nice"}, Option{Text: "Lille"})
		}, nil},
		{"valid image prompt", func(q *Question) {
			q.Prompt = ""
			q.ImageURL = "/uploads/map.png"
		}, nil},
		{"valid image option", func(q *Question) {
			q.Options[1] = Option{ImageURL: "/uploads/lyon.png"}
		}, nil},
		{"no prompt at all", func(q *Question) { q.Prompt = "" }, ErrPromptRequired},
		{"prompt and image", func(q *Question) { q.ImageURL = "/uploads/map.png" }, ErrPromptRequired},
		{"three options", func(q *Question) {
			q.Options = append(q.Options, Option{Text: "Nice"})
		}, ErrBadOptionCount},
		{"empty option", func(q *Question) { q.Options[1] = Option{} }, ErrBadOption},
		{"option with text and image", func(q *Question) {
			q.Options[1] = Option{Text: "Lyon", ImageURL: "/uploads/lyon.png"}
		}, ErrBadOption},
		{"answer too high", func(q *Question) { q.Answer = 2 }, ErrAnswerOutOfRange},
		{"answer negative", func(q *Question) { q.Answer = -1 }, ErrAnswerOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuestion()
			tc.mutate(&q)
			err := q.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateQuestions(t *testing.T) {
	if err := ValidateQuestions(nil); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}

	bad := []Question{validQuestion(), {Prompt: "broken"}}
	if err := ValidateQuestions(bad); !errors.Is(err, ErrBadOptionCount) {
		t.Fatalf("expected the bad question's error, got %v", err)
	}

	if err := ValidateQuestions([]Question{validQuestion()}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestViewStripsAnswerKey(t *testing.T) {
	test := &Test{
		ID:        "QUIZ01",
		TeacherID: 7,
		Title:     "Geography",
		Questions: []Question{validQuestion()},
		IsLive:    true,
	}

	raw, err := json.Marshal(test.View())
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	questions := decoded["questions"].([]any)
	q := questions[0].(map[string]any)
	if _, leaked := q["answer"]; leaked {
		t.Fatal("answer key leaked into the sanitized view")
	}
	if q["question"] != "Capital of France?" {
		t.Fatalf("prompt missing from view: %v", q)
	}
	if _, leaked := decoded["TID"]; leaked {
		t.Fatal("teacher id leaked into the sanitized view")
	}
}
