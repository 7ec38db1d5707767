package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func oracleStub(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.Messages) != 1 {
			t.Errorf("len(messages) = %d, want 1", len(req.Messages))
		}
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: reply}}},
		})
	}))
}

func TestOracle_GeneratePuzzle(t *testing.T) {
	reply := "```json\n{\"answer\": \"black hole\", \"soup\": \"a riddle\", \"hint\": \"a hint\"}\n```"
	srv := oracleStub(t, reply)
	defer srv.Close()

	o := NewOracle(srv.URL, "test-key", "qwen3")
	p, err := o.GeneratePuzzle(context.Background(), "astronomy", 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Answer != "black hole" || p.Description != "a riddle" || p.Hint != "a hint" {
		t.Errorf("unexpected puzzle: %+v", p)
	}
}

func TestOracle_GeneratePuzzle_UnknownSubject(t *testing.T) {
	o := NewOracle("http://unused", "", "qwen3")
	if _, err := o.GeneratePuzzle(context.Background(), "astrology", 1); err != ErrUnknownSubject {
		t.Errorf("err = %v, want ErrUnknownSubject", err)
	}
}

func TestOracle_GeneratePuzzle_FallbackWhenUnconfigured(t *testing.T) {
	o := NewOracle("http://unused", "", "qwen3")
	o.pick = func(int) int { return 0 }

	p, err := o.GeneratePuzzle(context.Background(), "astronomy", 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Answer != "black hole" {
		t.Errorf("Answer = %q, want the first bank entry", p.Answer)
	}
}

func TestOracle_GeneratePuzzle_FallbackOnBadJSON(t *testing.T) {
	srv := oracleStub(t, "sorry, I cannot do that")
	defer srv.Close()

	o := NewOracle(srv.URL, "test-key", "qwen3")
	o.pick = func(int) int { return 1 }

	p, err := o.GeneratePuzzle(context.Background(), "history", 2)
	if err != nil {
		t.Fatal(err)
	}
	if p.Answer != "Industrial Revolution" {
		t.Errorf("Answer = %q, want the bank entry", p.Answer)
	}
}

func TestOracle_AnswerQuestion(t *testing.T) {
	srv := oracleStub(t, `"Yes". The question is on the right track.`)
	defer srv.Close()

	o := NewOracle(srv.URL, "test-key", "qwen3")
	puzzle := &Puzzle{Answer: "black hole", Description: "a riddle"}
	verdict, err := o.AnswerQuestion(context.Background(), "astronomy", puzzle, "Is it in space?")
	if err != nil {
		t.Fatal(err)
	}
	if verdict != VerdictYes {
		t.Errorf("verdict = %q, want yes", verdict)
	}
}

func TestOracle_AnswerQuestion_FallbackDeterministic(t *testing.T) {
	o := NewOracle("http://unused", "", "qwen3")
	puzzle := &Puzzle{Answer: "black hole", Description: "a riddle"}

	v, err := o.AnswerQuestion(context.Background(), "astronomy", puzzle, "Does it involve a hole of some kind?")
	if err != nil {
		t.Fatal(err)
	}
	if v != VerdictYes {
		t.Errorf("verdict = %q, want yes when the question contains an answer word", v)
	}

	v, _ = o.AnswerQuestion(context.Background(), "astronomy", puzzle, "Is it alive?")
	if v != VerdictUnclear {
		t.Errorf("verdict = %q, want unclear", v)
	}
}

func TestOracle_Hint(t *testing.T) {
	srv := oracleStub(t, "Hint: look up at night")
	defer srv.Close()

	o := NewOracle(srv.URL, "test-key", "qwen3")
	puzzle := &Puzzle{Answer: "black hole", Description: "a riddle"}
	hint, err := o.Hint(context.Background(), "astronomy", puzzle)
	if err != nil {
		t.Fatal(err)
	}
	if hint != "look up at night" {
		t.Errorf("hint = %q", hint)
	}
}

func TestOracle_Hint_FallbackFromBank(t *testing.T) {
	o := NewOracle("http://unused", "", "qwen3")
	puzzle := &Puzzle{Answer: "Black Hole", Description: "a riddle"}

	hint, err := o.Hint(context.Background(), "astronomy", puzzle)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(hint, "gravity") {
		t.Errorf("hint = %q, want the bank hint", hint)
	}
}

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"yes", VerdictYes},
		{" Yes. ", VerdictYes},
		{`"no"`, VerdictNo},
		{"Maybe, hard to say", VerdictMaybe},
		{"possibly related", VerdictMaybe},
		{"that is irrelevant", VerdictIrrelevant},
		{"Unclear", VerdictUnclear},
		{"I refuse to answer", VerdictUnclear},
		{"No.\nBecause the answer is unrelated.", VerdictNo},
		{"", VerdictUnclear},
	}
	for _, tt := range tests {
		if got := NormalizeVerdict(tt.raw); got != tt.want {
			t.Errorf("NormalizeVerdict(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestValidSubject(t *testing.T) {
	for _, s := range Subjects {
		if !ValidSubject(s) {
			t.Errorf("ValidSubject(%q) = false", s)
		}
	}
	if ValidSubject("astrology") {
		t.Error("ValidSubject(astrology) = true")
	}
}

func TestFallbackPuzzleBankCoversAllSubjects(t *testing.T) {
	for _, s := range Subjects {
		if len(fallbackPuzzles[s]) == 0 {
			t.Errorf("no fallback puzzles for subject %q", s)
		}
	}
}
