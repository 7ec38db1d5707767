package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Verdicts the oracle may give for a question. Free-text model output is
// normalized down to this set.
const (
	VerdictYes        = "yes"
	VerdictNo         = "no"
	VerdictMaybe      = "maybe"
	VerdictUnclear    = "unclear"
	VerdictIrrelevant = "irrelevant"
)

// Subjects is the closed set of puzzle subjects a session may use.
var Subjects = []string{"astronomy", "history", "geography", "physics", "chemistry", "biology"}

func ValidSubject(subject string) bool {
	for _, s := range Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// Puzzle is one riddle: the hidden answer, the visible description ("soup
// face") and a hint revealed at most once.
type Puzzle struct {
	Answer      string
	Hint        string
	Description string
}

var errOracleUnconfigured = errors.New("oracle API key not configured")

// Oracle talks to an OpenAI-compatible chat-completions endpoint for puzzle
// generation and question answering. Every call degrades to a local content
// bank when the service is unconfigured or unreachable.
type Oracle struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client

	// pick selects a fallback puzzle index; swapped for a fixed function in tests.
	pick func(n int) int
}

func NewOracle(endpoint, apiKey, model string) *Oracle {
	return &Oracle{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
		pick:     rand.Intn,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *Oracle) complete(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", errOracleUnconfigured
	}

	body, err := json.Marshal(chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		TopP:        0.8,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("oracle API error: %s - %s", resp.Status, msg)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("oracle returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// GeneratePuzzle asks the model for a subject riddle in JSON form, falling
// back to the local bank on any failure.
func (o *Oracle) GeneratePuzzle(ctx context.Context, subject string, level int) (*Puzzle, error) {
	if !ValidSubject(subject) {
		return nil, ErrUnknownSubject
	}

	prompt := fmt.Sprintf(`You are a subject-matter expert running a "turtle soup" lateral-thinking game.

Subject: %s
Level: %d

Requirements:
1. Pick a real %s term or concept suited to level %d as the hidden answer (3-30 characters).
2. Write the matching riddle description (the clue shown to players).
3. Provide one concise but suggestive hint.
4. The answer and description must be logically consistent.

Reply with exactly this JSON:
{
  "answer": "the hidden term",
  "soup": "the riddle description",
  "hint": "the hint"
}`, subject, level, subject, level)

	raw, err := o.complete(ctx, prompt)
	if err == nil {
		if p, perr := parsePuzzleJSON(raw); perr == nil {
			return p, nil
		} else {
			log.Printf("Oracle puzzle response unparseable, using fallback: %v", perr)
		}
	} else if !errors.Is(err, errOracleUnconfigured) {
		log.Printf("Oracle puzzle generation failed, using fallback: %v", err)
	}

	return o.fallbackPuzzle(subject), nil
}

// AnswerQuestion has the model judge a player question against the hidden
// answer and returns a normalized verdict.
func (o *Oracle) AnswerQuestion(ctx context.Context, subject string, puzzle *Puzzle, question string) (string, error) {
	prompt := fmt.Sprintf(`You are the host of a "turtle soup" guessing game about %s.

Rules:
1. Players ask questions to narrow down the hidden answer.
2. Reply with only a short verdict: "yes", "no", "maybe", "unclear" or "irrelevant".
3. Never reveal the answer itself.
4. The verdict must honestly reflect the relation between the question and the answer.

Hidden answer: %s
Riddle description: %s
Player question: %s

Your verdict:`, subject, puzzle.Answer, puzzle.Description, question)

	raw, err := o.complete(ctx, prompt)
	if err != nil {
		if !errors.Is(err, errOracleUnconfigured) {
			log.Printf("Oracle answer failed, using fallback: %v", err)
		}
		return fallbackVerdict(puzzle.Answer, question), nil
	}
	return NormalizeVerdict(raw), nil
}

// Hint asks the model for a one-line hint that narrows the search space
// without giving the answer away.
func (o *Oracle) Hint(ctx context.Context, subject string, puzzle *Puzzle) (string, error) {
	prompt := fmt.Sprintf(`You are the host of a "turtle soup" guessing game about %s.

Provide one concise, suggestive hint for the riddle below. The hint must not
contain the answer, must relate to the subject, and must stay under 20 words.

Hidden answer: %s
Riddle description: %s

Your hint:`, subject, puzzle.Answer, puzzle.Description)

	raw, err := o.complete(ctx, prompt)
	if err != nil {
		if !errors.Is(err, errOracleUnconfigured) {
			log.Printf("Oracle hint failed, using fallback: %v", err)
		}
		return o.fallbackHint(subject, puzzle), nil
	}

	hint := strings.TrimSpace(raw)
	hint = strings.TrimPrefix(hint, "Hint:")
	hint = strings.TrimSpace(hint)
	if len(hint) > 120 {
		hint = hint[:120] + "..."
	}
	if hint == "" {
		return o.fallbackHint(subject, puzzle), nil
	}
	return hint, nil
}

// parsePuzzleJSON extracts the puzzle object from a completion, tolerating
// markdown code fences around the JSON.
func parsePuzzleJSON(raw string) (*Puzzle, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var parsed struct {
		Answer string `json:"answer"`
		Soup   string `json:"soup"`
		Hint   string `json:"hint"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, err
	}
	if parsed.Answer == "" || parsed.Soup == "" || parsed.Hint == "" {
		return nil, errors.New("puzzle response missing fields")
	}
	return &Puzzle{Answer: parsed.Answer, Hint: parsed.Hint, Description: parsed.Soup}, nil
}

// NormalizeVerdict maps free-text model output onto the closed verdict set.
func NormalizeVerdict(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(v, ".\n"); i >= 0 {
		v = v[:i]
	}
	v = strings.Trim(v, `"' `)

	switch v {
	case VerdictYes, VerdictNo, VerdictMaybe, VerdictUnclear, VerdictIrrelevant:
		return v
	}
	switch {
	case strings.Contains(v, "irrelevant"):
		return VerdictIrrelevant
	case strings.Contains(v, "no"):
		return VerdictNo
	case strings.Contains(v, "maybe"), strings.Contains(v, "possibly"):
		return VerdictMaybe
	case strings.Contains(v, "yes"):
		return VerdictYes
	}
	return VerdictUnclear
}

// fallbackVerdict answers locally when the oracle is unavailable: a question
// that mentions part of the answer gets a yes, anything else stays
// noncommittal. Deterministic, so members of a room see consistent replies.
func fallbackVerdict(answer, question string) string {
	q := strings.ToLower(question)
	for _, word := range strings.Fields(strings.ToLower(answer)) {
		if strings.Contains(q, word) {
			return VerdictYes
		}
	}
	return VerdictUnclear
}

func (o *Oracle) fallbackPuzzle(subject string) *Puzzle {
	bank := fallbackPuzzles[subject]
	if len(bank) == 0 {
		return &Puzzle{
			Answer:      "Earth",
			Hint:        "Life exists on this planet",
			Description: "The planet we live on, the only body in the solar system known to harbor life, with oceans, continents and an atmosphere.",
		}
	}
	p := bank[o.pick(len(bank))]
	return &p
}

func (o *Oracle) fallbackHint(subject string, puzzle *Puzzle) string {
	for _, p := range fallbackPuzzles[subject] {
		if strings.EqualFold(p.Answer, puzzle.Answer) {
			return p.Hint
		}
	}
	return fmt.Sprintf("The answer is a %d-character %s term", len(puzzle.Answer), subject)
}

// Local puzzle bank used when the oracle service is unavailable.
var fallbackPuzzles = map[string][]Puzzle{
	"astronomy": {
		{
			Answer:      "black hole",
			Hint:        "A body whose gravity is so strong not even light escapes",
			Description: "An extremely dense object in space whose gravity is strong enough that nothing, not even light, can escape it. Usually formed by the collapse of a massive star.",
		},
		{
			Answer:      "comet",
			Hint:        "A small solar-system body trailing a long tail",
			Description: "A small solar-system body that grows a visible coma and tail as it nears the Sun. These visitors from the outer solar system carry material from its earliest days.",
		},
		{
			Answer:      "Milky Way",
			Hint:        "The barred spiral galaxy that contains the solar system",
			Description: "Our home galaxy, a barred spiral roughly a hundred thousand light-years across containing hundreds of billions of stars, the Sun among them.",
		},
	},
	"history": {
		{
			Answer:      "Silk Road",
			Hint:        "The ancient trade corridor linking East and West",
			Description: "A network of ancient trade routes that connected eastern and western civilizations, carrying not just goods but religions, technologies and ideas.",
		},
		{
			Answer:      "Industrial Revolution",
			Hint:        "The 18th-century shift to mechanized production",
			Description: "A transformation of production and society that began in 18th-century Britain, marking humanity's shift from agrarian life to machine-driven industry.",
		},
		{
			Answer:      "Great Wall",
			Hint:        "An ancient Chinese military defense work",
			Description: "A military defense project of ancient China stretching over twenty thousand kilometers, now a world heritage site and a national symbol.",
		},
	},
	"geography": {
		{
			Answer:      "Amazon rainforest",
			Hint:        "The largest tropical rainforest on Earth",
			Description: "The largest tropical rainforest on the planet, often called the lungs of the Earth, home to an extraordinary share of the world's biodiversity.",
		},
		{
			Answer:      "Dead Sea",
			Hint:        "The lowest lake on Earth, extremely salty",
			Description: "The lowest lake on Earth, its surface around 430 meters below sea level and so salty that swimmers float effortlessly.",
		},
		{
			Answer:      "Himalayas",
			Hint:        "The highest mountain range in the world",
			Description: "The world's highest mountain range, holding every peak above eight thousand meters, raised by the collision of the Indian and Eurasian plates.",
		},
	},
	"physics": {
		{
			Answer:      "relativity",
			Hint:        "Einstein's theory of space and time",
			Description: "Einstein's famous theory of space, time and gravity, which replaced absolute time with a flexible, curving spacetime.",
		},
		{
			Answer:      "quantum",
			Hint:        "The smallest unit of a physical quantity",
			Description: "The smallest indivisible unit of a physical quantity. The mechanics of these units governs the strange behavior of the microscopic world.",
		},
		{
			Answer:      "speed of light",
			Hint:        "The fastest speed in physics",
			Description: "A fundamental constant: the speed at which electromagnetic waves travel through vacuum, about 299,792,458 meters per second, the universal speed limit for information.",
		},
	},
	"chemistry": {
		{
			Answer:      "catalyst",
			Hint:        "Changes a reaction's rate without being consumed",
			Description: "A substance that changes the rate of a chemical reaction while emerging unchanged itself, essential to industry and to every living cell.",
		},
		{
			Answer:      "periodic table",
			Hint:        "The chart arranging elements by atomic number",
			Description: "Chemistry's most important chart, first assembled by Mendeleev, arranging every element by atomic number and revealing the periodicity of their properties.",
		},
		{
			Answer:      "acid rain",
			Hint:        "Precipitation with a pH below 5.6",
			Description: "An environmental problem: precipitation with a pH below 5.6, driven mostly by sulfur dioxide and nitrogen oxides, corrosive to ecosystems and buildings alike.",
		},
	},
	"biology": {
		{
			Answer:      "photosynthesis",
			Hint:        "How plants turn sunlight into organic matter",
			Description: "The process by which green plants use sunlight to turn carbon dioxide and water into organic matter and oxygen, the energy foundation of life on Earth.",
		},
		{
			Answer:      "gene",
			Hint:        "The basic unit of heredity",
			Description: "The basic unit of heredity, a stretch of DNA that determines an organism's traits and passes them to the next generation.",
		},
		{
			Answer:      "ecosystem",
			Hint:        "A community of organisms together with its environment",
			Description: "The unified whole formed by a community of organisms and their environment, cycling matter and channeling energy to keep nature in balance.",
		},
	},
}
