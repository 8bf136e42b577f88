package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/runwayhq/runway/internal/domain"
)

// DefaultModelName is the Gemini model used for fallback classification.
const DefaultModelName = "gemini-2.0-flash"

// Classifier assigns a category to a free-text description the rule
// table could not place. Implementations must be safe for sequential
// reuse across a batch.
type Classifier interface {
	Classify(ctx context.Context, description string, dir domain.Direction) (category, subcategory string, err error)
}

// GeminiClassifier classifies descriptions with Gemini, constrained to
// the static taxonomy. It is optional; the import pipeline works
// without it.
type GeminiClassifier struct {
	model string
}

// NewGeminiClassifier creates a classifier using the given model name,
// or DefaultModelName when empty.
func NewGeminiClassifier(model string) *GeminiClassifier {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiClassifier{model: model}
}

// Classify sends the description to the model and expects a strict JSON
// object naming one of the predefined categories.
func (g *GeminiClassifier) Classify(ctx context.Context, description string, dir domain.Direction) (string, string, error) {
	prompt := "You are a transaction classifier for a small-business cashflow tool.\n\n" +
		"Task:\n" +
		"- Classify the bank transaction description below into exactly one of the predefined categories.\n" +
		"- Output STRICT JSON only (no comments, no extra text).\n" +
		"- Output a single JSON object: {\"category\": string, \"subcategory\": string or null}\n\n" +
		fmt.Sprintf("Direction: %s\n", dir) +
		fmt.Sprintf("Allowed categories: %s\n\n", strings.Join(Categories(dir), ", ")) +
		"Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n\n" +
		fmt.Sprintf("Description: %q\n", description)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", "", fmt.Errorf("Classify: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", "", fmt.Errorf("Classify: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", "", fmt.Errorf("Classify: empty response from model")
	}

	var parsed struct {
		Category    string  `json:"category"`
		Subcategory *string `json:"subcategory"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return "", "", fmt.Errorf("Classify: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	// Reject categories outside the taxonomy so a creative model cannot
	// widen it.
	for _, name := range Categories(dir) {
		if strings.EqualFold(parsed.Category, name) {
			sub := ""
			if parsed.Subcategory != nil {
				sub = *parsed.Subcategory
			}
			return name, sub, nil
		}
	}
	return CategoryOther, "", nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON object if junk surrounds it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
