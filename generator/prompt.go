package generator

import (
	"fmt"
	"sort"
	"strings"
)

// Prompt is the set of messages sent to the LLM.
type Prompt struct {
	System  string
	User    string
	History []Message
	// Temperature overrides the client default when positive.
	Temperature float64
}

// Message is one optional history entry.
type Message struct {
	Role    string
	Content string
}

const (
	visionTemperature   = 0.8
	followUpTemperature = 0.7

	imageContextRunes = 250
)

// BuildVisionPrompt asks for a first vision from the user's answers.
func BuildVisionPrompt(req VisionRequest) Prompt {
	var sb strings.Builder
	sb.WriteString("You are helping someone imagine the UK in the year 2050.\n")
	if len(req.Themes) > 0 {
		sb.WriteString(fmt.Sprintf("They chose these themes: %s.\n", strings.Join(themeLabels(req.Themes), ", ")))
	}
	sb.WriteString("Their answers:\n\n")
	writeAnswers(&sb, req.Answers)
	sb.WriteString("\nWrite an optimistic but grounded vision of the UK in 2050 built on these answers.\n")

	return Prompt{
		System:      visionSystem(),
		User:        sb.String(),
		Temperature: visionTemperature,
	}
}

// BuildRefinePrompt reshapes an existing vision with follow-up answers. The
// previous vision, when known, is replayed as the assistant's last turn.
func BuildRefinePrompt(req VisionRequest) Prompt {
	var sb strings.Builder
	sb.WriteString("The original answers were:\n\n")
	writeAnswers(&sb, req.Answers)
	sb.WriteString("\nThe user added this in response to follow-up questions:\n")
	sb.WriteString(strings.TrimSpace(req.ExtraInfo))
	sb.WriteString("\n\nRevise the vision so it reflects the new information. Keep what still fits.\n")

	var history []Message
	if prev := strings.TrimSpace(req.PreviousVision); prev != "" {
		history = append(history, Message{Role: "assistant", Content: prev})
	}
	return Prompt{
		System:      visionSystem(),
		User:        sb.String(),
		History:     history,
		Temperature: visionTemperature,
	}
}

func visionSystem() string {
	var sb strings.Builder
	sb.WriteString("You are a civic futures writer.\n")
	sb.WriteString("Reply with a single JSON object and nothing else:\n")
	sb.WriteString(`{"title": "...", "summary": "...", "vision": "..."}` + "\n")
	sb.WriteString("- title: a short, compelling title.\n")
	sb.WriteString("- summary: two or three sentences.\n")
	sb.WriteString("- vision: Markdown; every section starts with a line \"## Heading\" followed by one paragraph.\n")
	sb.WriteString("- Use four to six sections.\n")
	return sb.String()
}

// BuildFollowUpPrompt asks for clarifying questions.
func BuildFollowUpPrompt(answers Answers) Prompt {
	var sb strings.Builder
	sb.WriteString("You are helping someone imagine the UK in the year 2050.\n\n")
	sb.WriteString("They answered these questions about politics, society, technology, etc.:\n\n")
	for _, q := range sortedKeys(answers) {
		sb.WriteString(fmt.Sprintf("Q: %s\nA: %s\n\n", q, answers[q]))
	}
	sb.WriteString("Suggest 2-3 follow-up questions that would help clarify or deepen their vision of the future. ")
	sb.WriteString("Make the questions open-ended and thoughtful. Return only the questions as a numbered list.")

	return Prompt{
		System:      "You generate clarifying questions for vision-building.",
		User:        sb.String(),
		Temperature: followUpTemperature,
	}
}

// BuildSummaryPrompt asks for a title and a short summary of a vision.
func BuildSummaryPrompt(vision string) Prompt {
	return Prompt{
		System: "You are a helpful assistant that summarizes civic future visions.",
		User: "Summarize the following vision text in 2-3 sentences, and suggest a compelling short title.\n" +
			"Answer as two lines: \"Title: ...\" and \"Summary: ...\".\n\n" + vision,
	}
}

// BuildImagePrompt turns vision text into an illustration prompt. Only the
// head of the vision is kept so the prompt stays short.
func BuildImagePrompt(visionText string) string {
	var sb strings.Builder
	sb.WriteString("A realistic, high-resolution digital illustration of daily life in the UK in 2050.\n")
	sb.WriteString("Show diverse people, green energy infrastructure, advanced public transport, and lush urban greenery.\n")
	sb.WriteString("Style: clean cinematic concept-art, detailed and optimistic, no abstract paint strokes, no surreal filters.\n")
	sb.WriteString("Key ideas from the vision:\n")
	sb.WriteString(truncateRunes(strings.TrimSpace(visionText), imageContextRunes))
	return sb.String()
}

func writeAnswers(sb *strings.Builder, answers Answers) {
	for _, q := range sortedKeys(answers) {
		sb.WriteString(fmt.Sprintf("%s: %s\n", q, answers[q]))
	}
}

// sortedKeys keeps prompts stable across runs.
func sortedKeys(answers Answers) []string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
