package classify_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardvoice/speech-service/internal/classify"
)

func TestAnalyze_ContentTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want classify.ContentType
	}{
		{
			name: "instructions by keywords",
			text: "First, install the app. Then configure your account and sync.",
			want: classify.TypeInstructions,
		},
		{
			name: "instructions by leading step line",
			text: "Step 1\nOpen the deck browser\nPick a deck",
			want: classify.TypeInstructions,
		},
		{
			name: "features",
			text: "Our product offers these benefits:\n- Fast review\n- Offline mode",
			want: classify.TypeFeatures,
		},
		{
			name: "options",
			text: "You have a choice between the free plan and the paid tier.",
			want: classify.TypeOptions,
		},
		{
			name: "technical by terms",
			text: "The api returns json documents fetched from the server.",
			want: classify.TypeTechnical,
		},
		{
			name: "technical by code shapes",
			text: "Call loadDeck(name) to populate the browser.",
			want: classify.TypeTechnical,
		},
		{
			name: "question and answer",
			text: "What is spaced repetition?\nIt is a review scheduling technique.",
			want: classify.TypeQA,
		},
		{
			name: "plain prose",
			text: "The weather was pleasant and the town quiet.",
			want: classify.TypeGeneral,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			analysis := classify.Analyze(testCase.text)
			assert.Equal(t, testCase.want, analysis.Type)
		})
	}
}

func TestAnalyze_StructureDetection(t *testing.T) {
	t.Parallel()

	bulleted := "Shopping list:\n- milk\n- eggs\n- bread"
	analysis := classify.Analyze(bulleted)
	assert.True(t, analysis.HasBullets)
	assert.True(t, analysis.Structured())

	numbered := "1. Open the box\n2. Remove the card\n3. Read it aloud"
	analysis = classify.Analyze(numbered)
	assert.True(t, analysis.HasNumberedLists)
	assert.True(t, analysis.Structured())

	// A single list-looking line is not enough to call the text structured.
	singleBullet := "Here is one point.\n- just this"
	analysis = classify.Analyze(singleBullet)
	assert.False(t, analysis.Structured())

	prose := "A paragraph of ordinary sentences.\nAnother paragraph follows."
	analysis = classify.Analyze(prose)
	assert.False(t, analysis.Structured())
}

func TestAnalyze_ComplexityAndBudget(t *testing.T) {
	t.Parallel()

	// Short unstructured prose: low complexity, no reasoning budget.
	prose := classify.Analyze("The weather was pleasant and the town quiet.")
	assert.Equal(t, classify.ComplexityLow, prose.Complexity)
	assert.Zero(t, prose.ThinkingBudget)
	assert.Equal(t, classify.StrategyMinimal, prose.Strategy)

	// Structured low-complexity instructions: type and structure bonuses only.
	steps := classify.Analyze("Step 1\n1. Open the deck\n2. Review the card\n3. Rate it")
	assert.Equal(t, classify.TypeInstructions, steps.Type)
	assert.Equal(t, classify.ComplexityLow, steps.Complexity)
	assert.Equal(t, 256+128, steps.ThinkingBudget)
	assert.Equal(t, classify.StrategyStructural, steps.Strategy)

	// Long technical text with code shapes lands in the high bucket.
	var builder strings.Builder
	for range 12 {
		builder.WriteString("The api client calls server.fetch(url) and parses the json config payload.\n")
	}

	technical := classify.Analyze(builder.String())
	assert.Equal(t, classify.TypeTechnical, technical.Type)
	assert.Equal(t, classify.ComplexityHigh, technical.Complexity)
	assert.Equal(t, 512+256, technical.ThinkingBudget)
	assert.Equal(t, classify.StrategyComprehensive, technical.Strategy)
}

func TestAnalyze_BudgetCap(t *testing.T) {
	t.Parallel()

	// High complexity, instructional type, and structure together would sum
	// past the cap without the clamp.
	var builder strings.Builder

	builder.WriteString("Step 1: install the api server\n")
	for range 12 {
		builder.WriteString("1. Then configure the json config file and debug the database client code carefully.\n")
	}

	analysis := classify.Analyze(builder.String())
	assert.Equal(t, classify.ComplexityHigh, analysis.Complexity)
	assert.True(t, analysis.Structured())
	assert.LessOrEqual(t, analysis.ThinkingBudget, 1024)
}

func TestAnalyze_SpeechEstimate(t *testing.T) {
	t.Parallel()

	// 150 words at 150 words per minute is one minute of speech.
	text := strings.TrimSpace(strings.Repeat("word ", 150))
	analysis := classify.Analyze(text)
	assert.InDelta(t, 60.0, analysis.EstimatedSpeechSecs, 0.01)

	empty := classify.Analyze("")
	assert.Zero(t, empty.EstimatedSpeechSecs)
}

func TestAnalyze_LineAccounting(t *testing.T) {
	t.Parallel()

	analysis := classify.Analyze("abcd\n\n  \nefgh\n")
	assert.Equal(t, 2, analysis.LineCount)
	assert.InDelta(t, 4.0, analysis.AvgLineLength, 0.01)
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := classify.BuildPrompt(classify.TypeInstructions, "Open the deck.", "friendly")
	assert.Contains(t, prompt, "Open the deck.")
	assert.Contains(t, prompt, "friendly style")
	assert.NotContains(t, prompt, "{text}")
	assert.NotContains(t, prompt, "{style}")
}

func TestBuildPrompt_DefaultStyle(t *testing.T) {
	t.Parallel()

	prompt := classify.BuildPrompt(classify.TypeGeneral, "Hello.", "")
	assert.Contains(t, prompt, classify.DefaultStyle+" style")
}

func TestPromptTemplate_UnknownTypeFallsBack(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		classify.PromptTemplate(classify.TypeGeneral),
		classify.PromptTemplate(classify.ContentType("mystery")),
	)
}
