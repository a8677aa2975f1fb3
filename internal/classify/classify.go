// Package classify analyzes the structure of selected text to steer speech
// preprocessing: detected content type picks a prompt template, and the
// complexity assessment suggests a thinking budget for the model.
//
// Everything here is a deterministic rule table; there is no learned model.
package classify

import (
	"regexp"
	"strings"
)

// ContentType is the fixed vocabulary of detected text categories.
type ContentType string

// Detected content types.
const (
	TypeInstructions ContentType = "instructions"
	TypeFeatures     ContentType = "features"
	TypeOptions      ContentType = "options"
	TypeTechnical    ContentType = "technical"
	TypeQA           ContentType = "qa"
	TypeGeneral      ContentType = "general"
)

// Complexity buckets.
type Complexity string

// Assessed complexity levels.
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Strategy names the preprocessing depth suggested for the text.
type Strategy string

// Suggested preprocessing strategies, cheapest first.
const (
	StrategyMinimal       Strategy = "minimal"
	StrategyStructural    Strategy = "structural"
	StrategyEnhanced      Strategy = "enhanced"
	StrategyComprehensive Strategy = "comprehensive"
)

// Thinking budget table. Values match the cost-control caps the add-on
// shipped with.
const (
	budgetHighComplexity    = 512
	budgetMediumComplexity  = 256
	budgetTypeInstructional = 256
	budgetTypeEnumerating   = 128
	budgetStructured        = 128
	budgetCap               = 1024
)

// Complexity scoring thresholds.
const (
	longTextChars      = 1000
	mediumTextChars    = 500
	manyLines          = 10
	longAvgLineChars   = 100
	scoreHighCutoff    = 5
	scoreMediumCutoff  = 3
	minKeywordMatches  = 2
	minTechnicalTerms  = 3
	minStructuredLines = 2
)

// Speech rate used for duration estimates, in words per minute.
const speechWordsPerMinute = 150

// Analysis is the ephemeral classification result computed per request.
type Analysis struct {
	Type                ContentType
	Complexity          Complexity
	Strategy            Strategy
	ThinkingBudget      int
	HasBullets          bool
	HasNumberedLists    bool
	LineCount           int
	AvgLineLength       float64
	EstimatedSpeechSecs float64
}

// Structured reports whether the text reads as a list rather than prose.
func (a Analysis) Structured() bool {
	return a.HasBullets || a.HasNumberedLists
}

var (
	bulletPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*[•·‣⁃▪▫‧◦⦾⦿]\s*`),
		regexp.MustCompile(`^\s*[-*+]\s+`),
		regexp.MustCompile(`^\s*\d+[.)]\s*`),
		regexp.MustCompile(`^\s*[a-zA-Z][.)]\s+`),
		regexp.MustCompile(`^\s*[ivxlcdm]+[.)]\s+`),
	}

	numberedPattern = regexp.MustCompile(`^\s*\d+[.)]\s*`)

	// Code-ish shapes: braces, brackets, or identifier( calls.
	codePattern = regexp.MustCompile(`[{}()\[\]<>]|[a-zA-Z_][a-zA-Z0-9_]*\(`)

	stepIndicators = []string{
		"first", "second", "third", "next", "then", "finally",
		"step", "stage", "phase", "install", "configure", "setup",
	}

	featureIndicators = []string{
		"feature", "benefit", "advantage", "capability", "includes",
		"offers", "provides", "supports", "enables",
	}

	optionIndicators = []string{
		"option", "choice", "alternative", "can", "may", "either",
		"plan", "package", "version", "tier",
	}

	technicalIndicators = []string{
		"api", "http", "url", "json", "xml", "sql", "css", "html",
		"function", "class", "method", "variable", "parameter",
		"config", "settings", "database", "server", "client",
		"algorithm", "code", "syntax", "compile", "debug",
	}
)

// Analyze classifies text structure. It is a pure function of its input.
func Analyze(text string) Analysis {
	lines := nonEmptyLines(text)

	hasBullets := countMatchingLines(lines, bulletPatterns) >= minStructuredLines
	hasNumbered := countNumberedLines(lines) >= minStructuredLines
	avgLineLength := averageLineLength(lines)
	contentType := detectContentType(text, lines)
	complexity := assessComplexity(text, lines, avgLineLength)

	analysis := Analysis{
		Type:                contentType,
		Complexity:          complexity,
		Strategy:            suggestStrategy(hasBullets || hasNumbered, complexity),
		ThinkingBudget:      suggestThinkingBudget(contentType, complexity, hasBullets || hasNumbered),
		HasBullets:          hasBullets,
		HasNumberedLists:    hasNumbered,
		LineCount:           len(lines),
		AvgLineLength:       avgLineLength,
		EstimatedSpeechSecs: estimateSpeechSeconds(text),
	}

	return analysis
}

func nonEmptyLines(text string) []string {
	var lines []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return lines
}

func countMatchingLines(lines []string, patterns []*regexp.Regexp) int {
	count := 0

	for _, line := range lines {
		for _, pattern := range patterns {
			if pattern.MatchString(line) {
				count++

				break
			}
		}
	}

	return count
}

func countNumberedLines(lines []string) int {
	count := 0

	for _, line := range lines {
		if numberedPattern.MatchString(line) {
			count++
		}
	}

	return count
}

func averageLineLength(lines []string) float64 {
	if len(lines) == 0 {
		return 0
	}

	total := 0
	for _, line := range lines {
		total += len(line)
	}

	return float64(total) / float64(len(lines))
}

func countIndicators(textLower string, indicators []string) int {
	score := 0

	for _, indicator := range indicators {
		if strings.Contains(textLower, indicator) {
			score++
		}
	}

	return score
}

func detectContentType(text string, lines []string) ContentType {
	textLower := strings.ToLower(text)

	if countIndicators(textLower, stepIndicators) >= minKeywordMatches ||
		leadingLinesMentionStep(lines) {
		return TypeInstructions
	}

	if countIndicators(textLower, featureIndicators) >= minKeywordMatches {
		return TypeFeatures
	}

	if countIndicators(textLower, optionIndicators) >= minKeywordMatches {
		return TypeOptions
	}

	if isTechnical(text) {
		return TypeTechnical
	}

	if strings.Contains(text, "?") && anyLineEndsWithQuestion(lines) {
		return TypeQA
	}

	return TypeGeneral
}

func leadingLinesMentionStep(lines []string) bool {
	limit := min(len(lines), 3)
	for _, line := range lines[:limit] {
		if strings.Contains(strings.ToLower(line), "step") {
			return true
		}
	}

	return false
}

func anyLineEndsWithQuestion(lines []string) bool {
	for _, line := range lines {
		if strings.HasSuffix(line, "?") {
			return true
		}
	}

	return false
}

func isTechnical(text string) bool {
	termScore := countIndicators(strings.ToLower(text), technicalIndicators)

	return termScore >= minTechnicalTerms || codePattern.MatchString(text)
}

func assessComplexity(text string, lines []string, avgLineLength float64) Complexity {
	score := 0

	switch {
	case len(text) > longTextChars:
		score += 2
	case len(text) > mediumTextChars:
		score++
	}

	if len(lines) > manyLines {
		score++
	}

	if avgLineLength > longAvgLineChars {
		score++
	}

	if hasNestedStructure(lines) {
		score++
	}

	if codePattern.MatchString(text) {
		score++
	}

	if isTechnical(text) {
		score += 2
	}

	switch {
	case score >= scoreHighCutoff:
		return ComplexityHigh
	case score >= scoreMediumCutoff:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// hasNestedStructure treats interior double spaces as indentation carried
// over from the editor selection.
func hasNestedStructure(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, "  ") {
			return true
		}
	}

	return false
}

// suggestThinkingBudget maps complexity and structure onto a reasoning
// budget, capped for cost control. Simple prose gets none at all.
func suggestThinkingBudget(
	contentType ContentType,
	complexity Complexity,
	structured bool,
) int {
	budget := 0

	switch complexity {
	case ComplexityHigh:
		budget = budgetHighComplexity
	case ComplexityMedium:
		budget = budgetMediumComplexity
	case ComplexityLow:
		budget = 0
	}

	switch contentType {
	case TypeInstructions, TypeTechnical:
		budget += budgetTypeInstructional
	case TypeFeatures, TypeOptions:
		budget += budgetTypeEnumerating
	case TypeQA, TypeGeneral:
	}

	if structured {
		budget += budgetStructured
	}

	return min(budget, budgetCap)
}

func suggestStrategy(structured bool, complexity Complexity) Strategy {
	switch {
	case !structured && complexity == ComplexityLow:
		return StrategyMinimal
	case structured && complexity == ComplexityLow:
		return StrategyStructural
	case complexity == ComplexityMedium:
		return StrategyEnhanced
	default:
		return StrategyComprehensive
	}
}

func estimateSpeechSeconds(text string) float64 {
	wordCount := len(strings.Fields(text))

	return float64(wordCount) / speechWordsPerMinute * 60
}
