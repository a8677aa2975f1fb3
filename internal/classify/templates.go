package classify

import "strings"

// Template placeholders.
const (
	placeholderText  = "{text}"
	placeholderStyle = "{style}"
)

// DefaultStyle is used when the caller does not name a presentation style.
const DefaultStyle = "natural"

// promptTemplates maps each content type to the instructions wrapped around
// the text when a preprocessing model rewrites it for speech.
var promptTemplates = map[ContentType]string{
	TypeInstructions: `Transform these step-by-step instructions into clear, spoken directions using a {style} style:

{text}

RULES:
- Convert numbered/bulleted steps into flowing instructions
- Use transition words: "First,", "Next,", "Then,", "Finally,"
- Make it sound like someone giving helpful directions
- Keep all important details and sequence
- End with encouraging completion phrase

Generate natural speech text:`,

	TypeFeatures: `Transform this feature list into engaging spoken content using a {style} style:

{text}

RULES:
- Convert bullets into flowing benefits description
- Use connecting phrases: "This includes", "You'll also get", "Additionally,"
- Emphasize value and benefits to the listener
- Make it sound like an enthusiastic presentation
- Group related features naturally

Generate natural speech text:`,

	TypeOptions: `Transform these options into clear spoken choices using a {style} style:

{text}

RULES:
- Convert list into spoken alternatives
- Use choice language: "You can choose", "Another option is", "Alternatively,"
- Present options as helpful guidance
- Make decision-making clear and easy
- End with guidance on next steps

Generate natural speech text:`,

	TypeTechnical: `Transform this technical content into clear spoken explanation using a {style} style:

{text}

RULES:
- Simplify technical jargon where possible
- Spell out acronyms and abbreviations
- Convert symbols and special characters to words
- Use explanatory phrases for complex concepts
- Make it accessible to general audience

Generate natural speech text:`,

	TypeQA: `Transform this Q&A content into natural conversational speech using a {style} style:

{text}

RULES:
- Present questions naturally: "You might be wondering..."
- Flow answers conversationally
- Use bridging phrases between Q&As
- Make it sound like helpful dialogue
- Maintain question-answer structure

Generate natural speech text:`,

	TypeGeneral: `Transform this content into natural spoken language using a {style} style:

{text}

RULES:
- Convert any structured elements to flowing text
- Add appropriate transitions between ideas
- Make it sound conversational and engaging
- Preserve all important information
- Use natural speech patterns

Generate natural speech text:`,
}

// PromptTemplate returns the raw template for a content type, falling back
// to the general template for unknown types.
func PromptTemplate(contentType ContentType) string {
	template, found := promptTemplates[contentType]
	if !found {
		return promptTemplates[TypeGeneral]
	}

	return template
}

// BuildPrompt fills the template for a content type with the text and style.
// An empty style uses DefaultStyle.
func BuildPrompt(contentType ContentType, text, style string) string {
	if style == "" {
		style = DefaultStyle
	}

	prompt := PromptTemplate(contentType)
	prompt = strings.ReplaceAll(prompt, placeholderStyle, style)
	prompt = strings.ReplaceAll(prompt, placeholderText, text)

	return prompt
}
