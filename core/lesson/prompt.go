package lesson

import "fmt"

// promptTemplate embeds the outline in fixed formatting instructions: the
// generator must return a render-ready markup fragment with a single root
// container and no explanatory text.
const promptTemplate = `Generate only the lesson markup (no explanations, no code fences).
The markup must be safe and ready to render directly inside a web page.

Topic: %q

Requirements:
- Return ONLY a valid HTML fragment.
- Use simple, clear text and structure with headings, paragraphs, and small examples.
- Wrap everything in a single root <div> element.
- Do not include any explanations or code comments.
- Output only the markup content.`

// BuildPrompt builds the single prompt sent to the content generator for the
// given outline.
func BuildPrompt(outline string) string {
	return fmt.Sprintf(promptTemplate, outline)
}
