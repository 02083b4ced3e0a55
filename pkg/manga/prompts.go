package manga

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-mangagen-be/pkg/pipeline"
)

// priorJSON renders an earlier phase result as compact JSON for prompt
// context. Degraded phases carry placeholder payloads and render as an
// explicit gap marker so the model does not hallucinate continuity.
func priorJSON(pctx *pipeline.Context, phase int) string {
	res, ok := pctx.Result(phase)
	if !ok {
		return "(not available)"
	}
	if res.Degraded {
		if _, isPlaceholder := res.Payload.(pipeline.PlaceholderPayload); isPlaceholder {
			return "(phase skipped, improvise conservatively)"
		}
	}
	b, err := json.Marshal(res.Payload)
	if err != nil {
		return "(not available)"
	}
	return string(b)
}

func buildConceptPrompt(pctx *pipeline.Context) string {
	var prompt strings.Builder

	prompt.WriteString("You are a manga editor developing a new series pitch.\n")
	prompt.WriteString("From the premise below, produce a concept document.\n\n")
	prompt.WriteString("Premise:\n")
	prompt.WriteString(pctx.InputText)
	prompt.WriteString("\n\n")

	if len(pctx.References) > 0 {
		prompt.WriteString("Prior works in the catalogue with a similar premise. ")
		prompt.WriteString("Do not duplicate their hooks:\n")
		for _, ref := range pctx.References {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", ref.Title, ref.Synopsis))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("Respond with only JSON in this shape:\n")
	prompt.WriteString(`{"title": "...", "logline": "one-sentence hook", "genre": "...", "audience": "shonen|shojo|seinen|josei", "themes": ["..."]}`)
	prompt.WriteString("\n")

	return prompt.String()
}

func buildWorldPrompt(pctx *pipeline.Context) string {
	var prompt strings.Builder

	prompt.WriteString("You are a manga world designer.\n")
	prompt.WriteString("Build the setting bible for the concept below.\n\n")
	prompt.WriteString("Concept:\n")
	prompt.WriteString(priorJSON(pctx, PhaseConcept))
	prompt.WriteString("\n\n")
	prompt.WriteString("Respond with only JSON in this shape:\n")
	prompt.WriteString(`{"setting": "...", "era": "...", "locations": [{"name": "...", "description": "..."}], "rules": ["hard constraints of this world"]}`)
	prompt.WriteString("\n")

	return prompt.String()
}

func buildCharactersPrompt(pctx *pipeline.Context) string {
	var prompt strings.Builder

	prompt.WriteString("You are a manga character designer.\n")
	prompt.WriteString("Create the main cast for the concept and world below.\n")
	prompt.WriteString("At least a protagonist and an antagonist, each with a visual identity an artist can draw consistently.\n\n")
	prompt.WriteString("Concept:\n")
	prompt.WriteString(priorJSON(pctx, PhaseConcept))
	prompt.WriteString("\n\nWorld:\n")
	prompt.WriteString(priorJSON(pctx, PhaseWorld))
	prompt.WriteString("\n\n")
	prompt.WriteString("Respond with only JSON in this shape:\n")
	prompt.WriteString(`{"characters": [{"name": "...", "role": "protagonist|antagonist|support", "appearance": "...", "personality": "...", "motivation": "..."}]}`)
	prompt.WriteString("\n")

	return prompt.String()
}

func buildStoryboardPrompt(pctx *pipeline.Context) string {
	var prompt strings.Builder

	prompt.WriteString("You are a manga storyboard artist (name layout stage).\n")
	prompt.WriteString("Break the opening chapter into pages and panels. ")
	prompt.WriteString("Every panel gets a shot type and a drawable description, no dialogue yet.\n\n")
	prompt.WriteString("Concept:\n")
	prompt.WriteString(priorJSON(pctx, PhaseConcept))
	prompt.WriteString("\n\nWorld:\n")
	prompt.WriteString(priorJSON(pctx, PhaseWorld))
	prompt.WriteString("\n\nCast:\n")
	prompt.WriteString(priorJSON(pctx, PhaseCharacters))
	prompt.WriteString("\n\n")
	prompt.WriteString("Respond with only JSON in this shape:\n")
	prompt.WriteString(`{"pages": [{"number": 1, "panels": [{"number": 1, "shot": "wide|medium|close-up|over-shoulder", "description": "..."}]}]}`)
	prompt.WriteString("\n")

	return prompt.String()
}

func buildDialoguePrompt(pctx *pipeline.Context) string {
	var prompt strings.Builder

	prompt.WriteString("You are a manga scriptwriter.\n")
	prompt.WriteString("Write the dialogue and captions for the storyboard below. ")
	prompt.WriteString("Reference panels by page and panel number; keep each balloon short.\n\n")
	prompt.WriteString("Cast:\n")
	prompt.WriteString(priorJSON(pctx, PhaseCharacters))
	prompt.WriteString("\n\nStoryboard:\n")
	prompt.WriteString(priorJSON(pctx, PhaseStoryboard))
	prompt.WriteString("\n\n")
	prompt.WriteString("Respond with only JSON in this shape:\n")
	prompt.WriteString(`{"lines": [{"page": 1, "panel": 1, "speaker": "character name or CAPTION", "text": "..."}]}`)
	prompt.WriteString("\n")

	return prompt.String()
}

func buildArtDirectionPrompt(pctx *pipeline.Context) string {
	var prompt strings.Builder

	prompt.WriteString("You are a manga art director.\n")
	prompt.WriteString("Define the visual treatment for the chapter: style, line weight, screentone usage, and per-scene notes the artists follow.\n\n")
	prompt.WriteString("Concept:\n")
	prompt.WriteString(priorJSON(pctx, PhaseConcept))
	prompt.WriteString("\n\nWorld:\n")
	prompt.WriteString(priorJSON(pctx, PhaseWorld))
	prompt.WriteString("\n\nStoryboard:\n")
	prompt.WriteString(priorJSON(pctx, PhaseStoryboard))
	prompt.WriteString("\n\n")
	prompt.WriteString("Respond with only JSON in this shape:\n")
	prompt.WriteString(`{"style": "...", "line_weight": "...", "tone_notes": "...", "palette": ["for color pages"], "panel_notes": ["..."], "cover_brief": "..."}`)
	prompt.WriteString("\n")

	return prompt.String()
}

func buildAssemblyPrompt(pctx *pipeline.Context) string {
	var prompt strings.Builder

	prompt.WriteString("You are a manga editor assembling the final production script.\n")
	prompt.WriteString("Merge the storyboard, dialogue, and art direction into one script ")
	prompt.WriteString("a production team can render page by page.\n\n")
	prompt.WriteString("Concept:\n")
	prompt.WriteString(priorJSON(pctx, PhaseConcept))
	prompt.WriteString("\n\nStoryboard:\n")
	prompt.WriteString(priorJSON(pctx, PhaseStoryboard))
	prompt.WriteString("\n\nDialogue:\n")
	prompt.WriteString(priorJSON(pctx, PhaseDialogue))
	prompt.WriteString("\n\nArt direction:\n")
	prompt.WriteString(priorJSON(pctx, PhaseArtDirection))
	prompt.WriteString("\n\n")
	prompt.WriteString("Respond with only JSON in this shape:\n")
	prompt.WriteString(`{"title": "...", "page_count": 0, "synopsis": "...", "script": "full page-by-page script text"}`)
	prompt.WriteString("\n")

	return prompt.String()
}
