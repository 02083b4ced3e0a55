package manga

import (
	"context"
	"fmt"
	"strings"

	"ai-mangagen-be/pkg/llm"
	"ai-mangagen-be/pkg/pipeline"
)

// phaseExecutor runs one production phase: build the prompt from prior
// results, call the model, decode the typed payload, and score it.
type phaseExecutor struct {
	phase       int
	provider    llm.LLMProvider
	temperature float64
	prompt      func(pctx *pipeline.Context) string
	parse       func(raw string) (pipeline.Payload, float64, error)
}

var _ pipeline.Executor = &phaseExecutor{}

func (e *phaseExecutor) Name() string {
	return PhaseName(e.phase)
}

func (e *phaseExecutor) Execute(ctx context.Context, pctx *pipeline.Context) (pipeline.Result, error) {
	if e.phase == PhaseConcept && strings.TrimSpace(pctx.InputText) == "" {
		return pipeline.Result{}, &pipeline.InvalidInputError{Reason: "empty story premise"}
	}

	pctx.ReportProgress("drafting " + PhaseName(e.phase))

	var prompt strings.Builder
	prompt.WriteString(e.prompt(pctx))
	if pctx.Feedback != "" {
		prompt.WriteString("\nEditor feedback on the previous draft. Revise to address it:\n")
		prompt.WriteString(pctx.Feedback)
		prompt.WriteString("\n")
	}

	raw, err := e.provider.Generate(ctx, prompt.String(), llm.WithTemperature(e.temperature))
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("%s generation: %w", PhaseName(e.phase), err)
	}

	payload, quality, err := e.parse(raw)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("%s response: %w", PhaseName(e.phase), err)
	}

	return pipeline.Result{
		Phase:   e.phase,
		Payload: payload,
		Quality: quality,
	}, nil
}

func parseConcept(raw string) (pipeline.Payload, float64, error) {
	var p ConceptPayload
	if err := decodeResponse(raw, &p); err != nil {
		return nil, 0, err
	}
	return p, p.quality(), nil
}

func parseWorld(raw string) (pipeline.Payload, float64, error) {
	var p WorldPayload
	if err := decodeResponse(raw, &p); err != nil {
		return nil, 0, err
	}
	return p, p.quality(), nil
}

func parseCharacters(raw string) (pipeline.Payload, float64, error) {
	var p CharactersPayload
	if err := decodeResponse(raw, &p); err != nil {
		return nil, 0, err
	}
	return p, p.quality(), nil
}

func parseStoryboard(raw string) (pipeline.Payload, float64, error) {
	var p StoryboardPayload
	if err := decodeResponse(raw, &p); err != nil {
		return nil, 0, err
	}
	return p, p.quality(), nil
}

func parseDialogue(raw string) (pipeline.Payload, float64, error) {
	var p DialoguePayload
	if err := decodeResponse(raw, &p); err != nil {
		return nil, 0, err
	}
	return p, p.quality(), nil
}

func parseArtDirection(raw string) (pipeline.Payload, float64, error) {
	var p ArtDirectionPayload
	if err := decodeResponse(raw, &p); err != nil {
		return nil, 0, err
	}
	return p, p.quality(), nil
}

func parseAssembly(raw string) (pipeline.Payload, float64, error) {
	var p AssemblyPayload
	if err := decodeResponse(raw, &p); err != nil {
		return nil, 0, err
	}
	return p, p.quality(), nil
}

// Executors wires the full phase registry against one model backend.
// Creative phases run hotter than structural ones.
func Executors(provider llm.LLMProvider) map[int]pipeline.Executor {
	return map[int]pipeline.Executor{
		PhaseConcept:      &phaseExecutor{phase: PhaseConcept, provider: provider, temperature: 0.9, prompt: buildConceptPrompt, parse: parseConcept},
		PhaseWorld:        &phaseExecutor{phase: PhaseWorld, provider: provider, temperature: 0.8, prompt: buildWorldPrompt, parse: parseWorld},
		PhaseCharacters:   &phaseExecutor{phase: PhaseCharacters, provider: provider, temperature: 0.8, prompt: buildCharactersPrompt, parse: parseCharacters},
		PhaseStoryboard:   &phaseExecutor{phase: PhaseStoryboard, provider: provider, temperature: 0.6, prompt: buildStoryboardPrompt, parse: parseStoryboard},
		PhaseDialogue:     &phaseExecutor{phase: PhaseDialogue, provider: provider, temperature: 0.7, prompt: buildDialoguePrompt, parse: parseDialogue},
		PhaseArtDirection: &phaseExecutor{phase: PhaseArtDirection, provider: provider, temperature: 0.5, prompt: buildArtDirectionPrompt, parse: parseArtDirection},
		PhaseAssembly:     &phaseExecutor{phase: PhaseAssembly, provider: provider, temperature: 0.3, prompt: buildAssemblyPrompt, parse: parseAssembly},
	}
}
