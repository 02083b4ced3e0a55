package manga

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-mangagen-be/pkg/llm"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
)

// cannedProvider replays a fixed response and records the prompt it saw.
type cannedProvider struct {
	response string
	err      error
	prompts  []string
}

func (p *cannedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if len(history) > 0 {
		p.prompts = append(p.prompts, history[len(history)-1].Content)
	}
	return p.response, p.err
}

func (p *cannedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.response, p.err
}

func testContext(input string) *pipeline.Context {
	s := pipeline.NewSession(uuid.New(), "owner@example.com", input)
	return pipeline.NewContext(s, nil)
}

func TestExecutorsCoverEveryPhase(t *testing.T) {
	execs := Executors(&cannedProvider{})
	if len(execs) != PhaseCount {
		t.Fatalf("Executors = %d entries, want %d", len(execs), PhaseCount)
	}
	for p := 1; p <= PhaseCount; p++ {
		e, ok := execs[p]
		if !ok {
			t.Errorf("phase %d missing", p)
			continue
		}
		if e.Name() != PhaseName(p) {
			t.Errorf("phase %d Name = %q, want %q", p, e.Name(), PhaseName(p))
		}
	}
}

func TestConceptRejectsEmptyInput(t *testing.T) {
	execs := Executors(&cannedProvider{response: "{}"})
	pctx := testContext("   ")
	pctx.CurrentPhase = PhaseConcept

	_, err := execs[PhaseConcept].Execute(context.Background(), pctx)
	var inv *pipeline.InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("Execute = %v, want InvalidInputError", err)
	}
}

func TestConceptParsesAndScores(t *testing.T) {
	provider := &cannedProvider{response: `Here you go:
{"title":"Drift","logline":"A retired pilot opens a noodle stand on a derelict station.","genre":"slice of life","audience":"seinen","themes":["belonging","second chances"]}`}
	execs := Executors(provider)
	pctx := testContext("A retired mecha pilot opens a noodle stand.")
	pctx.CurrentPhase = PhaseConcept

	res, err := execs[PhaseConcept].Execute(context.Background(), pctx)
	if err != nil {
		t.Fatalf("Execute = %v", err)
	}
	concept, ok := res.Payload.(ConceptPayload)
	if !ok {
		t.Fatalf("Payload type = %T", res.Payload)
	}
	if concept.Title != "Drift" {
		t.Errorf("Title = %q", concept.Title)
	}
	if res.Quality != 1.0 {
		t.Errorf("Quality = %v, want 1.0", res.Quality)
	}
	if res.Payload.Kind() != "concept" {
		t.Errorf("Kind = %q", res.Payload.Kind())
	}
}

func TestExecutorAppendsFeedbackToPrompt(t *testing.T) {
	provider := &cannedProvider{response: `{"pages":[{"number":1,"panels":[{"number":1,"shot":"wide","description":"station exterior"},{"number":2,"shot":"close-up","description":"steam rising"}]},{"number":2,"panels":[{"number":1,"shot":"wide","description":"counter"},{"number":2,"shot":"mid","description":"first customer"}]},{"number":3,"panels":[{"number":1,"shot":"wide","description":"night"},{"number":2,"shot":"close-up","description":"empty bowl"}]}]}`}
	execs := Executors(provider)
	pctx := testContext("premise")
	pctx.CurrentPhase = PhaseStoryboard
	pctx.Feedback = "tighter pacing on page one"

	if _, err := execs[PhaseStoryboard].Execute(context.Background(), pctx); err != nil {
		t.Fatalf("Execute = %v", err)
	}
	if len(provider.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[0], "tighter pacing on page one") {
		t.Error("feedback not included in revision prompt")
	}
	if !strings.Contains(provider.prompts[0], "Editor feedback") {
		t.Error("revision framing missing from prompt")
	}
}

func TestExecutorSurfacesProviderError(t *testing.T) {
	provider := &cannedProvider{err: errors.New("model offline")}
	execs := Executors(provider)
	pctx := testContext("premise")
	pctx.CurrentPhase = PhaseWorld

	_, err := execs[PhaseWorld].Execute(context.Background(), pctx)
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Errorf("Execute = %v, want wrapped provider error", err)
	}
}

func TestExecutorRejectsMalformedResponse(t *testing.T) {
	provider := &cannedProvider{response: "I'd rather write a poem."}
	execs := Executors(provider)
	pctx := testContext("premise")
	pctx.CurrentPhase = PhaseDialogue

	if _, err := execs[PhaseDialogue].Execute(context.Background(), pctx); err == nil {
		t.Error("Execute accepted a non-JSON response")
	}
}

func TestPromptsThreadPriorResults(t *testing.T) {
	provider := &cannedProvider{response: `{"setting":"A derelict orbital station above a flooded Earth.","era":"near future","locations":[{"name":"Noodle stand","description":"retrofitted cargo bay"},{"name":"Docking ring","description":"rusting"}],"rules":["gravity is unreliable"]}`}
	execs := Executors(provider)
	pctx := testContext("premise")
	pctx.SetResult(PhaseConcept, pipeline.Result{
		Phase:   PhaseConcept,
		Payload: ConceptPayload{Title: "Drift", Logline: "A pilot opens a noodle stand in orbit."},
		Quality: 0.9,
	})
	pctx.CurrentPhase = PhaseWorld

	if _, err := execs[PhaseWorld].Execute(context.Background(), pctx); err != nil {
		t.Fatalf("Execute = %v", err)
	}
	if !strings.Contains(provider.prompts[0], "Drift") {
		t.Error("world prompt does not carry the concept result")
	}
}

func TestPromptsHandleDegradedPriorPhase(t *testing.T) {
	provider := &cannedProvider{response: `{"lines":[{"page":1,"panel":1,"speaker":"Jin","text":"Last bowl."}]}`}
	execs := Executors(provider)
	pctx := testContext("premise")
	pctx.SetResult(PhaseCharacters, pipeline.PlaceholderResult(PhaseCharacters, "model offline"))
	pctx.CurrentPhase = PhaseDialogue

	if _, err := execs[PhaseDialogue].Execute(context.Background(), pctx); err != nil {
		t.Fatalf("Execute = %v", err)
	}
	if !strings.Contains(provider.prompts[0], "improvise conservatively") {
		t.Error("degraded phase placeholder note missing from prompt")
	}
}
