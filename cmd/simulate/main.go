package main

import (
	"context"
	"fmt"
	"time"

	"ai-mangagen-be/internal/pkg/logger"
	"ai-mangagen-be/pkg/manga"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Offline pipeline walkthrough: stub executors, in-memory store, no database
// and no LLM. Shows the full event stream for a run that hits a HITL gate,
// degrades one non-critical phase, and still completes.

type memStore struct{}

func (memStore) SaveSession(ctx context.Context, session *pipeline.Session, records []pipeline.PhaseRecord) error {
	return nil
}

type stubPayload struct {
	Phase int    `json:"phase"`
	Note  string `json:"note"`
}

func (stubPayload) Kind() string { return "stub" }

type stubExecutor struct {
	phase    int
	failures int // executions that error before the first success
	calls    int
}

func (e *stubExecutor) Name() string { return manga.PhaseName(e.phase) }

func (e *stubExecutor) Execute(ctx context.Context, pctx *pipeline.Context) (pipeline.Result, error) {
	e.calls++
	pctx.ReportProgress("drafting " + e.Name())
	time.Sleep(50 * time.Millisecond)

	if e.calls <= e.failures {
		return pipeline.Result{}, fmt.Errorf("synthetic model error (call %d)", e.calls)
	}

	note := "draft"
	if pctx.Feedback != "" {
		note = "revised per feedback: " + pctx.Feedback
	}
	return pipeline.Result{
		Phase:   e.phase,
		Payload: stubPayload{Phase: e.phase, Note: note},
		Quality: 0.9,
	}, nil
}

func main() {
	header := color.New(color.FgCyan, color.Bold)
	phaseClr := color.New(color.FgGreen)
	waitClr := color.New(color.FgYellow)
	errClr := color.New(color.FgRed)

	header.Println("=== Manga Pipeline Simulation ===")

	executors := make(map[int]pipeline.Executor, manga.PhaseCount)
	for p := 1; p <= manga.PhaseCount; p++ {
		executors[p] = &stubExecutor{phase: p}
	}
	// Phase 3 (characters) is non-critical: exhaust its retries to show the
	// degradation path.
	executors[manga.PhaseCharacters] = &stubExecutor{phase: manga.PhaseCharacters, failures: 99}

	cfg := pipeline.Config{
		PhaseCount:      manga.PhaseCount,
		HITLPhases:      pipeline.PhaseSet([]int{4}),
		CriticalPhases:  pipeline.PhaseSet([]int{5, 6, 7}),
		FeedbackTimeout: 2 * time.Second,
		MaxAttempts:     3,
	}

	broker := pipeline.NewBroker()
	session := pipeline.NewSession(uuid.New(), "simulate@example.com", "A retired mecha pilot opens a noodle stand on a derelict space station.")
	orch := pipeline.NewOrchestrator(session, executors, cfg, memStore{}, broker, logger.NewNopLogger())

	broker.Subscribe(pipeline.SubscriberFunc(func(e pipeline.Event) {
		switch e.Kind {
		case pipeline.EventPhaseError, pipeline.EventSessionFailed:
			errClr.Printf("  [%s] phase=%d %v\n", e.Kind, e.Phase, e.Payload)
		case pipeline.EventFeedbackWait, pipeline.EventFeedbackTimeout:
			waitClr.Printf("  [%s] phase=%d\n", e.Kind, e.Phase)
		default:
			phaseClr.Printf("  [%s] phase=%d %v\n", e.Kind, e.Phase, e.Payload)
		}

		// Play the editor: approve the storyboard with a note.
		if e.Kind == pipeline.EventFeedbackWait {
			go func(phase int) {
				time.Sleep(200 * time.Millisecond)
				if err := orch.SubmitFeedback(phase, "tighter pacing on page one"); err != nil {
					errClr.Printf("  feedback rejected: %v\n", err)
				}
			}(e.Phase)
		}
	}))

	if err := orch.Run(context.Background(), nil); err != nil {
		errClr.Printf("run finished with error: %v\n", err)
	}

	snap := orch.Snapshot()
	header.Printf("\nfinal status: %s, degraded phases: %v\n", snap.Status, snap.DegradedPhases)
	for _, p := range snap.Phases {
		fmt.Printf("  phase %d (%s): %s attempts=%d\n", p.Number, manga.PhaseName(p.Number), p.Status, p.Attempt)
	}
}
