package manga

import "testing"

func TestConceptQuality(t *testing.T) {
	full := ConceptPayload{
		Title:    "Drift",
		Logline:  "A retired pilot opens a noodle stand on a derelict station.",
		Genre:    "slice of life",
		Audience: "seinen",
		Themes:   []string{"belonging"},
	}
	if q := full.quality(); q != 1.0 {
		t.Errorf("complete concept quality = %v, want 1.0", q)
	}

	empty := ConceptPayload{}
	if q := empty.quality(); q != 0 {
		t.Errorf("empty concept quality = %v, want 0", q)
	}

	thin := ConceptPayload{Title: "Drift", Logline: "short"}
	if q := thin.quality(); q >= 0.5 {
		t.Errorf("thin concept quality = %v, want below threshold", q)
	}
}

func TestCharactersQuality(t *testing.T) {
	if q := (CharactersPayload{}).quality(); q != 0 {
		t.Errorf("no characters quality = %v, want 0", q)
	}

	cast := CharactersPayload{Characters: []Character{
		{Name: "Jin", Appearance: "weathered flight jacket", Motivation: "quiet life"},
		{Name: "Mika", Appearance: "grease-stained overalls", Motivation: "fix the station"},
	}}
	if q := cast.quality(); q != 1.0 {
		t.Errorf("complete cast quality = %v, want 1.0", q)
	}

	partial := CharactersPayload{Characters: []Character{{Name: "Jin"}}}
	if q := partial.quality(); q >= 0.5 {
		t.Errorf("incomplete single character quality = %v, want below threshold", q)
	}
}

func TestStoryboardQuality(t *testing.T) {
	if q := (StoryboardPayload{}).quality(); q != 0 {
		t.Errorf("empty storyboard quality = %v, want 0", q)
	}

	pagesNoPanels := StoryboardPayload{Pages: []Page{{Number: 1}, {Number: 2}}}
	if q := pagesNoPanels.quality(); q != 0.1 {
		t.Errorf("panel-less storyboard quality = %v, want 0.1", q)
	}

	dense := StoryboardPayload{Pages: []Page{
		{Number: 1, Panels: []Panel{{Number: 1}, {Number: 2}, {Number: 3}}},
		{Number: 2, Panels: []Panel{{Number: 1}, {Number: 2}}},
		{Number: 3, Panels: []Panel{{Number: 1}, {Number: 2}}},
	}}
	if q := dense.quality(); q != 1.0 {
		t.Errorf("dense storyboard quality = %v, want 1.0", q)
	}
}

func TestDialogueQuality(t *testing.T) {
	if q := (DialoguePayload{}).quality(); q != 0 {
		t.Errorf("empty dialogue quality = %v, want 0", q)
	}

	mixed := DialoguePayload{Lines: []DialogueLine{
		{Page: 1, Panel: 1, Speaker: "Jin", Text: "Last bowl of the night."},
		{Page: 1, Panel: 2}, // unattributed
	}}
	if q := mixed.quality(); q != 0.7 {
		t.Errorf("half-attributed dialogue quality = %v, want 0.7", q)
	}
}

func TestPhaseNames(t *testing.T) {
	want := map[int]string{
		PhaseConcept:      "concept",
		PhaseWorld:        "world_setting",
		PhaseCharacters:   "characters",
		PhaseStoryboard:   "storyboard",
		PhaseDialogue:     "dialogue",
		PhaseArtDirection: "art_direction",
		PhaseAssembly:     "final_assembly",
	}
	for phase, name := range want {
		if got := PhaseName(phase); got != name {
			t.Errorf("PhaseName(%d) = %q, want %q", phase, got, name)
		}
	}
	if got := PhaseName(99); got != "unknown" {
		t.Errorf("PhaseName(99) = %q, want unknown", got)
	}
}
