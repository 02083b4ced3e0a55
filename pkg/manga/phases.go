package manga

// Production phases, in pipeline order.
const (
	PhaseConcept      = 1
	PhaseWorld        = 2
	PhaseCharacters   = 3
	PhaseStoryboard   = 4
	PhaseDialogue     = 5
	PhaseArtDirection = 6
	PhaseAssembly     = 7

	PhaseCount = 7
)

var phaseNames = map[int]string{
	PhaseConcept:      "concept",
	PhaseWorld:        "world_setting",
	PhaseCharacters:   "characters",
	PhaseStoryboard:   "storyboard",
	PhaseDialogue:     "dialogue",
	PhaseArtDirection: "art_direction",
	PhaseAssembly:     "final_assembly",
}

func PhaseName(n int) string {
	if name, ok := phaseNames[n]; ok {
		return name
	}
	return "unknown"
}
