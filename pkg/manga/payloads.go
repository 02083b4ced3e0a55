package manga

// ConceptPayload is the output of the concept phase: the core premise of the
// work before any structural breakdown happens.
type ConceptPayload struct {
	Title    string   `json:"title"`
	Logline  string   `json:"logline"`
	Genre    string   `json:"genre"`
	Audience string   `json:"audience"`
	Themes   []string `json:"themes"`
}

func (ConceptPayload) Kind() string { return "concept" }

func (p ConceptPayload) quality() float64 {
	score := 0.0
	if p.Title != "" {
		score += 0.25
	}
	if len(p.Logline) >= 20 {
		score += 0.35
	}
	if p.Genre != "" {
		score += 0.2
	}
	if len(p.Themes) > 0 {
		score += 0.2
	}
	return score
}

type Location struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type WorldPayload struct {
	Setting   string     `json:"setting"`
	Era       string     `json:"era"`
	Locations []Location `json:"locations"`
	Rules     []string   `json:"rules"`
}

func (WorldPayload) Kind() string { return "world_setting" }

func (p WorldPayload) quality() float64 {
	score := 0.0
	if len(p.Setting) >= 20 {
		score += 0.4
	}
	if p.Era != "" {
		score += 0.2
	}
	if len(p.Locations) >= 2 {
		score += 0.4
	} else if len(p.Locations) == 1 {
		score += 0.2
	}
	return score
}

type Character struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Appearance  string `json:"appearance"`
	Personality string `json:"personality"`
	Motivation  string `json:"motivation"`
}

type CharactersPayload struct {
	Characters []Character `json:"characters"`
}

func (CharactersPayload) Kind() string { return "characters" }

func (p CharactersPayload) quality() float64 {
	if len(p.Characters) == 0 {
		return 0
	}
	complete := 0
	for _, c := range p.Characters {
		if c.Name != "" && c.Appearance != "" && c.Motivation != "" {
			complete++
		}
	}
	score := 0.4
	if len(p.Characters) >= 2 {
		score += 0.2
	}
	score += 0.4 * float64(complete) / float64(len(p.Characters))
	return score
}

type Panel struct {
	Number      int    `json:"number"`
	Shot        string `json:"shot"` // e.g. "wide", "close-up", "over-shoulder"
	Description string `json:"description"`
}

type Page struct {
	Number int     `json:"number"`
	Panels []Panel `json:"panels"`
}

type StoryboardPayload struct {
	Pages []Page `json:"pages"`
}

func (StoryboardPayload) Kind() string { return "storyboard" }

func (p StoryboardPayload) quality() float64 {
	if len(p.Pages) == 0 {
		return 0
	}
	panels := 0
	for _, pg := range p.Pages {
		panels += len(pg.Panels)
	}
	if panels == 0 {
		return 0.1
	}
	score := 0.5
	if len(p.Pages) >= 3 {
		score += 0.25
	}
	if panels >= len(p.Pages)*2 {
		score += 0.25
	}
	return score
}

type DialogueLine struct {
	Page    int    `json:"page"`
	Panel   int    `json:"panel"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type DialoguePayload struct {
	Lines []DialogueLine `json:"lines"`
}

func (DialoguePayload) Kind() string { return "dialogue" }

func (p DialoguePayload) quality() float64 {
	if len(p.Lines) == 0 {
		return 0
	}
	attributed := 0
	for _, l := range p.Lines {
		if l.Speaker != "" && l.Text != "" {
			attributed++
		}
	}
	return 0.4 + 0.6*float64(attributed)/float64(len(p.Lines))
}

type ArtDirectionPayload struct {
	Style       string   `json:"style"`
	LineWeight  string   `json:"line_weight"`
	ToneNotes   string   `json:"tone_notes"`
	Palette     []string `json:"palette"`
	PanelNotes  []string `json:"panel_notes"`
	CoverBrief  string   `json:"cover_brief"`
}

func (ArtDirectionPayload) Kind() string { return "art_direction" }

func (p ArtDirectionPayload) quality() float64 {
	score := 0.0
	if p.Style != "" {
		score += 0.4
	}
	if p.ToneNotes != "" {
		score += 0.3
	}
	if p.CoverBrief != "" {
		score += 0.15
	}
	if len(p.PanelNotes) > 0 {
		score += 0.15
	}
	return score
}

// AssemblyPayload is the final deliverable: the complete production script
// that downstream rendering consumes.
type AssemblyPayload struct {
	Title     string `json:"title"`
	PageCount int    `json:"page_count"`
	Synopsis  string `json:"synopsis"`
	Script    string `json:"script"`
}

func (AssemblyPayload) Kind() string { return "final_assembly" }

func (p AssemblyPayload) quality() float64 {
	score := 0.0
	if p.Title != "" {
		score += 0.2
	}
	if p.PageCount > 0 {
		score += 0.2
	}
	if len(p.Synopsis) >= 30 {
		score += 0.2
	}
	if len(p.Script) >= 200 {
		score += 0.4
	} else if len(p.Script) > 0 {
		score += 0.2
	}
	return score
}
