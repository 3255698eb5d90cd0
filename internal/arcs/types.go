package arcs

// Phase is one step of a conversation arc. Phases are ordered within their arc.
type Phase struct {
	Name               string   `yaml:"name" json:"name"`
	DurationSeconds    int      `yaml:"duration_seconds" json:"duration_seconds"`
	Percentage         float64  `yaml:"percentage" json:"percentage,omitempty"`
	Goals              []string `yaml:"goals" json:"goals"`
	SantaGuidelines    []string `yaml:"santa_guidelines" json:"santa_guidelines"`
	SuggestedQuestions []string `yaml:"suggested_questions" json:"suggested_questions,omitempty"`
}

// ConversationArc is the scripted shape of a call for one duration key.
type ConversationArc struct {
	Key                  string         `yaml:"-" json:"key"`
	Name                 string         `yaml:"name" json:"name"`
	TotalDurationSeconds int            `yaml:"total_duration_seconds" json:"total_duration_seconds"`
	Phases               []Phase        `yaml:"phases" json:"phases"`
	QualityMetrics       map[string]any `yaml:"quality_metrics" json:"quality_metrics,omitempty"`

	// Timing is attached from the catalogue's timing_guidelines section.
	Timing *TimingGuidelines `yaml:"-" json:"-"`
}

// PhaseCount returns the number of phases in the arc.
func (a ConversationArc) PhaseCount() int {
	return len(a.Phases)
}

// TimingGuidelines bounds Santa's response pacing for a duration.
type TimingGuidelines struct {
	AverageResponseLengthSeconds float64 `yaml:"average_response_length_seconds" json:"average_response_length_seconds"`
	MaxResponseLengthSeconds     float64 `yaml:"max_response_length_seconds" json:"max_response_length_seconds"`
	PauseBetweenResponsesSeconds float64 `yaml:"pause_between_responses_seconds" json:"pause_between_responses_seconds"`
}

// AgeAdaptation describes how Santa should speak to an age group.
type AgeAdaptation struct {
	LanguageLevel      string `yaml:"language_level" json:"language_level"`
	ResponseLength     string `yaml:"response_length" json:"response_length"`
	SentenceComplexity string `yaml:"sentence_complexity" json:"sentence_complexity"`
	Energy             string `yaml:"energy" json:"energy"`
	AttentionSpan      string `yaml:"attention_span" json:"attention_span"`
}

// AgeBucket is an inclusive age range with its greeting templates.
type AgeBucket struct {
	Key        string         `json:"key"`
	MinAge     int            `json:"min_age"`
	MaxAge     int            `json:"max_age"`
	Templates  []string       `json:"templates"`
	Adaptation *AgeAdaptation `json:"adaptation,omitempty"`
}

// Contains reports whether age falls inside the bucket's inclusive range.
func (b AgeBucket) Contains(age int) bool {
	return age >= b.MinAge && age <= b.MaxAge
}

func (a ConversationArc) clone() ConversationArc {
	out := a
	out.Phases = make([]Phase, len(a.Phases))
	for i, p := range a.Phases {
		p.Goals = append([]string(nil), p.Goals...)
		p.SantaGuidelines = append([]string(nil), p.SantaGuidelines...)
		p.SuggestedQuestions = append([]string(nil), p.SuggestedQuestions...)
		out.Phases[i] = p
	}
	if a.QualityMetrics != nil {
		out.QualityMetrics = make(map[string]any, len(a.QualityMetrics))
		for k, v := range a.QualityMetrics {
			out.QualityMetrics[k] = v
		}
	}
	if a.Timing != nil {
		t := *a.Timing
		out.Timing = &t
	}
	return out
}

func (b AgeBucket) clone() AgeBucket {
	out := b
	out.Templates = append([]string(nil), b.Templates...)
	if b.Adaptation != nil {
		ad := *b.Adaptation
		out.Adaptation = &ad
	}
	return out
}
