package prompts

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/santacall/internal/arcs"
)

// Input carries everything the system prompt is built from. Only Arc and
// Greeting are required; the child fields and Adaptation add optional sections.
type Input struct {
	Arc        arcs.ConversationArc
	Greeting   string
	ChildName  string
	ChildAge   int
	Adaptation *arcs.AgeAdaptation
}

// PromptBuilder renders conversation-steering prompts for the video provider.
// Output depends only on the Input.
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder instance
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSystemPrompt renders the greeting and the arc's phases.
func BuildSystemPrompt(arc arcs.ConversationArc, greeting string) string {
	return NewPromptBuilder().Build(Input{Arc: arc, Greeting: greeting})
}

// Build renders the full system prompt.
func (pb *PromptBuilder) Build(in Input) string {
	var prompt strings.Builder

	if in.ChildName != "" {
		pb.addChildContext(&prompt, in)
	}

	prompt.WriteString(GreetingHeading + "\n")
	prompt.WriteString(fmt.Sprintf("Start the conversation with: \"%s\"\n\n", in.Greeting))

	pb.addPhases(&prompt, in.Arc)

	if in.Adaptation != nil {
		pb.addAdaptation(&prompt, in.ChildAge, in.Adaptation)
	}
	if in.Arc.Timing != nil {
		pb.addTiming(&prompt, in.Arc.Timing)
	}

	name := in.ChildName
	if name == "" {
		name = "the child"
	}
	pb.addRules(&prompt, name)

	prompt.WriteString(fmt.Sprintf(ClosingReminder, name))
	prompt.WriteString("\n")
	return prompt.String()
}

func (pb *PromptBuilder) addChildContext(prompt *strings.Builder, in Input) {
	prompt.WriteString(ContextHeading + "\n\n")
	prompt.WriteString("Child Information:\n")
	prompt.WriteString(fmt.Sprintf("- Name: %s\n", in.ChildName))
	if in.ChildAge > 0 {
		prompt.WriteString(fmt.Sprintf("- Age: %d years old\n", in.ChildAge))
	}
	prompt.WriteString(fmt.Sprintf("- Call Duration: %s (%d seconds)\n", in.Arc.Key, in.Arc.TotalDurationSeconds))
	if in.Adaptation != nil && in.Adaptation.LanguageLevel != "" {
		prompt.WriteString(fmt.Sprintf("- Language Level: %s\n", in.Adaptation.LanguageLevel))
	}
	prompt.WriteString("\n")
}

func (pb *PromptBuilder) addPhases(prompt *strings.Builder, arc arcs.ConversationArc) {
	prompt.WriteString(StructureHeading + "\n")
	prompt.WriteString(fmt.Sprintf("You must follow the %s arc \"%s\" with %d phases:\n", arc.Key, arc.Name, len(arc.Phases)))

	for i, phase := range arc.Phases {
		prompt.WriteString(fmt.Sprintf("\nPhase %d: %s (%ds", i+1, HumanizeName(phase.Name), phase.DurationSeconds))
		if phase.Percentage > 0 {
			prompt.WriteString(" - " + strconv.FormatFloat(phase.Percentage, 'f', -1, 64) + "%")
		}
		prompt.WriteString(")\n")

		writeList(prompt, "Goals:", phase.Goals)
		writeList(prompt, "Guidelines:", phase.SantaGuidelines)
		if len(phase.SuggestedQuestions) > 0 {
			writeList(prompt, "Suggested Questions:", phase.SuggestedQuestions)
		}
	}
	prompt.WriteString("\n")
}

func (pb *PromptBuilder) addAdaptation(prompt *strings.Builder, age int, ad *arcs.AgeAdaptation) {
	if age > 0 {
		prompt.WriteString(fmt.Sprintf("%s (Age %d):\n", AdaptationsHeading, age))
	} else {
		prompt.WriteString(AdaptationsHeading + ":\n")
	}
	prompt.WriteString(fmt.Sprintf("- Response Length: %s\n", ad.ResponseLength))
	prompt.WriteString(fmt.Sprintf("- Sentence Complexity: %s\n", ad.SentenceComplexity))
	prompt.WriteString(fmt.Sprintf("- Energy Level: %s\n", ad.Energy))
	prompt.WriteString(fmt.Sprintf("- Attention Span: %s\n\n", ad.AttentionSpan))
}

func (pb *PromptBuilder) addTiming(prompt *strings.Builder, t *arcs.TimingGuidelines) {
	prompt.WriteString(TimingHeading + "\n")
	prompt.WriteString(fmt.Sprintf("- Average response: %s seconds\n", formatSeconds(t.AverageResponseLengthSeconds)))
	prompt.WriteString(fmt.Sprintf("- Max response: %s seconds\n", formatSeconds(t.MaxResponseLengthSeconds)))
	prompt.WriteString(fmt.Sprintf("- Pause between responses: %s seconds\n\n", formatSeconds(t.PauseBetweenResponsesSeconds)))
}

func (pb *PromptBuilder) addRules(prompt *strings.Builder, name string) {
	prompt.WriteString(RulesHeading + "\n")
	for i, rule := range ConversationRules {
		if strings.Contains(rule, "%s") {
			rule = fmt.Sprintf(rule, name)
		}
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, rule))
	}
	prompt.WriteString("\n")
	writeList(prompt, QualityHeading, QualityIndicators)
	prompt.WriteString("\n")
}

// HumanizeName turns a snake_case phase name into title case words.
func HumanizeName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

func writeList(prompt *strings.Builder, heading string, items []string) {
	prompt.WriteString(heading + "\n")
	for _, item := range items {
		prompt.WriteString("  - " + item + "\n")
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
