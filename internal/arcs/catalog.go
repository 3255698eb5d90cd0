package arcs

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamePlaceholder is replaced with the child's name in greeting templates.
const NamePlaceholder = "{child_name}"

var bucketKeyPattern = regexp.MustCompile(`^ages_(\d+)_(\d+)$`)

// Catalog is the validated content of the arc configuration file.
type Catalog struct {
	Arcs    map[string]ConversationArc
	Buckets []AgeBucket // sorted by MinAge
}

type bucketRange struct {
	MinAge int `yaml:"min_age"`
	MaxAge int `yaml:"max_age"`
}

type catalogFile struct {
	Arcs              map[string]ConversationArc  `yaml:"arcs"`
	AgeBuckets        map[string]bucketRange      `yaml:"age_buckets"`
	GreetingTemplates map[string][]string         `yaml:"greeting_templates"`
	AgeAdaptations    map[string]AgeAdaptation    `yaml:"age_adaptations"`
	TimingGuidelines  map[string]TimingGuidelines `yaml:"timing_guidelines"`
}

// Load reads and validates the arc catalogue at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Problems: []string{"cannot read file"}, Err: err}
	}
	cat, err := Parse(data)
	if err != nil {
		if cerr, ok := err.(*ConfigError); ok {
			cerr.Path = path
			return nil, cerr
		}
		return nil, err
	}
	return cat, nil
}

// Parse decodes and validates a catalogue document. Unknown top-level keys are
// rejected so typos do not silently drop a section.
func Parse(data []byte) (*Catalog, error) {
	var raw catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &ConfigError{Problems: []string{"malformed yaml"}, Err: err}
	}

	var problems []string
	cat := &Catalog{Arcs: make(map[string]ConversationArc, len(raw.Arcs))}

	if len(raw.Arcs) == 0 {
		problems = append(problems, "no arcs defined")
	}
	for key, arc := range raw.Arcs {
		arc.Key = key
		problems = append(problems, validateArc(key, arc)...)
		if t, ok := raw.TimingGuidelines[key]; ok {
			t := t
			arc.Timing = &t
		}
		cat.Arcs[key] = arc
	}

	buckets, bucketProblems := buildBuckets(raw)
	problems = append(problems, bucketProblems...)
	cat.Buckets = buckets

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &ConfigError{Problems: problems}
	}
	return cat, nil
}

func validateArc(key string, arc ConversationArc) []string {
	var problems []string
	if strings.TrimSpace(key) == "" {
		problems = append(problems, "arc with empty duration key")
	}
	if strings.TrimSpace(arc.Name) == "" {
		problems = append(problems, fmt.Sprintf("arc %q: missing name", key))
	}
	if arc.TotalDurationSeconds <= 0 {
		problems = append(problems, fmt.Sprintf("arc %q: total_duration_seconds must be positive", key))
	}
	if len(arc.Phases) == 0 {
		problems = append(problems, fmt.Sprintf("arc %q: no phases", key))
	}
	for i, p := range arc.Phases {
		if strings.TrimSpace(p.Name) == "" {
			problems = append(problems, fmt.Sprintf("arc %q phase %d: missing name", key, i+1))
		}
		if p.DurationSeconds <= 0 {
			problems = append(problems, fmt.Sprintf("arc %q phase %d: duration_seconds must be positive", key, i+1))
		}
	}
	return problems
}

func buildBuckets(raw catalogFile) ([]AgeBucket, []string) {
	var problems []string
	if len(raw.GreetingTemplates) == 0 {
		return nil, []string{"no greeting templates defined"}
	}

	buckets := make([]AgeBucket, 0, len(raw.GreetingTemplates))
	for key, templates := range raw.GreetingTemplates {
		b := AgeBucket{Key: key, Templates: templates}

		if r, ok := raw.AgeBuckets[key]; ok {
			b.MinAge, b.MaxAge = r.MinAge, r.MaxAge
		} else if m := bucketKeyPattern.FindStringSubmatch(key); m != nil {
			b.MinAge, _ = strconv.Atoi(m[1])
			b.MaxAge, _ = strconv.Atoi(m[2])
		} else {
			problems = append(problems, fmt.Sprintf("bucket %q: no age range (add it under age_buckets or name it ages_<min>_<max>)", key))
			continue
		}

		if b.MinAge <= 0 || b.MaxAge < b.MinAge {
			problems = append(problems, fmt.Sprintf("bucket %q: invalid range %d-%d", key, b.MinAge, b.MaxAge))
		}
		if len(templates) == 0 {
			problems = append(problems, fmt.Sprintf("bucket %q: no greeting templates", key))
		}
		for i, tpl := range templates {
			if !strings.Contains(tpl, NamePlaceholder) {
				problems = append(problems, fmt.Sprintf("bucket %q template %d: missing %s placeholder", key, i+1, NamePlaceholder))
			}
		}
		if ad, ok := raw.AgeAdaptations[key]; ok {
			ad := ad
			b.Adaptation = &ad
		}
		buckets = append(buckets, b)
	}

	for key := range raw.AgeBuckets {
		if _, ok := raw.GreetingTemplates[key]; !ok {
			problems = append(problems, fmt.Sprintf("bucket %q: range defined without greeting templates", key))
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].MinAge == buckets[j].MinAge {
			return buckets[i].Key < buckets[j].Key
		}
		return buckets[i].MinAge < buckets[j].MinAge
	})
	for i := 1; i < len(buckets); i++ {
		prev, cur := buckets[i-1], buckets[i]
		if cur.MinAge <= prev.MaxAge {
			problems = append(problems, fmt.Sprintf("buckets %q and %q overlap", prev.Key, cur.Key))
		}
	}
	return buckets, problems
}
