// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures one reported value of an analysis.
type Summary struct {
	Section string   `json:"section" yaml:"-"`
	Subject string   `json:"subject" yaml:"subject"`
	Metric  string   `json:"metric" yaml:"metric"`
	Value   float64  `json:"value" yaml:"value"`
	Notes   []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Section is an ordered group of summaries.
type Section struct {
	Name      string    `json:"name" yaml:"name"`
	Summaries []Summary `json:"values" yaml:"values"`
}

// Group collects summaries by section, keeping sections in first-seen
// order and rows in input order.
func Group(summaries []Summary) []Section {
	var sections []Section
	index := make(map[string]int)
	for _, s := range summaries {
		i, ok := index[s.Section]
		if !ok {
			i = len(sections)
			index[s.Section] = i
			sections = append(sections, Section{Name: s.Section})
		}
		sections[i].Summaries = append(sections[i].Summaries, s)
	}
	return sections
}
