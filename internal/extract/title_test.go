package extract

import "testing"

func TestIsDateTimeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"October 2, 2025", true},
		{"Friday, October 10", true},
		{"Oct 10 | 4pm", true},
		{"4:00 PM - 5:00 PM", true},
		{"10/10", true},
		{"2025-10-10", true},
		{"Tuesday", true},
		{"TBA", true},
		{"Thursday 3:30 pm to 5 pm EST", true},
		{"Thursday 4pm", true},
		{"Wed. 10am", true},
		{"10am", true},
		{"Friday 11 a.m.", true},
		{"AI and Biology Seminar Series", false},
		{"Dr. Jane Lee", false},
		{"June Smith: Marine Ecology", false},
		{"Deep Learning for Protein Design", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := IsDateTimeTitle(tt.title); got != tt.want {
				t.Errorf("IsDateTimeTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestTitleExtractor_ExtractFromFragment(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		probes   []string
		want     string
	}{
		{
			name:     "origin probe before generic headings",
			fragment: `<div class="event"><h3>October 2, 2025</h3><em>Learning Protein Structure from Sequence</em><h4>Dr. Jane Lee</h4></div>`,
			probes:   []string{"em"},
			want:     "Learning Protein Structure from Sequence",
		},
		{
			name:     "date heading skipped",
			fragment: `<div class="event"><h3>October 2, 2025</h3><em>Learning Protein Structure from Sequence</em><h4>Dr. Jane Lee</h4></div>`,
			want:     "Dr. Jane Lee",
		},
		{
			name:     "semantic class wins over heading",
			fragment: `<article><h2>Upcoming</h2><span class="event-title">Quantum Error Correction</span></article>`,
			want:     "Quantum Error Correction",
		},
		{
			name:     "first sentence of description",
			fragment: `<div><span>Oct 2</span><p class="description">Join a discussion of graph neural networks. Lunch provided.</p></div>`,
			want:     "Join a discussion of graph neural networks",
		},
		{
			name:     "first meaningful line",
			fragment: `<div>Oct 2<br>Quantum Error Correction Basics</div>`,
			want:     "Quantum Error Correction Basics",
		},
		{
			name:     "only dates",
			fragment: `<div><h3>October 2, 2025</h3><span>4:00 PM</span></div>`,
			want:     "",
		},
	}

	te := NewTitleExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := te.ExtractFromFragment(tt.fragment, tt.probes...); got != tt.want {
				t.Errorf("ExtractFromFragment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextOf(t *testing.T) {
	got := TextOf(`<div><h3>Title</h3><p>Line   one</p><script>var x = 1;</script><p>Line two</p></div>`)
	want := "Title\nLine one\nLine two"
	if got != want {
		t.Errorf("TextOf() = %q, want %q", got, want)
	}

	if got := TextOf("  plain \n\n text  "); got != "plain\ntext" {
		t.Errorf("TextOf(plain) = %q", got)
	}
}
