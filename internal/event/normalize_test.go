package event

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"drops stopwords and short tokens", "AI Seminar: Deep Learning", "deep learning"},
		{"sorts tokens", "Protein Folding Dynamics", "dynamics folding protein"},
		{"hyphen and underscore split", "Single-Cell RNA_seq", "cell rna seq single"},
		{"punctuation stripped", "What's New in Genomics?!", "genomics new whats"},
		{"empty", "", ""},
		{"only stopwords", "The Seminar Series", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.title); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalize_OrderInvariant(t *testing.T) {
	a := Normalize("AI Seminar: Deep Learning")
	b := Normalize("Deep Learning AI Seminar")
	if a != b {
		t.Errorf("Normalize not order invariant: %q vs %q", a, b)
	}

	c := Normalize("DEEP learning workshop")
	if a != c {
		t.Errorf("Normalize not case/stopword invariant: %q vs %q", a, c)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	titles := []string{
		"AI Seminar: Deep Learning",
		"Quantum Computing & Cryptography -- Spring Series",
		"Evolution of the Microbiome (Part 2)",
	}
	for _, title := range titles {
		once := Normalize(title)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", title, twice, once)
		}
	}
}

func TestTitleKey(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Deep Learning AI Seminar", "deep learning"},
		{"Seminar by Dr. Xi Li", "seminar by dr. xi li"},
		{"  Seminar  by Dr. Bo Wu ", "seminar by dr. bo wu"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleKey(tt.title); got != tt.want {
			t.Errorf("TitleKey(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}

	if TitleKey("Seminar by Dr. Xi Li") == TitleKey("Seminar by Dr. Bo Wu") {
		t.Error("distinct stopword-only titles share a key")
	}
}

func TestIsGenericTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Calendar of Events", true},
		{"Event", true},
		{"TBA", true},
		{"Upcoming Events", true},
		{"Seminars", true},
		{"", true},
		{"Dr. Jane Lee", false},
		{"Deep Learning for Genomics", false},
		{"Events in Computational Biology", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := IsGenericTitle(tt.title); got != tt.want {
				t.Errorf("IsGenericTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestIsGenericDescription(t *testing.T) {
	if !IsGenericDescription("Short blurb.") {
		t.Error("short description should be generic")
	}
	if !IsGenericDescription(DefaultDescription) {
		t.Error("default description should be generic")
	}
	if IsGenericDescription("A talk on scalable inference for single-cell transcriptomics data.") {
		t.Error("long description should not be generic")
	}
}

func TestIsPlaceholderTime(t *testing.T) {
	for _, v := range []string{"", TimeTBD, "TBA", "tbd"} {
		if !IsPlaceholderTime(v) {
			t.Errorf("IsPlaceholderTime(%q) = false, want true", v)
		}
	}
	if IsPlaceholderTime("4:00 PM") {
		t.Error("IsPlaceholderTime(\"4:00 PM\") = true, want false")
	}
}
