package categorize

// DefaultDictionaries returns the built-in keyword dictionaries.
func DefaultDictionaries() []Dictionary {
	return []Dictionary{
		{
			Label:     LabelComputerScience,
			Threshold: CSThreshold,
			Terms: map[string]float64{
				"machine learning":            8,
				"deep learning":               8,
				"artificial intelligence":     8,
				"neural network":              6,
				"natural language processing": 7,
				"computer vision":             6,
				"computer science":            6,
				"reinforcement learning":      7,
				"large language model":        7,
				"algorithm":                   5,
				"data science":                5,
				"quantum computing":           6,
				"cryptography":                5,
				"cybersecurity":               5,
				"distributed systems":         5,
				"operating system":            5,
				"compiler":                    5,
				"programming language":        5,
				"software engineering":        5,
				"human-computer interaction":  5,
				"robotics":                    4,
				"database":                    4,
				"programming":                 4,
				"computation":                 3,
				"computing":                   3,
				"software":                    3,
				"AI":                          4,
			},
			SoftExclusions: []string{"computer virus"},
			Boosts: []string{
				`\bcomputer\s+(?:\w+\s+)?(?:science|engineering|research)\b`,
			},
		},
		{
			Label:     LabelBiology,
			Threshold: BioThreshold,
			Terms: map[string]float64{
				"biology":         6,
				"bioinformatics":  7,
				"genomics":        7,
				"genome":          6,
				"crispr":          7,
				"gene expression": 6,
				"biochemistry":    6,
				"immunology":      6,
				"microbiology":    6,
				"stem cell":       6,
				"neuroscience":    5,
				"protein":         5,
				"dna":             5,
				"rna":             5,
				"molecular":       4,
				"cellular":        4,
				"evolution":       4,
				"ecology":         4,
				"virus":           4,
				"cancer":          4,
				"cell":            3,
			},
			SoftExclusions: []string{"computer virus"},
			HardExclusions: []string{"malware", "ransomware"},
			Boosts: []string{
				`\b(?:molecular|cell|cellular|structural|computational|systems)\s+biology\b`,
			},
		},
	}
}
