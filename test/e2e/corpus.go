package e2e

// Doc is one corpus document written into the documents directory.
type Doc struct {
	Name string
	Text string
}

// QueryCase is one retrieval test case: a query plus the source files that
// should appear among the answer's sources.
type QueryCase struct {
	Description     string
	Query           string
	ExpectedSources []string
}

// Corpus is a small multi-format document set with known-answer queries.
type Corpus struct {
	Docs      []Doc
	TestCases []QueryCase
}

// BuildCorpus returns a corpus where each document covers one distinct topic,
// so keyword retrieval has an unambiguous best source per query.
func BuildCorpus() Corpus {
	return Corpus{
		Docs: []Doc{
			{
				Name: "volcanoes.txt",
				Text: "Volcanoes erupt when magma rises through the crust. Pressure from dissolved gases drives explosive eruptions, while runny basaltic lava produces gentler flows.",
			},
			{
				Name: "beekeeping.md",
				Text: "Honey bees collect nectar and convert it into honey inside the hive. A beekeeper inspects frames for brood and harvests surplus honey in late summer.",
			},
			{
				Name: "submarines.docx",
				Text: "A submarine dives by flooding its ballast tanks and surfaces by blowing them with compressed air. Sonar lets the crew navigate and detect other vessels underwater.",
			},
			{
				Name: "budget.xlsx",
				Text: "Quarterly budget forecast: projected revenue grows eight percent while marketing spend stays flat.",
			},
		},
		TestCases: []QueryCase{
			{
				Description:     "volcano eruption question finds the volcano document",
				Query:           "why do volcanoes erupt",
				ExpectedSources: []string{"volcanoes.txt"},
			},
			{
				Description:     "honey question finds the beekeeping document",
				Query:           "how do bees make honey",
				ExpectedSources: []string{"beekeeping.md"},
			},
			{
				Description:     "sonar question finds the submarine document",
				Query:           "what does a submarine use sonar for",
				ExpectedSources: []string{"submarines.docx"},
			},
			{
				Description:     "revenue question finds the budget spreadsheet",
				Query:           "projected quarterly revenue forecast",
				ExpectedSources: []string{"budget.xlsx"},
			},
		},
	}
}
