package classify

// CategorySeed defines one topical category: its identity, the representative
// phrases its centroid is computed from, and the term list for the keyword
// fallback. The declaration order below is the tie-break order of the
// fallback scorer. An empty Slug is derived from Name at engine construction.
type CategorySeed struct {
	Name        string
	Slug        string
	Description string
	Examples    []string
	Terms       []string
}

// DefaultSeeds is the fixed category set. Centroids derived from these
// phrases do not depend on live articles, so they are deterministic given the
// same embedding model.
var DefaultSeeds = []CategorySeed{
	{
		Name:        "Biology",
		Description: "Life sciences, genetics, ecology and organisms",
		Examples: []string{
			"gene expression in living organisms",
			"cell biology and molecular mechanisms",
			"evolution and biodiversity of species",
			"protein folding and enzyme function",
			"ecosystems and population dynamics",
		},
		Terms: []string{
			"gene", "genome", "cell", "protein", "species", "organism",
			"evolution", "dna", "rna", "enzyme", "ecology", "bacteria",
		},
	},
	{
		Name:        "Medicine",
		Description: "Clinical research, public health and treatment",
		Examples: []string{
			"clinical trial of a new treatment",
			"patient outcomes and disease prevention",
			"epidemiology of infectious diseases",
			"drug efficacy and side effects",
			"diagnosis and therapy in hospital care",
		},
		Terms: []string{
			"patient", "clinical", "disease", "treatment", "therapy", "drug",
			"vaccine", "diagnosis", "cancer", "trial", "health", "symptom",
		},
	},
	{
		Name:        "Physics",
		Description: "Matter, energy, space and fundamental forces",
		Examples: []string{
			"quantum mechanics and particle interactions",
			"gravitational waves from black hole mergers",
			"superconductivity at low temperatures",
			"cosmology and the expansion of the universe",
			"high energy collisions in accelerators",
		},
		Terms: []string{
			"quantum", "particle", "energy", "gravity", "relativity", "photon",
			"electron", "cosmology", "galaxy", "magnetic", "plasma", "boson",
		},
	},
	{
		Name:        "Chemistry",
		Description: "Molecules, reactions and materials",
		Examples: []string{
			"catalytic reaction mechanisms and synthesis",
			"molecular structure of organic compounds",
			"electrochemistry and battery materials",
			"polymer chemistry and material properties",
			"spectroscopic analysis of chemical bonds",
		},
		Terms: []string{
			"molecule", "reaction", "catalyst", "compound", "synthesis",
			"polymer", "chemical", "bond", "acid", "solvent", "crystal", "ion",
		},
	},
	{
		Name:        "Computer Science",
		Description: "Algorithms, software systems and machine learning",
		Examples: []string{
			"machine learning models for prediction",
			"distributed systems and network protocols",
			"algorithmic complexity and optimization",
			"neural networks for natural language processing",
			"software verification and program analysis",
		},
		Terms: []string{
			"algorithm", "software", "neural", "network", "data", "model",
			"learning", "computation", "programming", "database", "compiler",
		},
	},
	{
		Name:        "Environmental Science",
		Description: "Climate, earth systems and sustainability",
		Examples: []string{
			"climate change and greenhouse gas emissions",
			"ocean acidification and marine habitats",
			"renewable energy and sustainability",
			"soil degradation and land use change",
			"atmospheric circulation and weather extremes",
		},
		Terms: []string{
			"climate", "emission", "carbon", "ocean", "atmosphere", "warming",
			"pollution", "renewable", "sustainability", "ecosystem", "soil",
		},
	},
}
