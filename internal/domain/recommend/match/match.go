package match

// Match is a single scored recommendation hit with its score breakdown.
// All scores are in [0,1]; FinalScore is the weighted blend.
type Match struct {
	productID      string
	finalScore     float64
	textSimilarity float64
	categoryScore  float64
	materialScore  float64
	colorScore     float64
}

// New creates a scored match.
func New(productID string, finalScore, textSimilarity, categoryScore, materialScore, colorScore float64) Match {
	return Match{
		productID:      productID,
		finalScore:     finalScore,
		textSimilarity: textSimilarity,
		categoryScore:  categoryScore,
		materialScore:  materialScore,
		colorScore:     colorScore,
	}
}

// ProductID returns the matched product identifier.
func (m *Match) ProductID() string { return m.productID }

// FinalScore returns the blended relevance score.
func (m *Match) FinalScore() float64 { return m.finalScore }

// TextSimilarity returns the semantic similarity sub-score.
func (m *Match) TextSimilarity() float64 { return m.textSimilarity }

// CategoryScore returns the category keyword sub-score.
func (m *Match) CategoryScore() float64 { return m.categoryScore }

// MaterialScore returns the material keyword sub-score.
func (m *Match) MaterialScore() float64 { return m.materialScore }

// ColorScore returns the color keyword sub-score.
func (m *Match) ColorScore() float64 { return m.colorScore }
