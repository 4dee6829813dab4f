package model

// MatchScores breaks the aggregate match score into its factors, each in
// [0, 1], for explainability and testing.
type MatchScores struct {
	Risk        float64
	Constraints float64
	History     float64
	Feature     float64
	Market      float64
	Timing      float64
}

// MatchResult pairs a candidate product with its compatibility score for one
// customer. Results are ephemeral; nothing persists them.
type MatchResult struct {
	Product *Product
	Score   float64
	Scores  MatchScores
}

// Capacity is the bounded investment-amount range derived for a customer.
type Capacity struct {
	MinAmount       float64
	MaxAmount       float64
	SuggestedAmount float64
}
