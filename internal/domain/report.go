package domain

import "time"

// AggregateReport is derived from a run's records and recomputed from scratch every time.
type AggregateReport struct {
	Total             int
	CategoryCounts    map[Category]int
	TopItems          map[Category][]ClassificationRecord
	FrequentQuestions []QuestionTheme
	Trend             *TrendDelta
}

// QuestionTheme is one clustered question topic with the number of questions behind it.
type QuestionTheme struct {
	Theme string
	Count int
}

// TrendDelta compares the category distribution of the oldest and newest batches.
// Narrative comes from the model and is not reproducible between runs.
type TrendDelta struct {
	Oldest             map[Category]float64
	Newest             map[Category]float64
	Shift              map[Category]float64
	OverlappingSubsets bool
	Narrative          string
}

// PainPointReport summarizes a Reddit deep dive.
type PainPointReport struct {
	ProblemDensity float64
	// ConcentrationScore is 0..10, or -1 when the model did not report it.
	ConcentrationScore int
	Text               string
}

// Bucket is a labelled counter in a fixed distribution.
type Bucket struct {
	Label string
	Count int
}

// NicheReport describes the opportunity of a topic in discover mode.
type NicheReport struct {
	Topic            string
	Videos           int
	Freshness        []Bucket
	Authority        []Bucket
	DemandScore      float64
	CompetitionScore float64
	Opportunity      Opportunity
	Assessment       string
	GeneratedAt      time.Time
}

// Opportunity labels the demand/competition balance of a niche.
type Opportunity string

const (
	OpportunityBlueOcean   Opportunity = "Blue Ocean"
	OpportunityWorthTrying Opportunity = "Worth Trying"
	OpportunityRedOcean    Opportunity = "Red Ocean"
)

// RedditAnalysis is the hand-off of a Reddit run to renderers.
type RedditAnalysis struct {
	RunID      string
	Subreddits []string
	Posts      []RawItem
	Records    []ClassificationRecord
	Skipped    int
	Report     AggregateReport
	DeepDive   *PainPointReport
}

// YouTubeAnalysis is the hand-off of a YouTube channel run to renderers.
type YouTubeAnalysis struct {
	RunID          string
	ChannelID      string
	Videos         []RawItem
	ContentPillars string
	Comments       int
	Records        []ClassificationRecord
	Skipped        int
	Report         AggregateReport
}
