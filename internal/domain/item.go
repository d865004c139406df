package domain

import (
	"strings"
	"time"
)

// RawItem is a source-specific content unit (post, video, comment) fetched from providers.
type RawItem struct {
	ID         string
	Title      string
	Text       string
	URL        string
	Source     string
	ParentID   string
	Timestamp  time.Time
	Engagement int64
}

// Order enumerates selection orderings.
type Order string

const (
	OrderNewest  Order = "newest"
	OrderOldest  Order = "oldest"
	OrderPopular Order = "popular"
)

// ParseOrder maps user input onto a known Order.
func ParseOrder(value string) (Order, bool) {
	switch Order(strings.ToLower(strings.TrimSpace(value))) {
	case OrderNewest:
		return OrderNewest, true
	case OrderOldest:
		return OrderOldest, true
	case OrderPopular:
		return OrderPopular, true
	default:
		return "", false
	}
}

// SelectionCriteria is the analysis budget for a single source.
type SelectionCriteria struct {
	Count int
	Order Order
	// Trend selects the oldest Count and the newest Count items.
	Trend bool
}

// Category is a classification label from a closed, task-specific enum.
type Category string

// Unclassified is assigned when the model answers outside the task enum.
const Unclassified Category = "Unclassified"

const (
	CategoryProblem    Category = "Problem"
	CategoryNonProblem Category = "Non-Problem"

	CategoryPositiveFeedback  Category = "Positive Feedback"
	CategoryNegativeSentiment Category = "Negative Sentiment"
	CategoryQuestion          Category = "Question"
	CategorySuggestion        Category = "Suggestion"

	CategoryTutorial      Category = "Tutorial"
	CategoryReview        Category = "Review"
	CategoryNews          Category = "News"
	CategoryOpinion       Category = "Opinion"
	CategoryEntertainment Category = "Entertainment"
)

// ClassificationRecord is the immutable outcome of classifying one RawItem.
type ClassificationRecord struct {
	ItemID        string
	Category      Category
	Summary       string
	RawEngagement int64
}
