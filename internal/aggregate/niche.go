package aggregate

import (
	"context"
	"fmt"
	"time"

	"SocialListener/internal/classifier"
	"SocialListener/internal/domain"
)

const (
	redOceanCompetition  = 70.0
	blueOceanCompetition = 40.0
	blueOceanStaleShare  = 0.5
)

var (
	freshnessLabels = []string{"< 1 month", "1-6 months", "6-12 months", "> 1 year"}
	authorityLabels = []string{"< 10k", "10k-100k", "100k-1M", "> 1M"}
	// authority bucket i contributes weights[i] to the competition score.
	authorityWeights = []float64{0, 1.0 / 3, 2.0 / 3, 1}
)

// Niche scores a search result set. Video engagement is its view count and ParentID its channel id;
// subscribers maps channel ids to subscriber counts (unknown channels count as small).
func Niche(topic string, videos []domain.RawItem, subscribers map[string]int64, now time.Time) domain.NicheReport {
	report := domain.NicheReport{
		Topic:       topic,
		Videos:      len(videos),
		Freshness:   buckets(freshnessLabels),
		Authority:   buckets(authorityLabels),
		GeneratedAt: now,
	}
	if len(videos) == 0 {
		return report
	}

	var (
		views  int64
		weight float64
		stale  int
	)
	for _, v := range videos {
		views += v.Engagement

		f := freshnessBucket(now.Sub(v.Timestamp))
		report.Freshness[f].Count++
		if f >= 2 {
			stale++
		}

		a := authorityBucket(subscribers[v.ParentID])
		report.Authority[a].Count++
		weight += authorityWeights[a]
	}

	n := float64(len(videos))
	report.DemandScore = roundTo(float64(views)/n, 0)
	report.CompetitionScore = roundTo(weight/n*100, 1)

	switch {
	case report.CompetitionScore >= redOceanCompetition:
		report.Opportunity = domain.OpportunityRedOcean
	case report.CompetitionScore < blueOceanCompetition && float64(stale)/n >= blueOceanStaleShare:
		report.Opportunity = domain.OpportunityBlueOcean
	default:
		report.Opportunity = domain.OpportunityWorthTrying
	}

	return report
}

// NicheAssessment asks the model to comment on the distributions of a niche report.
func NicheAssessment(ctx context.Context, gen Generator, report domain.NicheReport) (string, error) {
	lines := []string{fmt.Sprintf("Keyword: %s (%d videos)", report.Topic, report.Videos), "Video age distribution:"}
	for _, b := range report.Freshness {
		lines = append(lines, fmt.Sprintf("- %s: %d", b.Label, b.Count))
	}
	lines = append(lines, "Channel subscriber distribution:")
	for _, b := range report.Authority {
		lines = append(lines, fmt.Sprintf("- %s: %d", b.Label, b.Count))
	}

	text, err := gen.Generate(ctx, classifier.NicheAssessment, lines)
	if err != nil {
		return "", fmt.Errorf("niche assessment: %w", err)
	}
	return text, nil
}

func buckets(labels []string) []domain.Bucket {
	out := make([]domain.Bucket, len(labels))
	for i, l := range labels {
		out[i] = domain.Bucket{Label: l}
	}
	return out
}

func freshnessBucket(age time.Duration) int {
	days := age.Hours() / 24
	switch {
	case days <= 30:
		return 0
	case days <= 180:
		return 1
	case days <= 365:
		return 2
	default:
		return 3
	}
}

func authorityBucket(subs int64) int {
	switch {
	case subs < 10_000:
		return 0
	case subs < 100_000:
		return 1
	case subs < 1_000_000:
		return 2
	default:
		return 3
	}
}
