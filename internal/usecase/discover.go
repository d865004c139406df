package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"SocialListener/internal/aggregate"
	"SocialListener/internal/domain"
	"SocialListener/internal/source"
)

const defaultDiscoverLimit = 25

// Discover scores the opportunity of a topic from the videos that rank for it.
func (a *Analyzer) Discover(ctx context.Context, topic string, limit int) (domain.NicheReport, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.NicheReport{}, errors.New("no topic given")
	}
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}
	if a.directory == nil {
		return domain.NicheReport{}, errors.New("channel directory is not configured")
	}

	search, err := a.sources.Open(source.KindYouTubeSearch, source.Request{
		Target:  topic,
		Options: map[string]string{source.OptionPageSize: strconv.Itoa(limit)},
	})
	if err != nil {
		return domain.NicheReport{}, err
	}

	videos, err := a.pager.Collect(ctx, search, limit)
	if err != nil {
		return domain.NicheReport{}, fmt.Errorf("search %q: %w", topic, err)
	}
	if len(videos) > limit {
		videos = videos[:limit]
	}

	channels := make([]string, 0, len(videos))
	for _, v := range videos {
		channels = append(channels, v.ParentID)
	}
	subscribers, err := a.directory.SubscriberCounts(ctx, channels)
	if err != nil {
		return domain.NicheReport{}, fmt.Errorf("channel sizes: %w", err)
	}

	report := aggregate.Niche(topic, videos, subscribers, a.now())
	a.logger.Info("niche scored", "topic", topic, "videos", report.Videos, "demand", report.DemandScore, "competition", report.CompetitionScore, "opportunity", report.Opportunity)

	if report.Videos > 0 {
		assessment, err := aggregate.NicheAssessment(ctx, a.generator, report)
		if err != nil {
			a.logger.Warn("niche assessment failed", "topic", topic, "error", err)
		}
		report.Assessment = assessment
	}

	return report, nil
}
