package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Overview(ctx context.Context) (*model.Overview, error)
}

type statsUC struct {
	repo repository.ConversationRepository
	log  *zerolog.Logger
}

func NewStatsUseCase(repo repository.ConversationRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{repo: repo, log: logger}
}

func (s *statsUC) Overview(ctx context.Context) (*model.Overview, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	o := &model.Overview{
		TotalConversations: len(all),
		RecentActivity:     []model.RecentActivity{},
	}

	scoreSum, msgSum := 0, 0
	for _, c := range all {
		if c.IsQualified {
			o.QualifiedLeads++
		}
		if c.AppointmentBooked {
			o.AppointmentsBooked++
		}
		if len(c.DealbreakersHit) > 0 {
			o.DealbreakersHit++
		}
		scoreSum += c.QualificationScore
		msgSum += len(c.Messages)
	}
	if len(all) > 0 {
		o.AverageQualificationScore = (scoreSum + len(all)/2) / len(all)
		o.AverageMessageCount = (msgSum + len(all)/2) / len(all)
	}

	recent := all
	if len(recent) > 5 {
		recent = recent[:5]
	}
	for _, c := range recent {
		o.RecentActivity = append(o.RecentActivity, model.RecentActivity{
			ID:             c.ID,
			LastActivityAt: c.LastActivityAt,
			VisitorName:    c.VisitorInfo.Name,
			IsQualified:    c.IsQualified,
		})
	}
	return o, nil
}
