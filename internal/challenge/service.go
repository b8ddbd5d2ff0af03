// Package challenge manages plan selection and the evaluation account
// lifecycle.
package challenge

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tradeforge/propdesk/internal/apperrors"
	"github.com/tradeforge/propdesk/internal/models"
)

// KycChecker reports whether a user has completed KYC. The actual KYC
// flow lives elsewhere.
type KycChecker interface {
	KycComplete(ctx context.Context, userID int) (bool, error)
}

// repository is the slice of the database the service needs.
type repository interface {
	GetChallengePlan(id int) (*models.ChallengePlan, error)
	GetOpenChallengeByUser(userID int) (*models.Challenge, error)
	CreateChallenge(c *models.Challenge) error
	ResetChallengeToPlan(challengeID, planID int) (*models.Challenge, error)
}

// publisher emits challenge lifecycle events. May be nil when event
// publishing is disabled.
type publisher interface {
	PublishChallengeSelected(ctx context.Context, userID, planID int, c *models.Challenge) error
	PublishChallengeReset(ctx context.Context, userID, planID int, c *models.Challenge) error
}

// Service drives the challenge state machine. Note: activation
// (PENDING to ACTIVE) and pass/fail evaluation against the plan
// thresholds are triggered by an external policy, not by this service;
// it only produces the state those decisions consume.
type Service struct {
	repo     repository
	kyc      KycChecker
	producer publisher
	log      zerolog.Logger
}

// NewService creates a new challenge lifecycle service
func NewService(repo repository, kyc KycChecker, producer publisher, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		kyc:      kyc,
		producer: producer,
		log:      log.With().Str("component", "challenge").Logger(),
	}
}

// SelectResult reports what SelectPlan did.
type SelectResult struct {
	Challenge       *models.Challenge `json:"challenge"`
	AlreadySelected bool              `json:"already_selected"`
	Reset           bool              `json:"reset"`
	Message         string            `json:"message"`
}

// SelectPlan points the user's evaluation slot at a plan. With no open
// challenge it creates a PENDING one. With an open challenge on the
// same plan it is a no-op. With an open challenge on a different plan
// it resets that challenge in place, wiping all progress.
func (s *Service) SelectPlan(ctx context.Context, userID, planID int) (*SelectResult, error) {
	complete, err := s.kyc.KycComplete(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, apperrors.ErrKycIncomplete
	}

	plan, err := s.repo.GetChallengePlan(planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, apperrors.ErrPlanInactive
	}

	existing, err := s.repo.GetOpenChallengeByUser(userID)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		return s.createChallenge(ctx, userID, planID)
	}

	if existing.PlanID == planID {
		return &SelectResult{
			Challenge:       existing,
			AlreadySelected: true,
			Message:         "plan already selected",
		}, nil
	}

	reset, err := s.repo.ResetChallengeToPlan(existing.ID, planID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("user_id", userID).
		Int("challenge_id", reset.ID).
		Int("plan_id", planID).
		Msg("Challenge re-targeted to new plan, progress reset")

	if s.producer != nil {
		if err := s.producer.PublishChallengeReset(ctx, userID, planID, reset); err != nil {
			s.log.Error().Err(err).Msg("Failed to publish challenge reset event")
		}
	}

	return &SelectResult{
		Challenge: reset,
		Reset:     true,
		Message:   "challenge reset to new plan",
	}, nil
}

func (s *Service) createChallenge(ctx context.Context, userID, planID int) (*SelectResult, error) {
	c := &models.Challenge{
		UserID: userID,
		PlanID: planID,
		Status: models.ChallengeStatusPending,
	}
	if err := s.repo.CreateChallenge(c); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("user_id", userID).
		Int("challenge_id", c.ID).
		Int("plan_id", planID).
		Msg("Challenge created")

	if s.producer != nil {
		if err := s.producer.PublishChallengeSelected(ctx, userID, planID, c); err != nil {
			s.log.Error().Err(err).Msg("Failed to publish challenge selected event")
		}
	}

	return &SelectResult{
		Challenge: c,
		Message:   "challenge created",
	}, nil
}
