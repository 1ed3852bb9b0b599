// README: Match lifecycle service: proposal, acceptance, delivery, settlement.
package smartmatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tulong/internal/logger"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/matching"
	"tulong/internal/modules/request"
	"tulong/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("match not found")
	ErrConflict     = errors.New("match state conflict")
	ErrActiveMatch  = errors.New("request has active match")
	ErrBadRequest   = errors.New("bad request")
)

// DonationMarker and RequestMarker flip the matched resources' statuses as
// the match moves through its lifecycle.
type DonationMarker interface {
	UpdateStatus(ctx context.Context, id types.ID, status donation.Status) error
}

type RequestMarker interface {
	UpdateStatus(ctx context.Context, id types.ID, status request.Status) error
}

type Service struct {
	store     *Store
	donations DonationMarker
	requests  RequestMarker

	// Proposals scoring at or above this are accepted without manual review.
	autoAcceptThreshold float64
}

func NewService(store *Store, donations DonationMarker, requests RequestMarker, autoAcceptThreshold float64) *Service {
	return &Service{
		store:               store,
		donations:           donations,
		requests:            requests,
		autoAcceptThreshold: autoAcceptThreshold,
	}
}

type AcceptCommand struct {
	MatchID   types.ID
	ActorType string
	ActorID   *types.ID
}

type StartDeliveryCommand struct {
	MatchID     types.ID
	VolunteerID types.ID
}

type CompleteCommand struct {
	MatchID   types.ID
	ActorType string
	ActorID   *types.ID
}

type CancelCommand struct {
	MatchID   types.ID
	ActorType string
	ActorID   *types.ID
	Reason    string
}

// Propose persists a scored match as a proposal. A request carries at most
// one live match at a time. Proposals at or above the auto-accept threshold
// are accepted immediately.
func (s *Service) Propose(ctx context.Context, candidate matching.ThreeWayMatch) (*Match, error) {
	if candidate.Request.ID == "" || candidate.Donation.ID == "" {
		return nil, ErrBadRequest
	}
	active, err := s.store.HasActiveByRequest(ctx, candidate.Request.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveMatch
	}

	now := time.Now()
	m := &Match{
		ID:                       types.ID(uuid.NewString()),
		RequestID:                candidate.Request.ID,
		DonationID:               candidate.Donation.ID,
		MatchType:                candidate.MatchType,
		CombinedScore:            candidate.CombinedScore,
		DonorScore:               candidate.DonorScore,
		VolunteerScore:           candidate.VolunteerScore,
		MatchReason:              candidate.MatchReason,
		EstimatedDeliveryMinutes: candidate.EstimatedDeliveryMinutes,
		Status:                   StatusProposed,
		StatusVersion:            0,
		CreatedAt:                now,
	}
	if candidate.Volunteer != nil {
		id := candidate.Volunteer.ID
		m.VolunteerID = &id
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		MatchID:    m.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusProposed,
		ActorType:  "system",
		CreatedAt:  now,
	})

	if s.autoAcceptThreshold > 0 && m.CombinedScore >= s.autoAcceptThreshold {
		if err := s.Accept(ctx, AcceptCommand{MatchID: m.ID, ActorType: "system"}); err != nil {
			logger.Warn().Err(err).Str("match_id", string(m.ID)).Msg("auto-accept failed, match stays proposed")
			return m, nil
		}
		return s.store.Get(ctx, m.ID)
	}
	return m, nil
}

// Accept confirms a proposal and claims the underlying resources.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	m, err := s.store.Get(ctx, cmd.MatchID)
	if err != nil {
		return err
	}
	if !CanTransition(m.Status, StatusAccepted) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, m.ID, m.Status, StatusAccepted, m.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if err := s.donations.UpdateStatus(ctx, m.DonationID, donation.StatusMatched); err != nil {
		logger.Warn().Err(err).Str("donation_id", string(m.DonationID)).Msg("mark donation matched")
	}
	if err := s.requests.UpdateStatus(ctx, m.RequestID, request.StatusClaimed); err != nil {
		logger.Warn().Err(err).Str("request_id", string(m.RequestID)).Msg("mark request claimed")
	}
	_ = s.store.AppendEvent(ctx, &Event{
		MatchID:    m.ID,
		FromStatus: m.Status,
		ToStatus:   StatusAccepted,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
	return nil
}

// StartDelivery records the volunteer picking up the donation. Only
// three-way matches route through delivery.
func (s *Service) StartDelivery(ctx context.Context, cmd StartDeliveryCommand) error {
	if cmd.VolunteerID == "" {
		return ErrBadRequest
	}
	m, err := s.store.Get(ctx, cmd.MatchID)
	if err != nil {
		return err
	}
	if m.MatchType != matching.MatchThreeWay {
		return ErrInvalidState
	}
	if !CanTransition(m.Status, StatusInDelivery) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, m.ID, m.Status, StatusInDelivery, m.StatusVersion, &cmd.VolunteerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		MatchID:    m.ID,
		FromStatus: m.Status,
		ToStatus:   StatusInDelivery,
		ActorType:  "volunteer",
		ActorID:    &cmd.VolunteerID,
		CreatedAt:  time.Now(),
	})
	return nil
}

// Complete settles the match and the underlying resources.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	m, err := s.store.Get(ctx, cmd.MatchID)
	if err != nil {
		return err
	}
	if !CanTransition(m.Status, StatusCompleted) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, m.ID, m.Status, StatusCompleted, m.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if err := s.donations.UpdateStatus(ctx, m.DonationID, donation.StatusCompleted); err != nil {
		logger.Warn().Err(err).Str("donation_id", string(m.DonationID)).Msg("mark donation completed")
	}
	if err := s.requests.UpdateStatus(ctx, m.RequestID, request.StatusFulfilled); err != nil {
		logger.Warn().Err(err).Str("request_id", string(m.RequestID)).Msg("mark request fulfilled")
	}
	_ = s.store.AppendEvent(ctx, &Event{
		MatchID:    m.ID,
		FromStatus: m.Status,
		ToStatus:   StatusCompleted,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
	return nil
}

// Cancel aborts a live match and releases the resources back to the pool.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	m, err := s.store.Get(ctx, cmd.MatchID)
	if err != nil {
		return err
	}
	if !CanTransition(m.Status, StatusCancelled) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, m.ID, m.Status, StatusCancelled, m.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if cmd.Reason != "" {
		_ = s.store.SetCancelReason(ctx, m.ID, cmd.Reason)
	}
	// Resources were only claimed once the match was accepted.
	if m.Status != StatusProposed {
		if err := s.donations.UpdateStatus(ctx, m.DonationID, donation.StatusAvailable); err != nil {
			logger.Warn().Err(err).Str("donation_id", string(m.DonationID)).Msg("release donation")
		}
		if err := s.requests.UpdateStatus(ctx, m.RequestID, request.StatusOpen); err != nil {
			logger.Warn().Err(err).Str("request_id", string(m.RequestID)).Msg("release request")
		}
	}
	_ = s.store.AppendEvent(ctx, &Event{
		MatchID:    m.ID,
		FromStatus: m.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Match, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByRequest(ctx context.Context, requestID types.ID) ([]Match, error) {
	return s.store.ListByRequest(ctx, requestID)
}

func (s *Service) ListProposed(ctx context.Context, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListByStatus(ctx, StatusProposed, limit)
}
