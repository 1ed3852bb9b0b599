// README: Matching service orchestrates candidate retrieval, two-phase scoring, and ranking.
package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"tulong/internal/config"
	"tulong/internal/logger"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/request"
	"tulong/internal/modules/volunteer"
	"tulong/internal/types"
)

const (
	// optimalDonorsPerRequest caps donor candidates carried into three-way
	// composition per request.
	optimalDonorsPerRequest = 3
	// optimalVolunteersPerTask caps volunteer candidates per delivery task.
	optimalVolunteersPerTask = 2

	// donorScoreShare / volunteerScoreShare split the combined score of a
	// three-way match.
	donorScoreShare     = 0.6
	volunteerScoreShare = 0.4

	// quickCategoryShare / quickQuantityShare form the cheap pre-ranking
	// score that bounds the detailed-scoring candidate set.
	quickCategoryShare = 0.6
	quickQuantityShare = 0.4

	// defaultEfficiencyFactor scales the delivery ETA. Reserved for future
	// per-volunteer performance adjustment; currently always 1.0.
	defaultEfficiencyFactor = 1.0

	// fallbackDistanceKm stands in for the ETA formula when no position is
	// known.
	fallbackDistanceKm = 10.0
)

type Service struct {
	repo   Repository
	scorer *Scorer
	tables Tables
	cfg    config.MatchingConfig
	travel TravelTimer
}

type Option func(*Service)

// WithTravelTimer plugs in a road-routing ETA source.
func WithTravelTimer(t TravelTimer) Option {
	return func(s *Service) {
		s.travel = t
	}
}

func NewService(repo Repository, tables Tables, cfg config.MatchingConfig, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		scorer: NewScorer(
			repo,
			cfg.MaxDistanceKm,
			time.Duration(cfg.DistanceCacheTTLSeconds)*time.Second,
			time.Duration(cfg.ReliabilityCacheTTLSeconds)*time.Second,
		),
		tables: tables,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scorer exposes the service's scorer, mainly for cache observability.
func (s *Service) Scorer() *Scorer {
	return s.scorer
}

// MatchDonorsToRequest ranks donation candidates for a request. A nil
// candidate slice means "fetch the available pool". The cheap quick score
// bounds how many candidates reach detailed scoring, which issues the
// repository-backed reliability and distance lookups.
func (s *Service) MatchDonorsToRequest(ctx context.Context, req request.Request, candidates []donation.Donation, maxResults int) ([]DonorMatch, error) {
	if maxResults <= 0 {
		maxResults = s.cfg.DonorResults
	}

	if candidates == nil {
		var err error
		candidates, err = s.repo.AvailableDonations(ctx)
		if err != nil {
			logger.Error().Err(err).Str("request_id", string(req.ID)).
				Msg("donation pool fetch failed")
			return nil, err
		}
	}

	type quick struct {
		don   donation.Donation
		score float64
	}
	shortlist := make([]quick, 0, len(candidates))
	for _, don := range candidates {
		if don.Status != donation.StatusAvailable {
			continue
		}
		categoryScore := NormalizeCategoryMatch(req.Category, don.Category, nil, don.Subcategory)
		if categoryScore == 0 {
			continue
		}
		if req.QuantityNeeded != nil && don.Quantity != nil && *don.Quantity < *req.QuantityNeeded {
			continue
		}
		quantityScore := NormalizeQuantityMatch(don.Quantity, req.QuantityNeeded)
		shortlist = append(shortlist, quick{don, quickCategoryShare*categoryScore + quickQuantityShare*quantityScore})
	}

	sort.SliceStable(shortlist, func(i, j int) bool {
		return shortlist[i].score > shortlist[j].score
	})
	if limit := 2 * maxResults; len(shortlist) > limit {
		shortlist = shortlist[:limit]
	}

	results := make([]DonorMatch, len(shortlist))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, q := range shortlist {
		g.Go(func() error {
			weights := s.tables.Contextual(&req, &q.don)
			results[i] = s.scorer.ScoreDonorToRequest(gctx, req, q.don, weights)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// MatchVolunteersToTask ranks volunteer candidates for a delivery task. The
// volunteer pool is small enough that every candidate gets detailed scoring;
// there is no quick-score phase.
func (s *Service) MatchVolunteersToTask(ctx context.Context, task Task, candidates []volunteer.Volunteer, maxResults int) ([]VolunteerMatch, error) {
	if maxResults <= 0 {
		maxResults = s.cfg.VolunteerResults
	}

	if candidates == nil {
		var near *types.Point
		if p, ok := task.Pickup.PointOf(); ok {
			near = &p
		}
		var err error
		candidates, err = s.repo.ActiveVolunteersNear(ctx, near, s.cfg.MaxDistanceKm)
		if err != nil {
			logger.Error().Err(err).Str("request_id", string(task.RequestID)).
				Msg("volunteer pool fetch failed")
			return nil, err
		}
	}

	results := make([]VolunteerMatch, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, vol := range candidates {
		g.Go(func() error {
			results[i] = s.scorer.ScoreVolunteerForTask(gctx, task, vol, s.tables.VolunteerTask)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// FindOptimalMatches composes ranked three-way matches across all open
// requests. Nil argument slices mean "fetch from the repository". Output is
// a strict descending sort by combined score, truncated to the configured
// global cap.
func (s *Service) FindOptimalMatches(ctx context.Context, requests []request.Request, donations []donation.Donation, volunteers []volunteer.Volunteer) ([]ThreeWayMatch, error) {
	var err error
	if requests == nil {
		requests, err = s.repo.OpenRequests(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("open request fetch failed")
			return nil, err
		}
	}
	if donations == nil {
		donations, err = s.repo.AvailableDonations(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("donation pool fetch failed")
			return nil, err
		}
	}
	if volunteers == nil {
		volunteers, err = s.repo.ActiveVolunteersNear(ctx, nil, 0)
		if err != nil {
			logger.Error().Err(err).Msg("volunteer pool fetch failed")
			return nil, err
		}
	}

	type pending struct {
		req   request.Request
		match DonorMatch
		task  Task
	}

	var direct []ThreeWayMatch
	var composed []pending
	for _, req := range requests {
		if req.Status != request.StatusOpen {
			continue
		}
		donorMatches, err := s.MatchDonorsToRequest(ctx, req, donations, optimalDonorsPerRequest)
		if err != nil {
			return nil, err
		}
		for _, dm := range donorMatches {
			if dm.Donation.DeliveryMode.NeedsVolunteer() || req.DeliveryMode.NeedsVolunteer() {
				composed = append(composed, pending{req, dm, TaskFor(req, dm.Donation)})
				continue
			}
			direct = append(direct, ThreeWayMatch{
				Request:                  req,
				Donation:                 dm.Donation,
				CombinedScore:            dm.Score,
				DonorScore:               dm.Score,
				MatchType:                MatchDirect,
				MatchReason:              dm.MatchReason,
				EstimatedDeliveryMinutes: s.estimateDeliveryMinutes(ctx, donorPosition(dm.Donation), req.Location),
			})
		}
	}

	// Volunteer matching fans out per task with a shared candidate pool.
	perTask := make([][]VolunteerMatch, len(composed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, p := range composed {
		g.Go(func() error {
			vms, err := s.MatchVolunteersToTask(gctx, p.task, volunteers, optimalVolunteersPerTask)
			if err != nil {
				return err
			}
			perTask[i] = vms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := direct
	for i, p := range composed {
		for _, vm := range perTask[i] {
			volScore := vm.Score
			matches = append(matches, ThreeWayMatch{
				Request:                  p.req,
				Donation:                 p.match.Donation,
				Volunteer:                &vm.Volunteer,
				CombinedScore:            donorScoreShare*p.match.Score + volunteerScoreShare*volScore,
				DonorScore:               p.match.Score,
				VolunteerScore:           &volScore,
				MatchType:                MatchThreeWay,
				MatchReason:              p.match.MatchReason,
				EstimatedDeliveryMinutes: s.estimateDeliveryMinutes(ctx, p.task.Pickup, p.task.Dropoff),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CombinedScore > matches[j].CombinedScore
	})
	limit := s.cfg.OptimalResults
	if limit <= 0 {
		limit = 20
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// estimateDeliveryMinutes asks the travel timer when both endpoints are
// known, otherwise applies the distance formula with an unknown-distance
// default.
func (s *Service) estimateDeliveryMinutes(ctx context.Context, from, to types.OptionalPoint) int {
	if s.travel != nil {
		if pf, ok := from.PointOf(); ok {
			if pt, ok := to.PointOf(); ok {
				if minutes, err := s.travel.TravelTimeMinutes(ctx, pf, pt); err == nil {
					return minutes
				}
			}
		}
	}

	distance := fallbackDistanceKm
	if d := s.scorer.Distance(from, to); d != nil {
		distance = *d
	}
	return int(math.Round((30 + 2*distance) / defaultEfficiencyFactor))
}

func (s *Service) concurrency() int {
	if s.cfg.ScoreConcurrency > 0 {
		return s.cfg.ScoreConcurrency
	}
	return 8
}
