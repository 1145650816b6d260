package businessflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/podmatch/podmatch/app/services"
	"github.com/podmatch/podmatch/config"
	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/repository"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// scoreDimension pairs a weighted dimension with its computed score for
// reasoning generation
type scoreDimension struct {
	name    string
	score   float64
	weight  float64
	neutral bool
}

// PairFailure records one candidate that could not be scored or persisted
type PairFailure struct {
	PodcastID uint   `json:"podcast_id"`
	Reason    string `json:"reason"`
}

// BatchResult is the outcome of scoring one campaign against its candidate
// set. Failures are collected per pair; one bad embedding never aborts the
// batch.
type BatchResult struct {
	CampaignID uint            `json:"campaign_id"`
	Candidates int             `json:"candidates"`
	Succeeded  []uint          `json:"succeeded"`
	Failed     []PairFailure   `json:"failed"`
	Matches    []*models.Match `json:"-"`
}

// ScoringFlow orchestrates campaign-to-podcast match computation
type ScoringFlow interface {
	ScoreCampaign(ctx context.Context, campaignUUID string) (*BatchResult, error)
	ScorePair(campaign *models.Campaign, podcast *models.Podcast) (*models.Match, error)
	RescoreActiveCampaigns(ctx context.Context) ([]*BatchResult, error)
}

// ScoringFlowImpl implements the scoring business flow
type ScoringFlowImpl struct {
	campaignRepo repository.CampaignRepository
	podcastRepo  repository.PodcastRepository
	brandRepo    repository.BrandProfileRepository
	matchRepo    repository.MatchRepository
	cache        services.CandidateCache
	cfg          config.ScoringConfig
	db           *gorm.DB
}

// NewScoringFlow creates a new scoring flow instance. The weight
// configuration is validated here; a bad config blocks all scoring rather
// than producing silently skewed matches.
func NewScoringFlow(
	campaignRepo repository.CampaignRepository,
	podcastRepo repository.PodcastRepository,
	brandRepo repository.BrandProfileRepository,
	matchRepo repository.MatchRepository,
	db *gorm.DB,
	cache services.CandidateCache,
	cfg config.ScoringConfig,
) (ScoringFlow, error) {
	if !cfg.Weights.Valid() {
		return nil, NewBusinessErrorf("INVALID_WEIGHT_CONFIG",
			"scoring weights sum to %.6f", ErrInvalidWeightConfig, cfg.Weights.Sum())
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &ScoringFlowImpl{
		campaignRepo: campaignRepo,
		podcastRepo:  podcastRepo,
		brandRepo:    brandRepo,
		matchRepo:    matchRepo,
		cache:        cache,
		cfg:          cfg,
		db:           db,
	}, nil
}

// ScoreCampaign computes and persists matches for one campaign against the
// top-K candidate podcasts. Pair scoring runs across a bounded worker pool;
// per-pair failures are collected into the batch result instead of aborting.
func (s *ScoringFlowImpl) ScoreCampaign(ctx context.Context, campaignUUID string) (*BatchResult, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if !campaign.IsActive() {
		return nil, NewBusinessError("CAMPAIGN_NOT_ACTIVE", "Campaign is not active", ErrCampaignNotActive)
	}

	if campaign.BrandProfile == nil {
		brand, err := s.brandRepo.ByID(ctx, campaign.BrandProfileID)
		if err != nil {
			return nil, NewBusinessError("BRAND_LOOKUP_FAILED", "Failed to lookup brand profile", err)
		}
		if brand == nil {
			return nil, NewBusinessError("BRAND_NOT_FOUND", "Brand profile not found", ErrBrandProfileNotFound)
		}
		campaign.BrandProfile = brand
	}

	candidates, err := s.retrieveCandidates(ctx, campaign)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, NewBusinessError("NO_CANDIDATES", "No candidate podcasts available", ErrNoCandidates)
	}

	podcasts, err := s.podcastRepo.ByIDs(ctx, candidates)
	if err != nil {
		return nil, NewBusinessError("CANDIDATE_LOAD_FAILED", "Failed to load candidate podcasts", err)
	}

	// Deterministic scoring order regardless of retrieval order
	sort.Slice(podcasts, func(i, j int) bool { return podcasts[i].ID < podcasts[j].ID })

	return s.scoreBatch(ctx, campaign, podcasts), nil
}

// RescoreActiveCampaigns recomputes matches for every active campaign.
// Used by the periodic rescoring scheduler.
func (s *ScoringFlowImpl) RescoreActiveCampaigns(ctx context.Context) ([]*BatchResult, error) {
	campaigns, err := s.campaignRepo.ListActive(ctx, 0, 0)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list active campaigns", err)
	}

	var results []*BatchResult
	for _, campaign := range campaigns {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		result, err := s.ScoreCampaign(ctx, campaign.UUID.String())
		if err != nil {
			// A campaign without candidates should not stop the sweep
			if IsCampaignNotActive(err) || IsInsufficientData(err) {
				continue
			}
			var be *BusinessError
			if errors.As(err, &be) && be.Code == "NO_CANDIDATES" {
				continue
			}
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

// retrieveCandidates queries the in-memory vector index for the top-K
// podcasts closest to the campaign. Content embeddings are preferred for
// retrieval; audience embeddings serve as fallback, and with no usable query
// embedding at all the filter ordering decides.
func (s *ScoringFlowImpl) retrieveCandidates(ctx context.Context, campaign *models.Campaign) ([]uint, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetCandidates(ctx, campaign.ID); ok && len(cached) > 0 {
			return cached, nil
		}
	}

	embeddable := true
	rows, err := s.podcastRepo.ListEmbeddings(ctx, models.PodcastFilter{HasEmbeddings: &embeddable})
	if err != nil {
		return nil, NewBusinessError("EMBEDDING_LIST_FAILED", "Failed to list podcast embeddings", err)
	}

	brand := campaign.BrandProfile

	query := pickEmbedding(campaign.ContentEmbedding, brandEmbeddingOrNil(brand, "content"))
	vectors := make([][]float64, len(rows))
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.PodcastID
		vectors[i] = row.ContentEmbedding
	}

	if len(query) == 0 {
		query = pickEmbedding(campaign.AudienceEmbedding, brandEmbeddingOrNil(brand, "audience"))
		for i, row := range rows {
			vectors[i] = row.AudienceEmbedding
		}
	}

	if len(query) == 0 {
		// No query embedding on either axis; score the first K podcasts with
		// embeddings instead of failing the whole campaign
		if len(ids) > s.cfg.TopK {
			ids = ids[:s.cfg.TopK]
		}
		return ids, nil
	}

	index := NewVectorIndex(ids, vectors)
	hits, err := index.TopK(query, s.cfg.TopK)
	if err != nil {
		return nil, NewBusinessError("CANDIDATE_RETRIEVAL_FAILED", "Vector index query failed", err)
	}

	out := make([]uint, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hit.PodcastID)
	}

	if s.cache != nil {
		s.cache.SetCandidates(ctx, campaign.ID, out)
	}

	return out, nil
}

// scoreBatch fans pair scoring out over a bounded worker pool and collects
// results. Cancellation stops new pairs from being issued; upserts already
// in flight drain within the configured timeout so no partial rows are left
// behind.
func (s *ScoringFlowImpl) scoreBatch(ctx context.Context, campaign *models.Campaign, podcasts []*models.Podcast) *BatchResult {
	type pairOutcome struct {
		podcastID uint
		match     *models.Match
		err       error
	}

	jobs := make(chan *models.Podcast)
	outcomes := make(chan pairOutcome, len(podcasts))

	var wg sync.WaitGroup
	for range s.cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for podcast := range jobs {
				match, err := s.ScorePair(campaign, podcast)
				if err == nil {
					err = s.persistMatch(ctx, match)
				}
				outcomes <- pairOutcome{podcastID: podcast.ID, match: match, err: err}
			}
		}()
	}

feed:
	for _, podcast := range podcasts {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- podcast:
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	result := &BatchResult{
		CampaignID: campaign.ID,
		Candidates: len(podcasts),
	}
	for outcome := range outcomes {
		if outcome.err != nil {
			result.Failed = append(result.Failed, PairFailure{
				PodcastID: outcome.podcastID,
				Reason:    outcome.err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, outcome.podcastID)
		result.Matches = append(result.Matches, outcome.match)
	}

	// Deterministic result ordering for callers and logs
	sort.Slice(result.Succeeded, func(i, j int) bool { return result.Succeeded[i] < result.Succeeded[j] })
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].PodcastID < result.Failed[j].PodcastID })
	sort.Slice(result.Matches, func(i, j int) bool { return result.Matches[i].PodcastID < result.Matches[j].PodcastID })

	return result
}

// persistMatch upserts one match. The write is decoupled from batch
// cancellation so an in-flight upsert completes instead of tearing a row.
func (s *ScoringFlowImpl) persistMatch(ctx context.Context, match *models.Match) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.UpsertTimeout)
	defer cancel()

	if err := s.matchRepo.Upsert(writeCtx, match); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// ScorePair computes one match from immutable inputs. It is pure and
// deterministic: identical inputs and weights always produce identical
// scores.
func (s *ScoringFlowImpl) ScorePair(campaign *models.Campaign, podcast *models.Podcast) (*models.Match, error) {
	brand := campaign.BrandProfile
	neutral := s.cfg.NeutralScore

	// Four similarity axes, computed pairwise
	audienceAxis, audienceAxisNeutral, err := AxisScore(
		pickEmbedding(campaign.AudienceEmbedding, brandEmbeddingOrNil(brand, "audience")),
		podcast.AudienceEmbedding, neutral)
	if err != nil {
		return nil, err
	}
	productAxis, productNeutral, err := AxisScore(
		pickEmbedding(campaign.ProductEmbedding, brandEmbeddingOrNil(brand, "product")),
		podcast.ContentEmbedding, neutral)
	if err != nil {
		return nil, err
	}
	contentAxis, contentNeutral, err := AxisScore(
		pickEmbedding(campaign.ContentEmbedding, brandEmbeddingOrNil(brand, "content")),
		podcast.ContentEmbedding, neutral)
	if err != nil {
		return nil, err
	}
	brandAxis, brandNeutral, err := AxisScore(
		pickEmbedding(campaign.BrandEmbedding, brandEmbeddingOrNil(brand, "brand")),
		podcast.ContentEmbedding, neutral)
	if err != nil {
		return nil, err
	}

	demo := ScoreDemographics(campaign.Targeting, podcast, neutral)

	econ, err := EstimateEconomics(campaign, podcast, s.cfg)
	if err != nil {
		if !IsInsufficientData(err) {
			return nil, err
		}
		// No economics signal at all; score the pair with neutral economics
		// rather than dropping it
		econ = &EconomicsEstimate{
			BudgetFitScore:    neutral,
			EngagementQuality: neutral,
			BudgetFitNeutral:  true,
			EngagementNeutral: true,
		}
	}

	// Audience match blends the embedding axis with the demographic overlap
	audienceMatch := audienceAxis
	audienceMatchNeutral := audienceAxisNeutral
	demoAvg := (demo.Geographic + demo.Age + demo.Gender + demo.Interest) / 4
	if demo.NeutralCount() < 4 {
		if audienceAxisNeutral {
			audienceMatch = demoAvg
		} else {
			audienceMatch = (audienceAxis + demoAvg) / 2
		}
		audienceMatchNeutral = false
	}

	dims := []scoreDimension{
		{"audience_match", audienceMatch, s.cfg.Weights.AudienceMatch, audienceMatchNeutral},
		{"product_relevance", productAxis, s.cfg.Weights.ProductRelevance, productNeutral},
		{"content_theme", contentAxis, s.cfg.Weights.ContentTheme, contentNeutral},
		{"brand_alignment", brandAxis, s.cfg.Weights.BrandAlignment, brandNeutral},
		{"budget_fit", econ.BudgetFitScore, s.cfg.Weights.BudgetFit, econ.BudgetFitNeutral},
		{"engagement_quality", econ.EngagementQuality, s.cfg.Weights.EngagementQuality, econ.EngagementNeutral},
	}

	var overall float64
	for _, d := range dims {
		overall += d.score * d.weight
	}
	overall = utils.ClampScore(overall)

	confidence := s.confidence(dims, demo)

	match := &models.Match{
		BrandProfileID: campaign.BrandProfileID,
		PodcastID:      podcast.ID,
		CampaignID:     campaign.ID,

		OverallScore:           overall,
		AudienceMatchScore:     utils.ClampScore(audienceMatch),
		ProductRelevanceScore:  utils.ClampScore(productAxis),
		ContentThemeScore:      utils.ClampScore(contentAxis),
		BrandAlignmentScore:    utils.ClampScore(brandAxis),
		GeographicScore:        utils.ClampScore(demo.Geographic),
		AgeScore:               utils.ClampScore(demo.Age),
		GenderScore:            utils.ClampScore(demo.Gender),
		InterestScore:          utils.ClampScore(demo.Interest),
		BudgetFitScore:         utils.ClampScore(econ.BudgetFitScore),
		EngagementQualityScore: utils.ClampScore(econ.EngagementQuality),
		MatchConfidence:        confidence,

		Reasoning: s.buildReasoning(dims, overall, econ),

		Status:    models.MatchStatusSuggested,
		MatchDate: utils.UTCNow(),
	}

	if !econ.BudgetFitNeutral || !econ.EngagementNeutral {
		if econ.EstimatedCPM > 0 {
			match.EstimatedCPM = utils.ToPtr(econ.EstimatedCPM)
		}
		if econ.EstimatedCostPerEpisode > 0 {
			match.EstimatedCostPerEpisode = utils.ToPtr(econ.EstimatedCostPerEpisode)
		}
		if econ.PotentialReach > 0 {
			match.PotentialReach = utils.ToPtr(econ.PotentialReach)
		}
		if econ.PotentialImpressions > 0 {
			match.PotentialImpressions = utils.ToPtr(econ.PotentialImpressions)
		}
	}

	return match, nil
}

// confidence is the share of sub-scores that were computed from real data
// instead of falling back to the neutral default
func (s *ScoringFlowImpl) confidence(dims []scoreDimension, demo DemographicScores) float64 {
	total := len(dims) + 4
	neutral := demo.NeutralCount()
	for _, d := range dims {
		if d.neutral {
			neutral++
		}
	}
	return utils.ClampScore(float64(total-neutral) / float64(total) * 100)
}

// buildReasoning assembles the structured explanation: the strongest
// dimensions, the ones weak enough to flag, key metrics and a recommendation
// keyed on the overall score band.
func (s *ScoringFlowImpl) buildReasoning(dims []scoreDimension, overall float64, econ *EconomicsEstimate) models.MatchReasoning {
	sorted := make([]scoreDimension, len(dims))
	copy(sorted, dims)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	reasoning := models.MatchReasoning{
		KeyMetrics: make(map[string]float64, len(dims)+2),
	}

	for _, d := range dims {
		reasoning.KeyMetrics[d.name] = d.score
	}
	if econ.EstimatedCPM > 0 {
		reasoning.KeyMetrics["estimated_cpm"] = econ.EstimatedCPM
	}
	if econ.EstimatedCostPerEpisode > 0 {
		reasoning.KeyMetrics["estimated_cost_per_episode"] = econ.EstimatedCostPerEpisode
	}

	for i, d := range sorted {
		if i >= 3 {
			break
		}
		if d.neutral || d.score < s.cfg.NeutralScore {
			continue
		}
		reasoning.TopStrengths = append(reasoning.TopStrengths,
			fmt.Sprintf("%s: %.1f", d.name, d.score))
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		d := sorted[i]
		if d.neutral || d.score >= s.cfg.ConcernThreshold {
			continue
		}
		reasoning.PotentialConcerns = append(reasoning.PotentialConcerns,
			fmt.Sprintf("%s: %.1f", d.name, d.score))
	}

	switch {
	case overall >= 80:
		reasoning.Recommendation = "Strong match, prioritize outreach"
	case overall >= 60:
		reasoning.Recommendation = "Good match, worth contacting"
	case overall >= 40:
		reasoning.Recommendation = "Moderate match, review before outreach"
	default:
		reasoning.Recommendation = "Weak match, consider alternatives"
	}

	return reasoning
}

// pickEmbedding prefers the campaign-level embedding and falls back to the
// brand-level one
func pickEmbedding(campaignEmb, brandEmb []float64) []float64 {
	if len(campaignEmb) > 0 {
		return campaignEmb
	}
	return brandEmb
}

// brandEmbeddingOrNil fetches one of the brand profile's embeddings by axis,
// tolerating a missing brand profile
func brandEmbeddingOrNil(brand *models.BrandProfile, axis string) []float64 {
	if brand == nil {
		return nil
	}
	switch axis {
	case "audience":
		return brand.AudienceEmbedding
	case "product":
		return brand.ProductEmbedding
	case "content":
		return brand.ContentThemeEmbedding
	case "brand":
		return brand.BrandEmbedding
	default:
		return nil
	}
}
