package businessflow

import (
	"math"

	"github.com/podmatch/podmatch/config"
	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
)

// engagementRateCeiling is the listener engagement rate mapped to a perfect
// engagement score. Rates above it are industry outliers and clamp to 100.
const engagementRateCeiling = 0.10

// cpmEngagementSwing is the maximum relative CPM adjustment driven by
// engagement quality. A perfectly engaged audience commands this premium
// over the category benchmark; a dead one gets the same discount.
const cpmEngagementSwing = 0.4

// EconomicsEstimate is the cost and reach projection for one
// campaign-podcast pair.
type EconomicsEstimate struct {
	EstimatedCPM            float64
	EstimatedCostPerEpisode float64
	PotentialReach          int64
	PotentialImpressions    int64

	BudgetFitScore    float64
	EngagementQuality float64

	BudgetFitNeutral  bool
	EngagementNeutral bool
}

// EstimateEconomics derives CPM, cost, reach and impression projections for a
// campaign-podcast pair, plus how well the projected cost fits the campaign
// budget. It fails with ErrInsufficientData when the podcast carries no
// usable audience or analytics signal at all; the caller chooses between
// skipping the pair and scoring it neutral.
func EstimateEconomics(campaign *models.Campaign, podcast *models.Podcast, cfg config.ScoringConfig) (*EconomicsEstimate, error) {
	if podcast.AudienceSize == nil && (podcast.Analytics == nil || !podcast.Analytics.HasSignals()) {
		return nil, ErrInsufficientData
	}

	est := &EconomicsEstimate{}
	est.EngagementQuality, est.EngagementNeutral = engagementQualityScore(podcast, cfg.NeutralScore)

	audience := audienceSize(podcast)
	if audience <= 0 {
		return nil, ErrInsufficientData
	}

	// Category benchmark adjusted by engagement quality. A neutral engagement
	// score leaves the benchmark untouched so sparse data never skews price.
	benchmark := categoryBenchmarkCPM(podcast.Categories, cfg)
	adjustment := 1 + cpmEngagementSwing*(est.EngagementQuality-cfg.NeutralScore)/utils.MaxScore
	est.EstimatedCPM = benchmark * adjustment

	// Historical price beats the benchmark projection when available
	if podcast.Analytics != nil && podcast.Analytics.EstimatedAdPrice != nil && *podcast.Analytics.EstimatedAdPrice > 0 {
		est.EstimatedCostPerEpisode = *podcast.Analytics.EstimatedAdPrice
		est.EstimatedCPM = est.EstimatedCostPerEpisode / (float64(audience) / 1000)
	} else {
		est.EstimatedCostPerEpisode = float64(audience) / 1000 * est.EstimatedCPM
	}

	est.PotentialReach = potentialReach(podcast, audience)
	est.PotentialImpressions = int64(math.Round(float64(est.PotentialReach) * cfg.FrequencyAssumption))

	est.BudgetFitScore, est.BudgetFitNeutral = budgetFitScore(
		est.EstimatedCostPerEpisode,
		campaign.MinBudgetPerEpisode,
		campaign.BudgetPerEpisode,
		cfg,
	)

	return est, nil
}

// audienceSize resolves the working audience figure, falling back to average
// episode views when the profile lacks an explicit audience size
func audienceSize(podcast *models.Podcast) int64 {
	if podcast.AudienceSize != nil && *podcast.AudienceSize > 0 {
		return *podcast.AudienceSize
	}
	if podcast.Analytics != nil && podcast.Analytics.AvgEpisodeViews != nil && *podcast.Analytics.AvgEpisodeViews > 0 {
		return *podcast.Analytics.AvgEpisodeViews
	}
	return 0
}

// potentialReach bounds expected listeners per episode by the audience size,
// the historical engagement rate and observed per-episode views
func potentialReach(podcast *models.Podcast, audience int64) int64 {
	reach := float64(audience)

	if podcast.EngagementRate != nil && *podcast.EngagementRate > 0 && *podcast.EngagementRate < 1 {
		reach *= *podcast.EngagementRate
	}

	if podcast.Analytics != nil && podcast.Analytics.AvgEpisodeViews != nil {
		if views := float64(*podcast.Analytics.AvgEpisodeViews); views > 0 && views < reach {
			reach = views
		}
	}

	if reach < 0 {
		return 0
	}
	return int64(math.Round(reach))
}

// categoryBenchmarkCPM returns the highest benchmark among the podcast's
// categories. A show spanning several verticals sells against its premium
// one.
func categoryBenchmarkCPM(categories []string, cfg config.ScoringConfig) float64 {
	best := 0.0
	for _, c := range categories {
		if cpm, ok := cfg.CategoryCPM[normalizeToken(c)]; ok && cpm > best {
			best = cpm
		}
	}
	if best == 0 {
		return cfg.DefaultCPM
	}
	return best
}

// budgetFitScore measures how well the estimated cost sits inside the
// campaign's [min_budget, budget] range. Within range scores 100; outside,
// the score halves every BudgetDecayRate of relative distance from the
// violated bound, identically in both directions, and never goes negative.
func budgetFitScore(cost float64, minBudget, maxBudget *float64, cfg config.ScoringConfig) (float64, bool) {
	if minBudget == nil && maxBudget == nil {
		return cfg.NeutralScore, true
	}

	lo, hi := 0.0, math.Inf(1)
	if minBudget != nil {
		lo = *minBudget
	}
	if maxBudget != nil {
		hi = *maxBudget
	}

	if cost >= lo && cost <= hi {
		return utils.MaxScore, false
	}

	var bound float64
	if cost < lo {
		bound = lo
	} else {
		bound = hi
	}
	if bound <= 0 {
		return utils.MinScore, false
	}

	relDistance := math.Abs(cost-bound) / bound
	score := utils.MaxScore * math.Pow(0.5, relDistance/cfg.BudgetDecayRate)

	return utils.ClampScore(score), false
}

// engagementQualityScore blends the available engagement signals: listener
// engagement rate, the monetization score from the analytics pipeline and
// per-platform social engagement. With no signal at all it returns neutral.
func engagementQualityScore(podcast *models.Podcast, neutralScore float64) (float64, bool) {
	var signals []float64

	if podcast.EngagementRate != nil && *podcast.EngagementRate > 0 {
		signals = append(signals, utils.ClampScore(*podcast.EngagementRate/engagementRateCeiling*100))
	}

	if podcast.Analytics != nil && podcast.Analytics.MonetizationScore != nil {
		signals = append(signals, utils.ClampScore(*podcast.Analytics.MonetizationScore))
	}

	for _, social := range podcast.SocialStats {
		if social.EngagementRate != nil && *social.EngagementRate > 0 {
			signals = append(signals, utils.ClampScore(*social.EngagementRate/engagementRateCeiling*100))
		}
	}

	if len(signals) == 0 {
		return neutralScore, true
	}

	var sum float64
	for _, s := range signals {
		sum += s
	}
	return sum / float64(len(signals)), false
}
