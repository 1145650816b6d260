package businessflow

import (
	"strconv"
	"strings"

	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
)

// openBucketSpan is the assumed width in years of open-ended age buckets
// like "55+" when computing distribution overlap.
const openBucketSpan = 20.0

// DemographicScores carries the four audience compatibility sub-scores.
// A Neutral flag marks dimensions that fell back to the neutral default
// because targeting or audience data was missing.
type DemographicScores struct {
	Geographic float64
	Age        float64
	Gender     float64
	Interest   float64

	GeographicNeutral bool
	AgeNeutral        bool
	GenderNeutral     bool
	InterestNeutral   bool
}

// NeutralCount returns how many of the four dimensions fell back to neutral
func (s DemographicScores) NeutralCount() int {
	n := 0
	for _, neutral := range []bool{
		s.GeographicNeutral, s.AgeNeutral, s.GenderNeutral, s.InterestNeutral,
	} {
		if neutral {
			n++
		}
	}
	return n
}

// ScoreDemographics computes the audience compatibility of a podcast against
// campaign targeting criteria. Missing data on either side scores neutral
// rather than zero so sparse profiles are not unfairly penalized.
func ScoreDemographics(targeting models.TargetDemographics, podcast *models.Podcast, neutralScore float64) DemographicScores {
	scores := DemographicScores{}
	scores.Geographic, scores.GeographicNeutral = geographicScore(targeting.Countries, podcast, neutralScore)
	scores.Age, scores.AgeNeutral = ageScore(targeting.AgeMin, targeting.AgeMax, podcast.Demographics, neutralScore)
	scores.Gender, scores.GenderNeutral = genderScore(targeting.Gender, podcast.Demographics, neutralScore)
	scores.Interest, scores.InterestNeutral = interestScore(targeting.Interests, podcast.Demographics.TopInterests, neutralScore)
	return scores
}

// geographicScore measures how much of the podcast audience lives in the
// campaign's target countries. With per-country shares the score is the share
// of listeners in targeted countries; otherwise it is the fraction of target
// countries appearing in the podcast's primary countries.
func geographicScore(targetCountries []string, podcast *models.Podcast, neutralScore float64) (float64, bool) {
	if len(targetCountries) == 0 {
		return neutralScore, true
	}

	targets := make(map[string]bool, len(targetCountries))
	for _, c := range targetCountries {
		targets[normalizeToken(c)] = true
	}

	if len(podcast.Demographics.CountryShares) > 0 {
		var matched, total float64
		for country, share := range podcast.Demographics.CountryShares {
			total += share
			if targets[normalizeToken(country)] {
				matched += share
			}
		}
		if total <= 0 {
			return neutralScore, true
		}
		return utils.ClampScore(matched / total * 100), false
	}

	if len(podcast.PrimaryCountries) == 0 {
		return neutralScore, true
	}

	primary := make(map[string]bool, len(podcast.PrimaryCountries))
	for _, c := range podcast.PrimaryCountries {
		primary[normalizeToken(c)] = true
	}

	hits := 0
	for c := range targets {
		if primary[c] {
			hits++
		}
	}
	return utils.ClampScore(float64(hits) / float64(len(targets)) * 100), false
}

// ageScore measures how much of the podcast audience falls inside the
// campaign's [age_min, age_max] interval. A full age breakdown is preferred;
// the dominant age range serves as a coarse fallback.
func ageScore(ageMin, ageMax *int, demo models.AudienceDemographics, neutralScore float64) (float64, bool) {
	if ageMin == nil && ageMax == nil {
		return neutralScore, true
	}

	lo, hi := 0.0, 120.0
	if ageMin != nil {
		lo = float64(*ageMin)
	}
	if ageMax != nil {
		hi = float64(*ageMax)
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	if len(demo.AgeBreakdown) > 0 {
		var covered, total float64
		for bucket, pct := range demo.AgeBreakdown {
			if pct <= 0 {
				continue
			}
			bLo, bHi, ok := parseAgeBucket(bucket)
			if !ok {
				continue
			}
			total += pct
			covered += pct * intervalOverlapFraction(lo, hi, bLo, bHi)
		}
		if total <= 0 {
			return neutralScore, true
		}
		return utils.ClampScore(covered / total * 100), false
	}

	if demo.DominantAgeRange != nil {
		bLo, bHi, ok := parseAgeBucket(*demo.DominantAgeRange)
		if ok {
			// Intersection over union between the target interval and the
			// dominant bucket
			inter := intervalOverlap(lo, hi, bLo, bHi)
			union := (hi - lo) + (bHi - bLo) - inter
			if union <= 0 {
				return neutralScore, true
			}
			return utils.ClampScore(inter / union * 100), false
		}
	}

	return neutralScore, true
}

// genderScore compares the campaign's target gender against the podcast
// audience split. Targeting "all" always scores 100.
func genderScore(target *string, demo models.AudienceDemographics, neutralScore float64) (float64, bool) {
	if target == nil {
		return neutralScore, true
	}

	switch normalizeToken(*target) {
	case "all", "any", "":
		return utils.MaxScore, false
	case "male":
		if demo.MalePercentage == nil {
			return neutralScore, true
		}
		return utils.ClampScore(*demo.MalePercentage), false
	case "female":
		if demo.FemalePercentage == nil {
			return neutralScore, true
		}
		return utils.ClampScore(*demo.FemalePercentage), false
	default:
		return neutralScore, true
	}
}

// interestScore is the Jaccard similarity between campaign target interests
// and the podcast's top listener interests, scaled to [0,100]
func interestScore(targetInterests, podcastInterests []string, neutralScore float64) (float64, bool) {
	if len(targetInterests) == 0 || len(podcastInterests) == 0 {
		return neutralScore, true
	}

	a := make(map[string]bool, len(targetInterests))
	for _, s := range targetInterests {
		if t := normalizeToken(s); t != "" {
			a[t] = true
		}
	}
	b := make(map[string]bool, len(podcastInterests))
	for _, s := range podcastInterests {
		if t := normalizeToken(s); t != "" {
			b[t] = true
		}
	}
	if len(a) == 0 || len(b) == 0 {
		return neutralScore, true
	}

	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter

	return utils.ClampScore(float64(inter) / float64(union) * 100), false
}

// parseAgeBucket parses bucket labels like "25-34" or "55+" into a numeric
// interval. Open-ended buckets extend openBucketSpan years past their floor.
func parseAgeBucket(bucket string) (lo, hi float64, ok bool) {
	s := strings.TrimSpace(bucket)
	if s == "" {
		return 0, 0, false
	}

	if strings.HasSuffix(s, "+") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "+"), 64)
		if err != nil {
			return 0, 0, false
		}
		return v, v + openBucketSpan, true
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errA != nil || errB != nil || b < a {
		return 0, 0, false
	}
	return a, b, true
}

func intervalOverlap(aLo, aHi, bLo, bHi float64) float64 {
	lo := aLo
	if bLo > lo {
		lo = bLo
	}
	hi := aHi
	if bHi < hi {
		hi = bHi
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// intervalOverlapFraction returns the fraction of [bLo,bHi] covered by
// [aLo,aHi], in [0,1]
func intervalOverlapFraction(aLo, aHi, bLo, bHi float64) float64 {
	span := bHi - bLo
	if span <= 0 {
		// Degenerate bucket; count it fully in or fully out
		if bLo >= aLo && bLo <= aHi {
			return 1
		}
		return 0
	}
	return intervalOverlap(aLo, aHi, bLo, bHi) / span
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
