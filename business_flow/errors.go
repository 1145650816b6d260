// Package businessflow contains the core business logic and use cases for sponsorship matching workflows
package businessflow

import (
	"errors"
	"fmt"

	"github.com/podmatch/podmatch/repository"
)

// Business flow error constants
var (
	// Vector errors
	ErrDimensionMismatch = errors.New("embedding dimensions do not match")
	ErrZeroVector        = errors.New("embedding has zero magnitude")
	ErrEmptyVector       = errors.New("embedding is empty")

	// Scoring errors
	ErrInvalidWeightConfig = errors.New("scoring weights must be non-negative and sum to 1.0")
	ErrInsufficientData    = errors.New("insufficient data to produce an estimate")
	ErrNoCandidates        = errors.New("no candidate podcasts available for scoring")

	// Entity lookup errors
	ErrBrandProfileNotFound = errors.New("brand profile not found")
	ErrPodcastNotFound      = errors.New("podcast not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrMatchNotFound        = errors.New("match not found")

	// Workflow errors
	ErrCampaignNotActive    = errors.New("campaign is not active")
	ErrInvalidTransition    = errors.New("invalid match status transition")
	ErrMatchUpdateRequired  = errors.New("at least one field must be provided for update")
	ErrScoringInProgress    = errors.New("scoring already in progress for campaign")
	ErrNoMatchesForCampaign = errors.New("no matches computed for campaign")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsDimensionMismatch(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}

func IsZeroVector(err error) bool {
	return errors.Is(err, ErrZeroVector)
}

func IsInvalidWeightConfig(err error) bool {
	return errors.Is(err, ErrInvalidWeightConfig)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsBrandProfileNotFound(err error) bool {
	return errors.Is(err, ErrBrandProfileNotFound)
}

func IsPodcastNotFound(err error) bool {
	return errors.Is(err, ErrPodcastNotFound)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsMatchNotFound(err error) bool {
	return errors.Is(err, ErrMatchNotFound) || errors.Is(err, repository.ErrMatchNotFound)
}

func IsCampaignNotActive(err error) bool {
	return errors.Is(err, ErrCampaignNotActive)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, repository.ErrInvalidStatusTransition)
}
