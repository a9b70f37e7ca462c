package models

import "time"

// AiFeature identifies the metered AI feature that was invoked.
type AiFeature string

const (
	FeatureTitleSuggestion AiFeature = "title_suggestion"
	FeatureTagSuggestion   AiFeature = "tag_suggestion"
	FeatureTextExtraction  AiFeature = "text_extraction"
)

// SubscriptionType is the plan the user was on when the feature ran.
type SubscriptionType string

const (
	SubscriptionFree SubscriptionType = "free"
	SubscriptionPaid SubscriptionType = "paid"
)

// AiUsageLog is one immutable row of the append-only usage ledger.
//
// EstimatedCostUsd is recomputed from a pure cost function at log time and
// SubscriptionMonth is derived from Timestamp at log time; neither is ever
// recomputed retroactively.
type AiUsageLog struct {
	ID               int64
	Timestamp        time.Time
	FeatureType      AiFeature
	InputTokens      int64
	OutputTokens     int64
	EstimatedCostUsd float64
	Success          bool
	SubscriptionMonth string
	SubscriptionType SubscriptionType
}

// UsageLimitStatus is the tier derived from the current month's call count.
type UsageLimitStatus int

const (
	UsageWithinLimits UsageLimitStatus = iota
	UsageSoft100
	UsageSoft200
	UsageHardLimitReached
)

func (s UsageLimitStatus) String() string {
	switch s {
	case UsageWithinLimits:
		return "within_limits"
	case UsageSoft100:
		return "soft_100"
	case UsageSoft200:
		return "soft_200"
	case UsageHardLimitReached:
		return "hard_limit_reached"
	default:
		return "unknown"
	}
}
