package utils

// ContextKey is the type for request-scoped context keys
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserAgentKey ContextKey = "user_agent"
	IPAddressKey ContextKey = "ip_address"
	EndpointKey  ContextKey = "endpoint"
)

// CORSMaxAge is how long browsers may cache CORS preflight responses, in seconds
const CORSMaxAge = 86400

// Score bounds shared by the scoring pipeline
const (
	// MinScore is the lower bound of every component score
	MinScore = 0.0

	// MaxScore is the upper bound of every component score
	MaxScore = 100.0
)

// PodcastCategories is the closed category taxonomy used by ingestion and by
// the per-category CPM benchmark table.
var PodcastCategories = []string{
	"technology",
	"business",
	"health&fitness",
	"education",
	"true_crime",
	"news&politics",
	"comedy",
	"sports",
	"kids&family",
	"arts",
	"society&culture",
	"history",
	"fiction",
	"religion&spirituality",
	"leisure",
	"government",
	"music",
	"science",
	"tv&film",
}

// ClampScore bounds a score to [MinScore, MaxScore]
func ClampScore(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
