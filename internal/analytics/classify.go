// Package analytics computes the dashboard and demographic reports from raw
// member field distributions. Classification (age buckets, employment,
// voter eligibility) lives here so the repositories stay plain GROUP BYs.
package analytics

import "strings"

// Age bucket labels, youngest first.
const (
	BucketChildren    = "Children (0-14)"
	BucketYouth       = "Youth (15-24)"
	BucketYoungAdults = "Young Adults (25-44)"
	BucketMiddleAge   = "Middle Age (45-59)"
	BucketElderly     = "Elderly (60-74)"
	BucketSenior      = "Senior (75+)"
	BucketUnknown     = "Unknown"
)

// AgeBuckets lists the labels in display order.
var AgeBuckets = []string{
	BucketChildren, BucketYouth, BucketYoungAdults,
	BucketMiddleAge, BucketElderly, BucketSenior, BucketUnknown,
}

// AgeBucket maps an age to its display bucket. Non-positive ages are
// unknown, not children.
func AgeBucket(age int) string {
	switch {
	case age <= 0:
		return BucketUnknown
	case age <= 14:
		return BucketChildren
	case age <= 24:
		return BucketYouth
	case age <= 44:
		return BucketYoungAdults
	case age <= 59:
		return BucketMiddleAge
	case age <= 74:
		return BucketElderly
	default:
		return BucketSenior
	}
}

// VotingAge is the minimum age for voter eligibility.
const VotingAge = 18

// IsVoter reports whether an age makes a member voting-eligible. Unknown
// ages are never counted as voters.
func IsVoter(age int) bool {
	return age >= VotingAge
}

// Employment classification labels.
const (
	EmploymentEmployed   = "Employed"
	EmploymentUnemployed = "Unemployed"
)

// notEmployedKeywords are occupation values that do not count as
// employment. Matching is case-insensitive on the normalized value.
var notEmployedKeywords = map[string]struct{}{
	"student":    {},
	"house wife": {},
	"housewife":  {},
	"homemaker":  {},
	"unemployed": {},
	"retired":    {},
	"child":      {},
	"nil":        {},
	"none":       {},
}

// ClassifyEmployment buckets a free-text occupation into employed or
// unemployed. A blank occupation counts as unemployed.
func ClassifyEmployment(occupation string) string {
	norm := strings.ToLower(strings.TrimSpace(occupation))
	if norm == "" {
		return EmploymentUnemployed
	}
	if _, ok := notEmployedKeywords[norm]; ok {
		return EmploymentUnemployed
	}
	return EmploymentEmployed
}

// Default labels for unset member fields.
const (
	DefaultMaritalStatus = "Unmarried"
	DefaultBloodGroup    = "Unknown"
)

// withDefault rewrites the empty key of a distribution to the given label.
func withDefault(dist map[string]int, label string) map[string]int {
	if n, ok := dist[""]; ok {
		delete(dist, "")
		dist[label] += n
	}
	return dist
}
