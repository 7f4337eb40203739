package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/scope"
)

// maxTopOccupations bounds the occupation leaderboard.
const maxTopOccupations = 10

// OccupationCount is one row of the occupation leaderboard.
type OccupationCount struct {
	Occupation string `json:"occupation"`
	Count      int    `json:"count"`
}

// EmploymentStats splits members by occupation classification.
type EmploymentStats struct {
	Employed   int `json:"employed"`
	Unemployed int `json:"unemployed"`
}

// VoterStats splits members by voting eligibility. The split is binary:
// members without a recorded age count as non-voters.
type VoterStats struct {
	Voters    int `json:"voters"`
	NonVoters int `json:"non_voters"`
}

// Demographics is the scoped demographic report.
type Demographics struct {
	LocationName   string            `json:"location_name"`
	Gender         map[string]int    `json:"gender"`
	AgeBuckets     map[string]int    `json:"age_buckets"`
	MaritalStatus  map[string]int    `json:"marital_status"`
	BloodGroups    map[string]int    `json:"blood_groups"`
	Employment     EmploymentStats   `json:"employment"`
	Voters         VoterStats        `json:"voters"`
	TopOccupations []OccupationCount `json:"top_occupations"`
}

// Demographics computes the demographic report for a resolved scope.
func (s *Service) Demographics(ctx context.Context, sc *scope.Scope) (*Demographics, error) {
	out := &Demographics{LocationName: sc.LocationName}

	gender, err := s.members.AggregateField(ctx, sc.Predicate, member.FieldGender)
	if err != nil {
		return nil, fmt.Errorf("aggregate gender: %w", err)
	}
	out.Gender = withDefault(gender, "Unknown")

	ages, err := s.members.AggregateField(ctx, sc.Predicate, member.FieldAge)
	if err != nil {
		return nil, fmt.Errorf("aggregate ages: %w", err)
	}
	out.AgeBuckets, out.Voters = bucketAges(ages)

	marital, err := s.members.AggregateField(ctx, sc.Predicate, member.FieldMaritalStatus)
	if err != nil {
		return nil, fmt.Errorf("aggregate marital status: %w", err)
	}
	out.MaritalStatus = withDefault(marital, DefaultMaritalStatus)

	blood, err := s.members.AggregateField(ctx, sc.Predicate, member.FieldBloodGroup)
	if err != nil {
		return nil, fmt.Errorf("aggregate blood groups: %w", err)
	}
	out.BloodGroups = withDefault(blood, DefaultBloodGroup)

	occupations, err := s.members.AggregateField(ctx, sc.Predicate, member.FieldOccupation)
	if err != nil {
		return nil, fmt.Errorf("aggregate occupations: %w", err)
	}
	out.Employment = classifyOccupations(occupations)
	out.TopOccupations = topOccupations(occupations)

	return out, nil
}

// bucketAges folds a raw age distribution into display buckets and voter
// eligibility counts. Keys are decimal ages; blank or malformed keys land
// in the unknown display bucket and count as non-voters.
func bucketAges(ages map[string]int) (map[string]int, VoterStats) {
	buckets := make(map[string]int, len(AgeBuckets))
	var voters VoterStats
	for raw, n := range ages {
		age, err := strconv.Atoi(raw)
		if raw == "" || err != nil {
			age = 0
		}
		buckets[AgeBucket(age)] += n
		if IsVoter(age) {
			voters.Voters += n
		} else {
			voters.NonVoters += n
		}
	}
	return buckets, voters
}

func classifyOccupations(occupations map[string]int) EmploymentStats {
	var stats EmploymentStats
	for occ, n := range occupations {
		if ClassifyEmployment(occ) == EmploymentEmployed {
			stats.Employed += n
		} else {
			stats.Unemployed += n
		}
	}
	return stats
}

// topOccupations ranks occupations held by employed members, merging
// case-insensitive duplicates under their trimmed lower-case form.
func topOccupations(occupations map[string]int) []OccupationCount {
	merged := make(map[string]int)
	for occ, n := range occupations {
		if ClassifyEmployment(occ) != EmploymentEmployed {
			continue
		}
		merged[strings.ToLower(strings.TrimSpace(occ))] += n
	}
	out := make([]OccupationCount, 0, len(merged))
	for occ, n := range merged {
		out = append(out, OccupationCount{Occupation: occ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Occupation < out[j].Occupation
	})
	if len(out) > maxTopOccupations {
		out = out[:maxTopOccupations]
	}
	return out
}
