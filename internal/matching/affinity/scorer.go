// internal/matching/affinity/scorer.go
package affinity

import (
	"math"
	"time"

	"edunet-workers/internal/matching/geo"
	"edunet-workers/internal/matching/weights"
	"edunet-workers/internal/models"
)

// Sub-score policy constants.
const (
	neutralScore           = 50.0
	minInteractionsSignal  = 5
	recentWindow           = 30 * 24 * time.Hour
	minSearchKeywordLength = 3
	maxReasons             = 4
	minReasons             = 3
	confidenceFullData     = 50.0
)

// Score computes the affinity of candidate for requester. It never
// fails: any panic during scoring is absorbed and replaced with the
// neutral result so one bad candidate cannot abort a deck build.
func Score(requester, candidate models.Profile, activity models.ActivityBundle, network models.NetworkOverlap, vector weights.Vector) (result models.AffinityResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.NeutralResult(candidate.ID)
		}
	}()

	now := time.Now()
	breakdown := map[string]float64{
		models.DimensionContent:  contentScore(requester, candidate, activity),
		models.DimensionBehavior: behaviorScore(candidate, activity, now),
		models.DimensionInterest: interestScore(requester, candidate, activity, now),
		models.DimensionGeo:      geoScore(requester, candidate),
		models.DimensionNetwork:  networkScore(network),
		models.DimensionSearch:   searchScore(candidate, activity, now),
	}

	var weighted float64
	for dim, sub := range breakdown {
		weighted += sub * vector[dim]
	}
	final := clamp(math.Round(weighted/100), 0, 100)

	return models.AffinityResult{
		CandidateID: candidate.ID,
		Score:       int(final),
		Breakdown:   breakdown,
		Reasons:     buildReasons(breakdown),
		Confidence:  confidence(activity),
	}
}

// contentScore compares what the requester publishes with what the
// candidate declares: post themes 40%, project types 40%,
// methodologies 20%.
func contentScore(requester, candidate models.Profile, activity models.ActivityBundle) float64 {
	var postThemes []string
	for _, p := range activity.Posts {
		postThemes = append(postThemes, p.Tags...)
		postThemes = append(postThemes, p.Themes...)
	}

	var projectTypes []string
	for _, pr := range activity.Projects {
		if pr.ProjectType != "" {
			projectTypes = append(projectTypes, pr.ProjectType)
		}
	}

	themes := overlapRatio(postThemes, candidate.Themes)
	types := overlapRatio(projectTypes, candidate.ProjectTypes)
	methods := overlapRatio(requester.Methodologies, candidate.Methodologies)

	return clamp(themes*0.4+types*0.4+methods*0.2, 0, 100)
}

// behaviorScore compares how the requester engages with how the
// candidate declares its engagement. Below five interactions there is
// not enough signal to say anything, so the neutral default applies.
func behaviorScore(candidate models.Profile, activity models.ActivityBundle, now time.Time) float64 {
	if len(activity.Interactions) < minInteractionsSignal {
		return neutralScore
	}

	var likedKeywords []string
	for _, ev := range activity.Interactions {
		if ev.Action == "like" || ev.Action == "save" {
			likedKeywords = append(likedKeywords, ev.Keywords...)
		}
	}
	candidateContent := append(append(append([]string{}, candidate.Tags...), candidate.Themes...), candidate.Interests...)
	liked := overlapRatio(likedKeywords, candidateContent)

	temporal := temporalSimilarity(activity.Interactions, candidate.Engagement, now)
	distribution := typeDistributionSimilarity(activity.Interactions, candidate.Engagement)

	return clamp(liked*0.5+temporal*0.3+distribution*0.2, 0, 100)
}

// temporalSimilarity compares the requester's observed rhythm against
// the candidate's declared pattern: daily volume 50%, peak hour 25%,
// peak weekday 25%.
func temporalSimilarity(events []models.InteractionEvent, declared *models.EngagementPattern, now time.Time) float64 {
	if declared == nil {
		return neutralScore
	}

	oldest := now
	hours := make(map[int]int)
	weekdays := make(map[int]int)
	for _, ev := range events {
		if ev.OccurredAt.Before(oldest) {
			oldest = ev.OccurredAt
		}
		hours[ev.OccurredAt.Hour()]++
		weekdays[int(ev.OccurredAt.Weekday())]++
	}

	days := now.Sub(oldest).Hours() / 24
	if days < 1 {
		days = 1
	}
	dailyAvg := float64(len(events)) / days

	volume := normalizedDifference(dailyAvg, declared.DailyAverage)

	peakH := modalKey(hours)
	hourGap := float64(abs(peakH - declared.PeakHour))
	if hourGap > 12 {
		hourGap = 24 - hourGap
	}
	hour := (1 - hourGap/12) * 100

	weekday := 0.0
	if modalKey(weekdays) == declared.PeakWeekday {
		weekday = 100
	}

	return volume*0.5 + hour*0.25 + weekday*0.25
}

// typeDistributionSimilarity compares like/comment/share/save counts
// with the candidate's declared counts as an averaged normalized
// difference.
func typeDistributionSimilarity(events []models.InteractionEvent, declared *models.EngagementPattern) float64 {
	if declared == nil || len(declared.TypeCounts) == 0 {
		return neutralScore
	}

	observed := make(map[string]int)
	for _, ev := range events {
		observed[ev.Action]++
	}

	actions := []string{"like", "comment", "share", "save"}
	var total float64
	for _, a := range actions {
		total += normalizedDifference(float64(observed[a]), float64(declared.TypeCounts[a]))
	}
	return total / float64(len(actions))
}

// interestScore compares declared tags 50%, tags of recently touched
// content 30%, declared interests 20%.
func interestScore(requester, candidate models.Profile, activity models.ActivityBundle, now time.Time) float64 {
	var recent []string
	cutoff := now.Add(-recentWindow)
	for _, ev := range activity.Interactions {
		if ev.OccurredAt.After(cutoff) {
			recent = append(recent, ev.Keywords...)
		}
	}

	tags := overlapRatio(requester.Tags, candidate.Tags)
	recentTags := overlapRatio(recent, candidate.Tags)
	interests := overlapRatio(requester.Interests, candidate.Interests)

	return clamp(tags*0.5+recentTags*0.3+interests*0.2, 0, 100)
}

func geoScore(requester, candidate models.Profile) float64 {
	return float64(geo.Proximity(
		geo.Location{City: requester.City, Province: requester.Province, Region: requester.Region},
		geo.Location{City: candidate.City, Province: candidate.Province, Region: candidate.Region},
	))
}

// networkScore awards up to 40 points for shared followers, 30 for
// shared followees and 30 for shared collaborators.
func networkScore(network models.NetworkOverlap) float64 {
	followers := math.Min(float64(network.CommonFollowers)*5, 40)
	followees := math.Min(float64(network.CommonFollowees)*4, 30)
	collaborators := math.Min(float64(network.CommonCollaborators)*10, 30)
	return followers + followees + collaborators
}

// searchScore measures how much of the requester's recent search
// intent the candidate satisfies. No recent searches means no signal,
// which scores neutral rather than zero.
func searchScore(candidate models.Profile, activity models.ActivityBundle, now time.Time) float64 {
	cutoff := now.Add(-recentWindow)
	haystack := tokenSet(append(append([]string{}, candidate.Tags...), candidate.Themes...))
	text := lower(candidate.Name) + " " + lower(candidate.Description)

	var total, matched int
	for _, sq := range activity.Searches {
		if sq.OccurredAt.Before(cutoff) {
			continue
		}
		for _, kw := range tokens(sq.Query) {
			if len([]rune(kw)) < minSearchKeywordLength {
				continue
			}
			total++
			if haystack[kw] || contains(text, kw) {
				matched++
			}
		}
	}
	if total == 0 {
		return neutralScore
	}
	return float64(matched) / float64(total) * 100
}

func confidence(activity models.ActivityBundle) int {
	c := activity.DataPoints() / confidenceFullData * 100
	return int(math.Min(100, c))
}

func modalKey(counts map[int]int) int {
	best, bestCount := 0, -1
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
