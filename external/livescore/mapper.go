package livescore

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
)

// Matches running-clock markers such as 45', 90+3' and 67.
var minuteMarkerRegex = regexp.MustCompile(`^\d{1,3}(\+\d{1,2})?'?$`)

var kickoffLayouts = []string{
	"20060102150405",
	"200601021504",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// mapBatch flattens the competition groups into at most limit records, keeping the
// provider order.
func mapBatch(groups []matchTypeGroup, limit int) match.Batch {
	out := match.Batch{Records: make([]match.Record, 0, limit)}
	for _, group := range groups {
		competition := textOr(group.CompN, match.Unavailable)
		stage := textOr(group.Snm, match.Unavailable)
		for _, item := range group.Events {
			if len(out.Records) >= limit {
				return out
			}
			record, ok := mapEvent(item, competition, stage)
			if !ok {
				out.Skipped++
				continue
			}
			out.Records = append(out.Records, record)
		}
	}
	return out
}

func mapEvent(item eventItem, competition, stage string) (match.Record, bool) {
	if item.malformed {
		return match.Record{}, false
	}

	home := participantName(item.T1)
	away := participantName(item.T2)
	if home == "" && away == "" {
		return match.Record{}, false
	}

	kickoff, known := parseKickoff(item.Esd.String())
	return match.Record{
		Kickoff:      kickoff,
		KickoffKnown: known,
		HomeTeam:     textOr(home, match.Unavailable),
		AwayTeam:     textOr(away, match.Unavailable),
		Score:        parseScore(item.Tr1.String(), item.Tr2.String()),
		Competition:  competition,
		Stage:        stage,
		Status:       mapStatus(item.Eps.String()),
	}, true
}

func participantName(items []participant) string {
	if len(items) == 0 {
		return ""
	}
	return strings.TrimSpace(items[0].Nm)
}

func parseKickoff(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range kickoffLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseScore(home, away string) match.Score {
	h, okHome := parseGoals(home)
	a, okAway := parseGoals(away)
	if !okHome || !okAway {
		return match.Score{}
	}
	return match.PlayedScore(h, a)
}

func parseGoals(raw string) (int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}
	goals, err := strconv.Atoi(value)
	if err != nil || goals < 0 {
		return 0, false
	}
	return goals, true
}

func mapStatus(raw string) match.Status {
	code := strings.ToUpper(strings.TrimSpace(raw))
	code = strings.TrimSuffix(code, ".")

	switch code {
	case "FT", "AET", "AP", "PEN", "AFTER PEN", "FT_PEN", "AWD", "WO":
		return match.StatusFinished
	case "HT", "ET", "BT", "1H", "2H", "LIVE", "INT", "PEN LIVE":
		return match.StatusInProgress
	case "NS", "TBA", "TBD":
		return match.StatusScheduled
	case "POSTP", "PST", "POSTPONED", "DEL":
		return match.StatusPostponed
	case "CANC", "CANCL", "CANCELLED", "ABAND", "ABD", "ABANDONED":
		return match.StatusCancelled
	}
	if code != "" && minuteMarkerRegex.MatchString(code) {
		return match.StatusInProgress
	}
	return match.StatusUnknown
}

func textOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
