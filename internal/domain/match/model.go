package match

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the normalized state of a match.
type Status string

const (
	StatusFinished   Status = "FT"
	StatusInProgress Status = "LIVE"
	StatusScheduled  Status = "NS"
	StatusPostponed  Status = "POSTP"
	StatusCancelled  Status = "CANC"
	StatusUnknown    Status = "UNKNOWN"
)

const (
	// NotPlayed is the rendered score of a match without a final or running result.
	NotPlayed = "vs"
	// UnknownKickoff is the rendered date of a match whose kickoff could not be parsed.
	UnknownKickoff = "unknown"
	// Unavailable fills text columns the provider left empty.
	Unavailable = "N/A"

	KickoffLayout = time.RFC3339
	scoreSep      = "–"
)

// TeamReference identifies a team the way provider URLs do, e.g. west-ham-united/252.
type TeamReference struct {
	Slug string
	ID   string
}

func (t TeamReference) Validate() error {
	if strings.TrimSpace(t.Slug) == "" {
		return fmt.Errorf("team slug is required")
	}
	id := strings.TrimSpace(t.ID)
	if id == "" {
		return fmt.Errorf("team id is required")
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("team id must be numeric, got %q", t.ID)
	}
	return nil
}

func (t TeamReference) String() string {
	return t.Slug + "/" + t.ID
}

// Score is a pair of goals, or the not-played sentinel when Played is false.
type Score struct {
	Home   int
	Away   int
	Played bool
}

func PlayedScore(home, away int) Score {
	return Score{Home: home, Away: away, Played: true}
}

func (s Score) String() string {
	if !s.Played {
		return NotPlayed
	}
	return strconv.Itoa(s.Home) + scoreSep + strconv.Itoa(s.Away)
}

// ParseScore reverses Score.String.
func ParseScore(raw string) (Score, error) {
	value := strings.TrimSpace(raw)
	if value == NotPlayed {
		return Score{}, nil
	}
	home, away, ok := strings.Cut(value, scoreSep)
	if !ok {
		return Score{}, fmt.Errorf("invalid score %q", raw)
	}
	h, err := strconv.Atoi(strings.TrimSpace(home))
	if err != nil {
		return Score{}, fmt.Errorf("invalid home score %q: %w", home, err)
	}
	a, err := strconv.Atoi(strings.TrimSpace(away))
	if err != nil {
		return Score{}, fmt.Errorf("invalid away score %q: %w", away, err)
	}
	return PlayedScore(h, a), nil
}

// Record is one normalized match result row. Values are copied, never shared.
type Record struct {
	Kickoff      time.Time
	KickoffKnown bool
	HomeTeam     string
	AwayTeam     string
	Score        Score
	Competition  string
	Stage        string
	Status       Status
}

func (r Record) KickoffText() string {
	if !r.KickoffKnown {
		return UnknownKickoff
	}
	return r.Kickoff.UTC().Format(KickoffLayout)
}

// Batch is one fetch worth of records in provider order plus how many upstream
// entries were dropped as malformed.
type Batch struct {
	Records []Record
	Skipped int
}
