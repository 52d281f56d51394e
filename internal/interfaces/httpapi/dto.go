package httpapi

import "github.com/riskibarqy/livescore-crawler/internal/domain/match"

type listDTO[T any] struct {
	Items []T `json:"items"`
}

type teamPresetDTO struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	ID   string `json:"id"`
}

type teamRefDTO struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
}

type teamGamesDTO struct {
	Team  teamRefDTO `json:"team"`
	Count int        `json:"count"`
	Games []gameDTO  `json:"games"`
}

type gameDTO struct {
	Date        string `json:"date"`
	HomeTeam    string `json:"homeTeam"`
	AwayTeam    string `json:"awayTeam"`
	Score       string `json:"score"`
	HomeGoals   *int   `json:"homeGoals,omitempty"`
	AwayGoals   *int   `json:"awayGoals,omitempty"`
	Competition string `json:"competition"`
	Stage       string `json:"stage"`
	Status      string `json:"status"`
}

func gamesFromRecords(records []match.Record) []gameDTO {
	out := make([]gameDTO, 0, len(records))
	for _, record := range records {
		item := gameDTO{
			Date:        record.KickoffText(),
			HomeTeam:    record.HomeTeam,
			AwayTeam:    record.AwayTeam,
			Score:       record.Score.String(),
			Competition: record.Competition,
			Stage:       record.Stage,
			Status:      string(record.Status),
		}
		if record.Score.Played {
			home, away := record.Score.Home, record.Score.Away
			item.HomeGoals = &home
			item.AwayGoals = &away
		}
		out = append(out, item)
	}
	return out
}
