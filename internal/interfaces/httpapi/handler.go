package httpapi

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/livescore-crawler/internal/catalog"
	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	"github.com/riskibarqy/livescore-crawler/internal/export/csvexport"
	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
	"github.com/riskibarqy/livescore-crawler/internal/usecase"
)

const (
	defaultGameCount = 10
	maxBatchTeams    = 20
	failedTeamsHdr   = "X-Failed-Teams"
)

type Handler struct {
	teamGamesService *usecase.TeamGamesService
	presets          *catalog.Catalog
	logger           *logging.Logger
}

func NewHandler(teamGamesService *usecase.TeamGamesService, presets *catalog.Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamGamesService: teamGamesService,
		presets:          presets,
		logger:           logger,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListTeamPresets(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamPresets")
	defer span.End()

	var teams []catalog.Team
	if h.presets != nil {
		teams = h.presets.Teams()
	}

	items := make([]teamPresetDTO, 0, len(teams))
	for _, team := range teams {
		items = append(items, teamPresetDTO{Name: team.Name, Slug: team.Slug, ID: team.ID})
	}
	writeSuccess(ctx, w, http.StatusOK, listDTO[teamPresetDTO]{Items: items})
}

func (h *Handler) GetTeamGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamGames")
	defer span.End()

	team := teamFromPath(r)
	count, err := parseCount(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateTeams(span, count, team)

	records, err := h.teamGamesService.GetTeamGames(ctx, team.Slug, team.ID, count)
	if err != nil {
		h.logger.WarnContext(ctx, "get team games failed", "team", team.String(), "count", count, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamGamesDTO{
		Team:  teamRefDTO{Slug: team.Slug, ID: team.ID},
		Count: count,
		Games: gamesFromRecords(records),
	})
}

func (h *Handler) DownloadTeamGamesCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DownloadTeamGamesCSV")
	defer span.End()

	team := teamFromPath(r)
	count, err := parseCount(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateTeams(span, count, team)

	records, err := h.teamGamesService.GetTeamGames(ctx, team.Slug, team.ID, count)
	if err != nil {
		h.logger.WarnContext(ctx, "download team games failed", "team", team.String(), "count", count, "error", err)
		writeError(ctx, w, err)
		return
	}

	setCSVHeaders(w, strings.TrimSpace(team.Slug)+"_games.csv")
	w.WriteHeader(http.StatusOK)
	if err := csvexport.Encode(w, records); err != nil {
		h.logger.ErrorContext(ctx, "write csv failed", "team", team.String(), "error", err)
	}
}

// DownloadGamesCSV exports several teams into one file. Teams that fail are listed in
// X-Failed-Teams; the request fails only when every team does.
func (h *Handler) DownloadGamesCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DownloadGamesCSV")
	defer span.End()

	teams, err := h.parseTeams(r.URL.Query()["team"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	count, err := parseCount(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateTeams(span, count, teams...)

	results, err := h.teamGamesService.GetManyTeamGames(ctx, teams, count)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch team games failed", "teams", len(teams), "error", err)
		writeError(ctx, w, err)
		return
	}

	exported := make([]csvexport.TeamRecords, 0, len(results))
	var failed []string
	var firstErr error
	for _, result := range results {
		if result.Err != nil {
			failed = append(failed, result.Team.String())
			if firstErr == nil {
				firstErr = result.Err
			}
			h.logger.WarnContext(ctx, "batch team lookup failed", "team", result.Team.String(), "error", result.Err)
			continue
		}
		exported = append(exported, csvexport.TeamRecords{Team: result.Team.String(), Records: result.Records})
	}
	if len(exported) == 0 {
		writeError(ctx, w, firstErr)
		return
	}

	if len(failed) > 0 {
		w.Header().Set(failedTeamsHdr, strings.Join(failed, ","))
	}
	setCSVHeaders(w, "games.csv")
	w.WriteHeader(http.StatusOK)
	if err := csvexport.EncodeTeams(w, exported); err != nil {
		h.logger.ErrorContext(ctx, "write batch csv failed", "error", err)
	}
}

// parseTeams accepts slug:id pairs, or a bare slug known to the preset catalog.
func (h *Handler) parseTeams(values []string) ([]match.TeamReference, error) {
	var teams []match.TeamReference
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}

			slug, teamID, ok := strings.Cut(item, ":")
			if !ok {
				if h.presets == nil {
					return nil, invalidInput(fmt.Errorf("team %q must be slug:id", item))
				}
				preset, found := h.presets.Lookup(item)
				if !found {
					return nil, invalidInput(fmt.Errorf("team %q is not a preset, use slug:id", item))
				}
				teams = append(teams, preset.Reference())
				continue
			}
			teams = append(teams, match.TeamReference{Slug: strings.TrimSpace(slug), ID: strings.TrimSpace(teamID)})
		}
	}

	if len(teams) == 0 {
		return nil, invalidInput(fmt.Errorf("at least one team query parameter is required"))
	}
	if len(teams) > maxBatchTeams {
		return nil, invalidInput(fmt.Errorf("at most %d teams per request, got %d", maxBatchTeams, len(teams)))
	}
	return teams, nil
}

func teamFromPath(r *http.Request) match.TeamReference {
	return match.TeamReference{
		Slug: strings.TrimSpace(r.PathValue("teamSlug")),
		ID:   strings.TrimSpace(r.PathValue("teamID")),
	}
}

func parseCount(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("count"))
	if raw == "" {
		return defaultGameCount, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidInput(fmt.Errorf("count must be a number, got %q", raw))
	}
	return count, nil
}

func invalidInput(err error) error {
	return usecase.NewFetchError(usecase.FetchInvalidInput, 0, err)
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", csvexport.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "no-store")
}
