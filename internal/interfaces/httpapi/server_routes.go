package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerTeamGamesRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams/presets", handler.ListTeamPresets)
	mux.HandleFunc("GET /v1/teams/{teamSlug}/{teamID}/games", handler.GetTeamGames)
	mux.HandleFunc("GET /v1/teams/{teamSlug}/{teamID}/games.csv", handler.DownloadTeamGamesCSV)
	mux.HandleFunc("GET /v1/games.csv", handler.DownloadGamesCSV)
}
