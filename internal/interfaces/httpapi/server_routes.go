package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPoolRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/rounds", handler.ListRounds)
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}", handler.GetFixture)
	mux.HandleFunc("PUT /v1/fixtures/{fixtureID}/picks/{participantID}", handler.SubmitPick)
	mux.HandleFunc("POST /v1/participants/{participantID}/picks", handler.SubmitPicks)
	mux.HandleFunc("GET /v1/participants/{participantID}/picks", handler.ListParticipantPicks)
	mux.HandleFunc("GET /v1/participants/{participantID}/picks.csv", handler.ExportParticipantPicks)
	mux.HandleFunc("GET /v1/standings", handler.GetStandings)
	mux.HandleFunc("GET /v1/standings.csv", handler.ExportStandings)
	mux.HandleFunc("GET /v1/scores", handler.ListScores)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("PUT /v1/admin/fixtures/{fixtureID}/result", RequireAdminSecret(http.HandlerFunc(handler.RecordResult)))
	mux.Handle("POST /v1/admin/results", RequireAdminSecret(http.HandlerFunc(handler.RecordResults)))
}
