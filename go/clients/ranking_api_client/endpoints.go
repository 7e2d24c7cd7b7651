package ranking_api_client

const (
	// RankingEndpoint serves one game's leaderboard for a time window
	RankingEndpoint = "/api/ranking"

	// Query parameters
	CodeParam  = "code"
	StartParam = "start"
	EndParam   = "end"

	// Headers
	AcceptHeader = "Accept"
	JSONMimeType = "application/json"
)
