package domain

// KindTally is the per-gameKind slice of the sessions overview.
type KindTally struct {
	GameKind  GameKind `json:"gameKind"`
	Total     int64    `json:"total"`
	Completed int64    `json:"completed"`
	Active    int64    `json:"active"`
	Waiting   int64    `json:"waiting"`
	Abandoned int64    `json:"abandoned"`
}

// SessionOverview is computed on demand by a grouping query; nothing here is
// stored state.
type SessionOverview struct {
	TotalSessions   int64       `json:"totalSessions"`
	ActiveSessions  int64       `json:"activeSessions"`
	WaitingSessions int64       `json:"waitingSessions"`
	ByKind          []KindTally `json:"gameKindStats"`
}
