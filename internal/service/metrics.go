package service

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamehub_sessions_created_total",
			Help: "Sessions created, by game kind",
		},
		[]string{"game_kind"},
	)
	movesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamehub_moves_recorded_total",
			Help: "Moves recorded, by game kind",
		},
		[]string{"game_kind"},
	)
	sessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamehub_sessions_ended_total",
			Help: "Sessions reaching a terminal state, by game kind and result",
		},
		[]string{"game_kind", "result"},
	)
	sessionsAbandoned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamehub_sessions_abandoned_total",
			Help: "Sessions abandoned by the sweeper",
		},
	)
)

func init() {
	prometheus.MustRegister(sessionsCreated, movesRecorded, sessionsEnded, sessionsAbandoned)
}
