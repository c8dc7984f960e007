package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	XPAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xp_awarded_total",
			Help: "Total XP credited through add-xp, by source",
		},
		[]string{"source"},
	)
	XPRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xp_rejected_total",
			Help: "Add-xp calls rejected by the anti-cheat gate, by source",
		},
		[]string{"source"},
	)
	LeaderboardSyncs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leaderboard_syncs_total",
			Help: "Total successful sync-xp calls",
		},
	)
	XPHistoryDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "xp_history_dropped_total",
			Help: "XP history records dropped because the queue was full or the write failed",
		},
	)
)

func init() {
	prometheus.MustRegister(XPAwarded)
	prometheus.MustRegister(XPRejected)
	prometheus.MustRegister(LeaderboardSyncs)
	prometheus.MustRegister(XPHistoryDropped)
}
