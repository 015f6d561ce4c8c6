// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the scoring engine.
var (
	// Scoring.
	ScoringRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_runs_total",
			Help: "Total scoring passes by event kind and outcome",
		},
		[]string{"kind", "status"},
	)

	SubmissionsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_submissions_processed_total",
			Help: "Logical submissions processed by a scoring pass",
		},
		[]string{"kind", "status"}, // status: ok, skipped, failed
	)

	DuplicateSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_duplicate_submissions_total",
			Help: "Stored rows superseded by a newer row for the same user",
		},
		[]string{"kind"},
	)

	DroppedSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_dropped_submissions_total",
			Help: "Stored rows discarded because they carry no user",
		},
		[]string{"kind"},
	)

	ScoringDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Time taken by a scoring pass",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"kind"},
	)

	// Badges.
	BadgeGrantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_grants_total",
			Help: "Badge grant attempts by badge and outcome",
		},
		[]string{"badge", "status"},
	)

	// Standings.
	RecomputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standings_recomputations_total",
			Help: "Per-user total recomputations by outcome",
		},
		[]string{"status"},
	)

	RecomputeDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "standings_recompute_duration_seconds",
			Help:    "Time taken to recompute a batch of users",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	LeaderboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_requests_total",
			Help: "Leaderboard cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	// Intake.
	SubmissionsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_received_total",
			Help: "Predictions and bonus responses received by outcome",
		},
		[]string{"kind", "status"}, // status: created, updated, rejected, locked
	)

	// Scheduler.
	EventsLockedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_events_locked_total",
			Help: "Events moved to locked by the scheduler",
		},
	)

	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)

	SchedulerLastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
		[]string{"job"},
	)

	SchedulerJobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Time taken to execute a scheduler job",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)

	// Notifications.
	AnnouncementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "announcements_total",
			Help: "Scoring announcements sent to Mattermost by outcome",
		},
		[]string{"status"},
	)
)

// RecordScoringRun records one scoring pass.
func RecordScoringRun(kind, status string, d time.Duration) {
	ScoringRunsTotal.WithLabelValues(kind, status).Inc()
	ScoringDurationSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordSubmissions adds per-status submission counts of a pass.
func RecordSubmissions(kind string, ok, skipped, failed int) {
	SubmissionsProcessedTotal.WithLabelValues(kind, "ok").Add(float64(ok))
	SubmissionsProcessedTotal.WithLabelValues(kind, "skipped").Add(float64(skipped))
	SubmissionsProcessedTotal.WithLabelValues(kind, "failed").Add(float64(failed))
}

// RecordDeduplication records superseded and dropped rows of a pass.
func RecordDeduplication(kind string, superseded, dropped int) {
	DuplicateSubmissionsTotal.WithLabelValues(kind).Add(float64(superseded))
	DroppedSubmissionsTotal.WithLabelValues(kind).Add(float64(dropped))
}

// RecordBadgeGrant records a badge grant attempt.
func RecordBadgeGrant(badge, status string) {
	BadgeGrantsTotal.WithLabelValues(badge, status).Inc()
}

// RecordRecomputation records per-user recomputation outcomes of a batch.
func RecordRecomputation(ok, failed int, d time.Duration) {
	RecomputationsTotal.WithLabelValues("ok").Add(float64(ok))
	RecomputationsTotal.WithLabelValues("failed").Add(float64(failed))
	RecomputeDurationSeconds.Observe(d.Seconds())
}

// RecordLeaderboardCache records a cache lookup result.
func RecordLeaderboardCache(result string) {
	LeaderboardCacheTotal.WithLabelValues(result).Inc()
}

// RecordSubmissionReceived records an intake request.
func RecordSubmissionReceived(kind, status string) {
	SubmissionsReceivedTotal.WithLabelValues(kind, status).Inc()
}

// RecordEventsLocked adds events locked by the scheduler.
func RecordEventsLocked(n int64) {
	EventsLockedTotal.Add(float64(n))
}

// RecordSchedulerJob records a scheduler job run.
func RecordSchedulerJob(job, status string, d time.Duration) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
	SchedulerJobDurationSeconds.WithLabelValues(job).Observe(d.Seconds())
	SchedulerLastRunTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// RecordAnnouncement records a Mattermost announcement attempt.
func RecordAnnouncement(status string) {
	AnnouncementsTotal.WithLabelValues(status).Inc()
}
