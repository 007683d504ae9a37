package service

import (
	"context"
	"math"
	"time"

	"github.com/desaconnect/complaint-service/internal/domain"
	"github.com/desaconnect/complaint-service/internal/repository"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

// StatusCounts carries a count per status. All three keys are always
// present, zero when empty.
type StatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

// MonthlyTrend is one calendar-month bucket of the current year.
type MonthlyTrend struct {
	Month      string `json:"month"`
	Total      int    `json:"total"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"inProgress"`
	Resolved   int    `json:"resolved"`
}

// ProcessingTime exposes the average durations and their denominators.
type ProcessingTime struct {
	AverageResolutionDays float64 `json:"averageResolutionDays"`
	AverageResponseDays   float64 `json:"averageResponseDays"`
	ResolvedCount         int     `json:"resolvedCount"`
	RespondedCount        int     `json:"respondedCount"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	Total          int            `json:"total"`
	ByStatus       StatusCounts   `json:"byStatus"`
	ByCategory     map[string]int `json:"byCategory"`
	MonthlyTrends  []MonthlyTrend `json:"monthlyTrends"`
	ProcessingTime ProcessingTime `json:"processingTime"`
}

// StatsService computes dashboard aggregates with a synchronous full
// scan per call. Fine at village-scale volumes; incremental aggregation
// is deliberately out of scope.
type StatsService struct {
	submissions repository.SubmissionRepository
	now         func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(submissions repository.SubmissionRepository) *StatsService {
	return &StatsService{submissions: submissions, now: time.Now}
}

// WithClock overrides the time source. Used by tests to pin the
// "current year" for trend buckets.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// ComputeStats reduces the full submission set into counts, monthly
// trend buckets and average processing times.
//
// "Response" is approximated: once a submission's status has left
// pending, updated_at stands in for the first admin response. Any
// mutation counts, so a bare priority flip registers as a response.
// No better signal exists in the data model.
func (s *StatsService) ComputeStats(ctx context.Context) (*Stats, error) {
	all, err := s.submissions.All(ctx)
	if err != nil {
		return nil, apperrors.NewDependencyFailure(err)
	}

	stats := &Stats{
		Total:         len(all),
		ByCategory:    make(map[string]int),
		MonthlyTrends: make([]MonthlyTrend, 12),
	}
	for i := 0; i < 12; i++ {
		stats.MonthlyTrends[i].Month = time.Month(i + 1).String()[:3]
	}
	currentYear := s.now().Year()

	var resolutionSum, responseSum float64

	for i := range all {
		sub := &all[i]

		switch sub.Status {
		case domain.StatusPending:
			stats.ByStatus.Pending++
		case domain.StatusInProgress:
			stats.ByStatus.InProgress++
		case domain.StatusResolved:
			stats.ByStatus.Resolved++
		}
		stats.ByCategory[sub.Category]++

		if sub.CreatedAt.Year() == currentYear {
			bucket := &stats.MonthlyTrends[int(sub.CreatedAt.Month())-1]
			bucket.Total++
			switch sub.Status {
			case domain.StatusPending:
				bucket.Pending++
			case domain.StatusInProgress:
				bucket.InProgress++
			case domain.StatusResolved:
				bucket.Resolved++
			}
		}

		// Records with unusable timestamps are skipped, never fatal.
		if sub.CreatedAt.IsZero() || sub.UpdatedAt.IsZero() {
			continue
		}
		days := sub.UpdatedAt.Sub(sub.CreatedAt).Hours() / 24
		if days < 0 {
			// clock skew guard
			days = 0
		}
		if sub.Status == domain.StatusResolved {
			resolutionSum += days
			stats.ProcessingTime.ResolvedCount++
		}
		if sub.Status != domain.StatusPending {
			responseSum += days
			stats.ProcessingTime.RespondedCount++
		}
	}

	if stats.ProcessingTime.ResolvedCount > 0 {
		stats.ProcessingTime.AverageResolutionDays = round1(resolutionSum / float64(stats.ProcessingTime.ResolvedCount))
	}
	if stats.ProcessingTime.RespondedCount > 0 {
		stats.ProcessingTime.AverageResponseDays = round1(responseSum / float64(stats.ProcessingTime.RespondedCount))
	}

	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
