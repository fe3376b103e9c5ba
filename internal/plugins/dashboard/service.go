package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/kindmind/kindmind/internal/plugins/coach"
	"github.com/kindmind/kindmind/internal/plugins/journal"
)

// MoodSource supplies each student's latest completed conversation mood.
type MoodSource interface {
	LatestPerAccount(ctx context.Context) ([]journal.LatestMood, error)
}

// CredentialChecker reports whether a provider credential is configured.
// The dashboard refuses to run without one rather than silently bucketing
// every student into the fallback quadrant.
type CredentialChecker interface {
	APIKey(ctx context.Context) (string, error)
}

// DashboardService computes the class overview.
type DashboardService interface {
	Overview(ctx context.Context) (*Overview, error)
}

type dashboardService struct {
	moods   MoodSource
	gateway coach.Gateway
	creds   CredentialChecker
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(moods MoodSource, gateway coach.Gateway, creds CredentialChecker) DashboardService {
	return &dashboardService{moods: moods, gateway: gateway, creds: creds}
}

func (s *dashboardService) Overview(ctx context.Context) (*Overview, error) {
	if _, err := s.creds.APIKey(ctx); err != nil {
		return nil, err
	}

	latest, err := s.moods.LatestPerAccount(ctx)
	if err != nil {
		return nil, err
	}

	// Classify every mood phrase concurrently. ClassifyMood never fails;
	// unclassifiable phrases come back as the defaulted fallback quadrant.
	results := make([]coach.Classification, len(latest))
	var wg sync.WaitGroup
	for i, l := range latest {
		wg.Add(1)
		go func(i int, moodText string) {
			defer wg.Done()
			results[i] = s.gateway.ClassifyMood(ctx, moodText)
		}(i, l.Mood)
	}
	wg.Wait()

	overview := &Overview{
		Quadrants:   make(map[coach.Quadrant][]Entry, 4),
		GeneratedAt: time.Now().UTC(),
	}
	for _, q := range coach.Quadrants() {
		overview.Quadrants[q] = []Entry{}
	}
	for i, l := range latest {
		c := results[i]
		overview.Quadrants[c.Quadrant] = append(overview.Quadrants[c.Quadrant], Entry{
			StudentName: l.StudentName,
			Mood:        l.Mood,
			RecordedAt:  l.CreatedAt,
			Defaulted:   c.Defaulted,
		})
	}
	return overview, nil
}
