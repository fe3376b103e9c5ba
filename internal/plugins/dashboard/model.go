// Package dashboard builds the teacher's class overview: every student's
// most recent conversation mood, classified into the four mood quadrants.
package dashboard

import (
	"time"

	"github.com/kindmind/kindmind/internal/plugins/coach"
)

// Entry is one student on the dashboard. Defaulted is true when the mood
// phrase could not be classified and fell back to the low-energy unpleasant
// quadrant.
type Entry struct {
	StudentName string    `json:"student_name"`
	Mood        string    `json:"mood"`
	RecordedAt  time.Time `json:"recorded_at"`
	Defaulted   bool      `json:"defaulted"`
}

// Overview is the full dashboard: students bucketed by quadrant. Every
// quadrant key is present even when empty. Students with no completed
// conversation do not appear at all.
type Overview struct {
	Quadrants   map[coach.Quadrant][]Entry `json:"quadrants"`
	GeneratedAt time.Time                  `json:"generated_at"`
}
