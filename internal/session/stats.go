package session

import (
	"fmt"
	"strings"
	"time"
)

// Stats is a point-in-time summary of the session for control surfaces.
type Stats struct {
	Faces          int       `json:"faces"`
	ActiveFeatures int       `json:"active_features"`
	TotalFeatures  int       `json:"total_features"`
	Features       []string  `json:"features"`
	ScaleFactor    float64   `json:"scale_factor"`
	Snapshots      int       `json:"snapshots"`
	Active         bool      `json:"active"`
	AverageFaces   float64   `json:"average_faces"`
	Timestamp      time.Time `json:"timestamp"`
}

// Stats captures the current session summary.
func (s *State) Stats() Stats {
	settings := s.Settings()
	return Stats{
		Faces:          s.FaceCount(),
		ActiveFeatures: settings.Features.Count(),
		TotalFeatures:  int(numFeatures),
		Features:       settings.Features.EnabledNames(),
		ScaleFactor:    settings.ScaleFactor,
		Snapshots:      s.SnapshotCount(),
		Active:         s.Active(),
		AverageFaces:   s.history.Average(),
		Timestamp:      time.Now(),
	}
}

// Status returns "ACTIVE" while capturing and "READY" otherwise.
func (st Stats) Status() string {
	if st.Active {
		return "ACTIVE"
	}
	return "READY"
}

// Lines returns the summary as short labelled lines.
func (st Stats) Lines() []string {
	return []string{
		fmt.Sprintf("Faces Detected: %d", st.Faces),
		fmt.Sprintf("Active Features: %d/%d", st.ActiveFeatures, st.TotalFeatures),
		fmt.Sprintf("Detection Scale: %.2f", st.ScaleFactor),
		fmt.Sprintf("Snapshots Taken: %d", st.Snapshots),
		fmt.Sprintf("Status: %s", st.Status()),
	}
}

// Report renders the summary as a boxed text block.
func (st Stats) Report() string {
	const width = 38

	var b strings.Builder
	b.WriteString("╔" + strings.Repeat("═", width) + "╗\n")
	b.WriteString(fmt.Sprintf("║%-*s║\n", width, center("REAL-TIME STATS", width)))
	b.WriteString("╠" + strings.Repeat("═", width) + "╣\n")
	for _, line := range st.Lines() {
		b.WriteString(fmt.Sprintf("║ %-*s║\n", width-1, line))
	}
	b.WriteString("╚" + strings.Repeat("═", width) + "╝\n")
	return b.String()
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad/2) + s
}
