package stubapi

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var seedPeople = []struct {
	name, title, company, domain string
	score                        float64
	signal                       string
}{
	{"Ada Lovelace", "VP Engineering", "Analytical Engines", "analyticalengines.com", 91, "job_change"},
	{"Grace Hopper", "CTO", "Compiler Works", "compilerworks.io", 84, "funding"},
	{"Alan Turing", "Head of Data", "Enigma Labs", "enigmalabs.co", 77, "hiring"},
	{"Katherine Johnson", "Director of Operations", "Orbital Systems", "orbitalsystems.com", 68, "tech_install"},
	{"Edsger Dijkstra", "Engineering Manager", "Shortest Path", "shortestpath.dev", 55, "content_engagement"},
	{"Barbara Liskov", "VP Product", "Substitution Inc", "substitution.io", 43, "hiring"},
	{"Donald Knuth", "Principal Engineer", "Literate Software", "literate.software", 31, "job_change"},
	{"Margaret Hamilton", "CEO", "Apollo Guidance", "apolloguidance.com", 96, "funding"},
}

// Seed loads a demo profile and leads into an empty store. It is a no-op
// when any profile exists.
func Seed(ctx context.Context, s *Store) error {
	_, total, err := s.ListProfiles(ctx, ListParams{Page: 1, PerPage: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	form := icp.NewFormData()
	form.Name = "Engineering leaders at funded startups"
	form.Description = "Demo profile loaded by the stub server."
	form.Definition.Seniority = []string{"VP", "Director", "C-Suite"}
	form.Definition.Functional = []string{"engineering"}
	form.Definition.FundingType = []string{"series_a", "series_b"}
	form.Definition.CompanyEmployeeSize = []string{"51-200", "201-500"}
	p, err := s.CreateProfile(ctx, form)
	if err != nil {
		return eris.Wrap(err, "stubapi: seed profile")
	}

	detected := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	for i, person := range seedPeople {
		_, err := s.CreateLead(ctx, leadwatcher.Lead{
			FullName:       person.name,
			Title:          person.title,
			CompanyName:    person.company,
			CompanyDomain:  person.domain,
			LinkedInURL:    fmt.Sprintf("https://www.linkedin.com/in/seed-%d", i+1),
			Score:          person.score,
			ICPProfileID:   p.ID,
			DiscoveryScope: "icp",
			Signals: []leadwatcher.Signal{{
				Type:       person.signal,
				Title:      fmt.Sprintf("%s at %s", icp.Humanize(person.signal), person.company),
				Strength:   person.score / 100,
				DetectedAt: &detected,
			}},
		})
		if err != nil {
			return eris.Wrapf(err, "stubapi: seed lead %s", person.name)
		}
	}
	return nil
}
