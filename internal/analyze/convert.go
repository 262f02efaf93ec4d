package analyze

import (
	"strings"
	"time"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// providerDateLayouts are the date formats seen in provider experience
// entries, most specific first.
var providerDateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"2006",
}

// parseProviderDate parses one provider date string. "Present", "Current",
// empty, and unparseable values all mean an open range and return nil.
func parseProviderDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "present") || strings.EqualFold(s, "current") {
		return nil
	}
	for _, layout := range providerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func isPresent(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "present") || strings.EqualFold(s, "current")
}

// FromRecord converts a raw provider record into the canonical profile.
// Experience entries keep their provider order. Records whose experience
// array carries no current entry fall back to the flat position and
// current-company fields, which become a synthesized current entry.
func FromRecord(rec *brightdata.PersonRecord) *model.PersonProfile {
	p := &model.PersonProfile{
		ID:              rec.ID,
		FullName:        rec.Name,
		LinkedInURL:     rec.URL,
		Email:           rec.Email,
		Phone:           rec.Phone,
		Location:        rec.City,
		Connections:     rec.Connections,
		Recommendations: rec.Recommendations,
	}

	hasCurrent := false
	for _, exp := range rec.Experience {
		current := exp.Current || isPresent(exp.EndDate)
		if current {
			hasCurrent = true
		}
		p.Experience = append(p.Experience, model.Experience{
			Company:   strings.TrimSpace(exp.Company),
			Title:     strings.TrimSpace(exp.Title),
			StartDate: parseProviderDate(exp.StartDate),
			EndDate:   parseProviderDate(exp.EndDate),
			Current:   current,
		})
	}

	if !hasCurrent && (rec.CurrentCompany.Name != "" || rec.Position != "") {
		title := rec.CurrentCompany.Title
		if title == "" {
			title = rec.Position
		}
		p.Experience = append(p.Experience, model.Experience{
			Company: strings.TrimSpace(rec.CurrentCompany.Name),
			Title:   strings.TrimSpace(title),
			Current: true,
		})
	}

	return p
}
