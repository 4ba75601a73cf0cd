package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AreaPriority ranks a service area by how aggressively it is targeted.
type AreaPriority string

const (
	AreaPrimary   AreaPriority = "primary"
	AreaSecondary AreaPriority = "secondary"
	AreaExpansion AreaPriority = "expansion"
)

// ServiceArea is an additional market the business serves beyond its
// primary location.
type ServiceArea struct {
	City     string       `json:"city"`
	State    string       `json:"state"`
	ZipCodes []string     `json:"zip_codes,omitempty"`
	Priority AreaPriority `json:"priority"`
}

// Location is the business's primary physical location.
type Location struct {
	City    string   `json:"city"`
	State   string   `json:"state"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// BusinessProfile describes the business being scanned for AI visibility.
// Profiles are owned by the user that created them and are mutated only
// via an idempotent upsert keyed on (user, normalized domain).
type BusinessProfile struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"user_id"`
	Name                string        `json:"name"`
	Domain              string        `json:"domain"`
	Location            Location      `json:"location"`
	ServiceAreas        []ServiceArea `json:"service_areas,omitempty"`
	ServiceRadiusMiles  int           `json:"service_radius_miles,omitempty"`
	Categories          []string      `json:"categories"`
	Neighborhoods       []string      `json:"neighborhoods,omitempty"`
	BrandSynonyms       []string      `json:"brand_synonyms,omitempty"`
	CompetitorOverrides []string      `json:"competitor_overrides,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// FieldError is a single per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the profile's required fields and returns one message
// per problem. An empty slice means the profile is well-formed.
func (p *BusinessProfile) Validate() []FieldError {
	var errs []FieldError

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "business name is required"})
	}
	if strings.TrimSpace(p.Domain) == "" {
		errs = append(errs, FieldError{Field: "domain", Message: "website domain is required"})
	}
	if strings.TrimSpace(p.Location.City) == "" {
		errs = append(errs, FieldError{Field: "location.city", Message: "city is required"})
	}
	if strings.TrimSpace(p.Location.State) == "" {
		errs = append(errs, FieldError{Field: "location.state", Message: "state is required"})
	}
	if len(p.Categories) == 0 {
		errs = append(errs, FieldError{Field: "categories", Message: "at least one category is required"})
	}
	if p.ServiceRadiusMiles < 0 {
		errs = append(errs, FieldError{Field: "service_radius_miles", Message: "service radius must not be negative"})
	}

	for i, sa := range p.ServiceAreas {
		if strings.TrimSpace(sa.City) == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("service_areas[%d].city", i), Message: "city is required"})
		}
		switch sa.Priority {
		case AreaPrimary, AreaSecondary, AreaExpansion:
		case "":
			errs = append(errs, FieldError{Field: fmt.Sprintf("service_areas[%d].priority", i), Message: "priority is required"})
		default:
			errs = append(errs, FieldError{Field: fmt.Sprintf("service_areas[%d].priority", i), Message: "priority must be primary, secondary, or expansion"})
		}
	}

	return errs
}

// NormalizeDomain reduces a website value to its registrable hostname:
// no scheme, no path, no leading www, lowercased. Values that do not
// parse as URLs are lowercased and trimmed as-is.
func NormalizeDomain(website string) string {
	s := strings.TrimSpace(strings.ToLower(website))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(website)), "www.")
		return strings.TrimSuffix(s, "/")
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// UpsertOutcome tags whether a profile upsert created a new row or
// updated an existing one.
type UpsertOutcome string

const (
	UpsertCreated UpsertOutcome = "created"
	UpsertUpdated UpsertOutcome = "updated"
)
