package domain

import "sort"

// EngageEvent is the raw Engage event record.
type EngageEvent struct {
	ID                        FlexString                  `json:"id"`
	Name                      string                      `json:"name"`
	Description               string                      `json:"description"`
	StartsOn                  string                      `json:"startsOn"`
	EndsOn                    string                      `json:"endsOn"`
	Address                   Lenient[EngageAddress]      `json:"address"`
	ImageURL                  string                      `json:"imageUrl"`
	Theme                     string                      `json:"theme"`
	Categories                LenientList[EngageCategory] `json:"categories"`
	Benefits                  FlexStrings                 `json:"benefits"`
	SubmittedByOrganizationID FlexString                  `json:"submittedByOrganizationId"`
}

type EngageAddress struct {
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Line1     string     `json:"line1"`
	Latitude  FlexNumber `json:"latitude"`
	Longitude FlexNumber `json:"longitude"`
}

type EngageCategory struct {
	Name FlexString `json:"name"`
}

// EngageOrganization is one entry of the organization lookup.
type EngageOrganization struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// OrganizationIDs returns the distinct non-empty submitting organization ids, sorted.
func OrganizationIDs(events []EngageEvent) []string {
	seen := make(map[string]struct{})
	for _, e := range events {
		if e.SubmittedByOrganizationID != "" {
			seen[string(e.SubmittedByOrganizationID)] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OrganizationNames indexes an organization lookup by id.
func OrganizationNames(orgs []EngageOrganization) map[string]string {
	names := make(map[string]string, len(orgs))
	for _, o := range orgs {
		if o.ID != "" {
			names[string(o.ID)] = o.Name
		}
	}
	return names
}

// NormalizeEngageEvent maps an Engage event onto an Event, resolving the
// submitting organization through orgs. It reports false when the event has no id.
func NormalizeEngageEvent(e EngageEvent, orgs map[string]string) (Event, bool) {
	if e.ID == "" {
		return Event{}, false
	}

	addr := e.Address.V

	names := make([]string, 0, len(e.Categories)+1)
	names = append(names, e.Theme)
	for _, c := range e.Categories {
		names = append(names, string(c.Name))
	}

	var organization *string
	if e.SubmittedByOrganizationID != "" {
		organization = optional(orgs[string(e.SubmittedByOrganizationID)])
	}

	var benefits []string
	if len(e.Benefits) > 0 {
		benefits = e.Benefits
	}

	return Event{
		ID:          SourceEngage + "_" + string(e.ID),
		Title:       e.Name,
		Description: CleanHTML(e.Description),
		Start:       NormalizeTimestamp(e.StartsOn),
		End:         NormalizeTimestamp(e.EndsOn),
		Location: Place{
			Name:       optional(addr.Name),
			Address:    optional(firstNonEmpty(addr.Address, addr.Line1)),
			Coordinate: ComposeCoordinate(addr.Latitude, addr.Longitude),
		},
		ImageURL:   optional(e.ImageURL),
		Source:     SourceEngage,
		Categories: MergeCategories(names...),
		EngageDetails: &EngageDetails{
			Organization: organization,
			Benefits:     benefits,
		},
	}, true
}
