package domain

// Event source tags.
const (
	SourceLocalist = "localist"
	SourceEngage   = "engage"
)

// Event is a normalized calendar or student-organization event.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Start       *string  `json:"start"`
	End         *string  `json:"end"`
	AllDay      bool     `json:"allDay"`
	Location    Place    `json:"location"`
	URL         *string  `json:"url"`
	ImageURL    *string  `json:"imageUrl"`
	Source      string   `json:"source"`
	Categories  []string `json:"categories"`

	*LocalistDetails
	*EngageDetails
}

// LocalistDetails holds fields only calendar events carry.
type LocalistDetails struct {
	Department *string `json:"department"`
}

// EngageDetails holds fields only student-organization events carry.
type EngageDetails struct {
	Organization *string  `json:"organization"`
	Benefits     []string `json:"benefits"`
}

// MergeCategories joins category names in order, dropping empties and duplicates.
// No names yields nil.
func MergeCategories(names ...string) []string {
	var out []string
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
