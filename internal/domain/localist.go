package domain

// LocalistPage is one page of the Localist events listing.
type LocalistPage struct {
	Events []LocalistItem `json:"events"`
	Page   struct {
		Current FlexNumber `json:"current"`
		Total   FlexNumber `json:"total"`
	} `json:"page"`
}

// LocalistItem wraps one event in the listing.
type LocalistItem struct {
	Event LocalistEvent `json:"event"`
}

// LocalistEvent is the raw Localist event record.
type LocalistEvent struct {
	ID              FlexString                 `json:"id"`
	Title           string                     `json:"title"`
	Description     string                     `json:"description"`
	DescriptionText string                     `json:"description_text"`
	LocationName    string                     `json:"location_name"`
	Address         string                     `json:"address"`
	Geo             Lenient[LocalistGeo]       `json:"geo"`
	LocalistURL     string                     `json:"localist_url"`
	URL             string                     `json:"url"`
	PhotoURL        string                     `json:"photo_url"`
	EventInstances  []LocalistInstance         `json:"event_instances"`
	Filters         Lenient[LocalistFilters]   `json:"filters"`
	Departments     LenientList[LocalistNamed] `json:"departments"`
}

type LocalistFilters struct {
	EventTypes LenientList[LocalistNamed] `json:"event_types"`
}

type LocalistGeo struct {
	Latitude  FlexNumber `json:"latitude"`
	Longitude FlexNumber `json:"longitude"`
}

type LocalistInstance struct {
	EventInstance struct {
		Start  string   `json:"start"`
		End    string   `json:"end"`
		AllDay FlexBool `json:"all_day"`
	} `json:"event_instance"`
}

type LocalistNamed struct {
	Name FlexString `json:"name"`
}

// NormalizeLocalistEvent maps a Localist item onto an Event. It reports false
// when the item has no id.
func NormalizeLocalistEvent(item LocalistItem) (Event, bool) {
	e := item.Event
	if e.ID == "" {
		return Event{}, false
	}

	var start, end string
	var allDay bool
	if len(e.EventInstances) > 0 {
		inst := e.EventInstances[0].EventInstance
		start, end, allDay = inst.Start, inst.End, bool(inst.AllDay)
	}

	types := make([]string, 0, len(e.Filters.V.EventTypes))
	for _, t := range e.Filters.V.EventTypes {
		types = append(types, string(t.Name))
	}

	var department *string
	if len(e.Departments) > 0 {
		department = optional(string(e.Departments[0].Name))
	}

	return Event{
		ID:          SourceLocalist + "_" + string(e.ID),
		Title:       e.Title,
		Description: firstNonEmpty(CleanHTML(e.Description), e.DescriptionText),
		Start:       NormalizeTimestamp(start),
		End:         NormalizeTimestamp(end),
		AllDay:      allDay,
		Location: Place{
			Name:       optional(e.LocationName),
			Address:    optional(e.Address),
			Coordinate: ComposeCoordinate(e.Geo.V.Latitude, e.Geo.V.Longitude),
		},
		URL:             optional(firstNonEmpty(e.LocalistURL, e.URL)),
		ImageURL:        optional(e.PhotoURL),
		Source:          SourceLocalist,
		Categories:      MergeCategories(types...),
		LocalistDetails: &LocalistDetails{Department: department},
	}, true
}
