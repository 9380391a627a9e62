// Package domain normalizes campus information feeds into the document shapes
// read by the mobile client.
//
// # Upstream Sources
//
// Five upstream APIs feed four kinds of record:
//
//	Localist     calendar events           events/calendarEvents
//	Engage       student-org events        events/organizationEvents
//	Waitz        live building occupancy   liveCampusBusyness
//	OpenSpace    parking lot telemetry     liveParking
//	WeatherStem  campus weather station    weather
//
// Every upstream is loosely typed: numbers arrive as JSON numbers or strings,
// optional objects are null or missing, and nesting differs per source. The
// raw types in this package decode through [FlexString], [FlexNumber],
// [FlexBool] and [FlexStrings] so a wrongly typed scalar never fails a whole
// payload.
//
// # Normalization Rules
//
// Optional values resolve to an explicit null marker (nil pointer, nil slice),
// never to a missing key. HTML descriptions are unescaped, stripped to text and
// trimmed; an empty description is "". Timestamps are converted to the civil
// timezone (America/New_York by default) and rendered as ISO-8601 with offset;
// an unparseable timestamp passes through unchanged. Coordinates exist only
// when both latitude and longitude are present and non-zero.
//
// Derived values:
//
//	Occupancy status:  >=80 veryHigh | >=50 high | >=25 moderate | else low
//	Feels like:        temp <= 50F and wind > 3mph   -> wind chill
//	                   temp >= 80F and humidity > 40% -> heat index
//	                   otherwise                      -> temperature
//	Wind label:        16-point compass, index = round(deg / 22.5) mod 16
//
// Rounding is half-to-even, matching the upstream station's own reports.
//
// # Identity
//
// Event ids are the source tag plus the upstream id ("localist_123",
// "engage_456") so re-fetching an event reproduces its key. Parking lot keys are
// a camel-case slug of the display name ("Dan Allen Deck" -> "danAllenDeck");
// see [LotKey]. Occupancy locations use the upstream id.
//
// # Outcomes
//
// Sentinel errors ([ErrUnexpectedPayload], [ErrUpstreamError], [ErrNoData],
// [ErrMissingRequired]) mark the failure kinds a cycle can end with;
// [Classify] maps any error onto an [Outcome].
package domain
