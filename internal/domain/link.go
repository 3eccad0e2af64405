package domain

type LinkKind string

const (
	LinkInvite  LinkKind = "invite"
	LinkCheckIn LinkKind = "checkin"
)

type LinkSource string

const (
	SourceCustomScheme  LinkSource = "custom_scheme"
	SourceUniversalLink LinkSource = "universal_link"
	SourceParams        LinkSource = "params"
)

// Link is a deep link reduced to the action it asks for.
type Link struct {
	Kind   LinkKind
	Source LinkSource
	Token  string
	// CircleID is set only for params deliveries that name the circle directly.
	CircleID CircleID
}
