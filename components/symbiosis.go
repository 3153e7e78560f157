package components

// LinkType enumerates the symbiosis link effects.
type LinkType uint8

const (
	LinkNutritional LinkType = iota // +damage multiplier
	LinkProtective                  // -damage taken
	LinkAmplifying                  // +fire rate
	LinkHealing                     // health regeneration
	numLinkTypes
)

var linkTypeNames = [numLinkTypes]string{
	LinkNutritional: "nutritional",
	LinkProtective:  "protective",
	LinkAmplifying:  "amplifying",
	LinkHealing:     "healing",
}

// String returns the config name of the link type.
func (t LinkType) String() string {
	if t < numLinkTypes {
		return linkTypeNames[t]
	}
	return "unknown"
}

// ParseLinkType maps a config name to a LinkType.
func ParseLinkType(s string) (LinkType, bool) {
	for i, name := range linkTypeNames {
		if name == s {
			return LinkType(i), true
		}
	}
	return 0, false
}

// LinkTypes returns all link types in declaration order.
func LinkTypes() []LinkType {
	out := make([]LinkType, numLinkTypes)
	for i := range out {
		out[i] = LinkType(i)
	}
	return out
}
