package actor

// Class is the closed set of playable character classes.
type Class uint8

const (
	ClassUnset Class = iota
	ClassFighter
	ClassRogue
	ClassWizard
)

var classNames = [...]string{
	ClassUnset:   "None",
	ClassFighter: "Fighter",
	ClassRogue:   "Rogue",
	ClassWizard:  "Wizard",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "None"
}

// ParseClass maps the wire enum variant to a Class. Unknown variants map
// to ClassUnset rather than failing: a half-synced character should render
// as classless, not break the stream.
func ParseClass(s string) Class {
	switch s {
	case "Fighter":
		return ClassFighter
	case "Rogue":
		return ClassRogue
	case "Wizard":
		return ClassWizard
	}
	return ClassUnset
}

// Capabilities is the per-class rules table. Branching on the table rather
// than on class names keeps the rule set in one place; adding a class means
// adding one row here.
type Capabilities struct {
	// SecondWind marks the once-per-rest self-heal.
	SecondWind bool
	// CunningActionLevel is the minimum level for the disengage action;
	// zero means the class never gets it.
	CunningActionLevel int
	// Spellcaster gates cantrip and slot-based spellcasting.
	Spellcaster bool
}

var classTable = [...]Capabilities{
	ClassUnset:   {},
	ClassFighter: {SecondWind: true},
	ClassRogue:   {CunningActionLevel: 2},
	ClassWizard:  {Spellcaster: true},
}

// Capabilities returns the rules row for the class.
func (c Class) Capabilities() Capabilities {
	if int(c) < len(classTable) {
		return classTable[c]
	}
	return Capabilities{}
}
