package facility

// ID identifies a facility for the whole session. Names are display-only.
type ID string

// Type classifies a facility. Allocation candidates and trigger scopes are keyed by it.
type Type string

const (
	TypeKitchen      Type = "KITCHEN"
	TypeShelter      Type = "SHELTER"
	TypeCaseworkSite Type = "CASEWORK_SITE"
	TypeCommunity    Type = "COMMUNITY"
	TypeMotel        Type = "MOTEL"
)

// AllTypes lists every facility type in display order
var AllTypes = []Type{TypeKitchen, TypeShelter, TypeCaseworkSite, TypeCommunity, TypeMotel}

// IsValid reports whether the type is one of the known facility types
func (t Type) IsValid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// Cargo is a resource a facility can store and a vehicle can carry
type Cargo string

const (
	CargoFoodPacks  Cargo = "FOOD_PACKS"
	CargoPopulation Cargo = "POPULATION"
)

// IsValid reports whether the cargo is a known resource type
func (c Cargo) IsValid() bool {
	return c == CargoFoodPacks || c == CargoPopulation
}

// Unit returns the display noun for quantities of this cargo
func (c Cargo) Unit() string {
	switch c {
	case CargoFoodPacks:
		return "food packs"
	case CargoPopulation:
		return "people"
	default:
		return string(c)
	}
}

func (c Cargo) String() string {
	return string(c)
}
