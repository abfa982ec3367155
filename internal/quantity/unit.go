package quantity

// Base and recognised units.
const (
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitMilliliter = "ml"
	UnitLiter      = "l"
	UnitPiece      = "pcs"
	UnitPieceShort = "pc"
)

// UnitClass is the canonical class a unit belongs to.
type UnitClass string

const (
	ClassMass   UnitClass = "mass"
	ClassVolume UnitClass = "volume"
	ClassCount  UnitClass = "count"
	ClassOther  UnitClass = "other"
)

type unitDef struct {
	class  UnitClass
	base   string
	factor float64 // value * factor = value in base
}

var unitTable = map[string]unitDef{
	UnitKilogram:   {class: ClassMass, base: UnitGram, factor: 1000},
	UnitGram:       {class: ClassMass, base: UnitGram, factor: 1},
	UnitLiter:      {class: ClassVolume, base: UnitMilliliter, factor: 1000},
	UnitMilliliter: {class: ClassVolume, base: UnitMilliliter, factor: 1},
	UnitPiece:      {class: ClassCount, base: UnitPiece, factor: 1},
	UnitPieceShort: {class: ClassCount, base: UnitPiece, factor: 1},
}

// Normalize converts q into its base unit. Unknown units pass through
// unchanged and only match the identical unit string.
func Normalize(q Quantity) (float64, string) {
	def, ok := unitTable[q.Unit]
	if !ok {
		return q.Value, q.Unit
	}
	return q.Value * def.factor, def.base
}

// ClassOf returns the unit class of unit, or ClassOther when unknown.
func ClassOf(unit string) UnitClass {
	if def, ok := unitTable[unit]; ok {
		return def.class
	}
	return ClassOther
}
