// Package classifier infers a food type from a product name and Open Food
// Facts category tags. The food type decides where an item is stored and how
// long it keeps.
package classifier

import (
	"strings"
	"time"
	"unicode"

	"smartpantry/internal/models"
)

// ProductType represents the inferred food type of a product
type ProductType string

const (
	TypeMeat     ProductType = "meat"
	TypeSeafood  ProductType = "seafood"
	TypeDairy    ProductType = "dairy"
	TypeCheese   ProductType = "cheese"
	TypeFrozen   ProductType = "frozen"
	TypeBakery   ProductType = "bakery"
	TypeProduce  ProductType = "produce"
	TypeBeverage ProductType = "beverage"
	TypePantry   ProductType = "pantry"
	TypeUnknown  ProductType = "unknown"
)

const day = 24 * time.Hour

type typeInfo struct {
	storage   models.Category
	shelfLife time.Duration
}

var typeTable = map[ProductType]typeInfo{
	TypeMeat:     {models.CategoryFridge, 3 * day},
	TypeSeafood:  {models.CategoryFridge, 3 * day},
	TypeDairy:    {models.CategoryFridge, 14 * day},
	TypeCheese:   {models.CategoryFridge, 21 * day},
	TypeFrozen:   {models.CategoryFridge, 180 * day},
	TypeBakery:   {models.CategoryPantry, 5 * day},
	TypeProduce:  {models.CategoryFridge, 7 * day},
	TypeBeverage: {models.CategoryFridge, 30 * day},
	TypePantry:   {models.CategoryPantry, 180 * day},
	TypeUnknown:  {models.CategoryPantry, 180 * day},
}

// AllTypes lists every product type in declaration order
var AllTypes = []ProductType{
	TypeMeat, TypeSeafood, TypeDairy, TypeCheese, TypeFrozen,
	TypeBakery, TypeProduce, TypeBeverage, TypePantry, TypeUnknown,
}

// ParseProductType converts a stored value back into a ProductType.
// Unrecognised values map to TypeUnknown.
func ParseProductType(s string) ProductType {
	t := ProductType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := typeTable[t]; ok {
		return t
	}
	return TypeUnknown
}

func (t ProductType) String() string { return string(t) }

func (t ProductType) info() typeInfo {
	if info, ok := typeTable[t]; ok {
		return info
	}
	return typeTable[TypeUnknown]
}

// StorageCategory returns where products of this type are kept
func (t ProductType) StorageCategory() models.Category {
	return t.info().storage
}

// ShelfLife returns the default time from acquisition to estimated expiry
func (t ProductType) ShelfLife() time.Duration {
	return t.info().shelfLife
}

// ShelfLifeSeconds returns ShelfLife in whole seconds
func (t ProductType) ShelfLifeSeconds() int64 {
	return int64(t.ShelfLife() / time.Second)
}

// EstimatedExpiry returns now plus the shelf life of the type
func (t ProductType) EstimatedExpiry(now time.Time) time.Time {
	return now.Add(t.ShelfLife())
}

type rule struct {
	typ      ProductType
	keywords []string
}

// Tag rules run in priority order; the first hit wins.
var tagRules = []rule{
	{TypeFrozen, []string{"frozen", "ice-cream", "ice-creams", "surgeles"}},
	{TypeMeat, []string{"meat", "poultr", "chicken", "beef", "pork", "sausage", "hams", "turkey", "lamb"}},
	{TypeSeafood, []string{"seafood", "fish", "shrimp", "prawn", "salmon", "tuna", "shellfish"}},
	{TypeCheese, []string{"cheese"}},
	{TypeDairy, []string{"dair", "milk", "yogurt", "yoghurt", "butter", "cream", "kefir"}},
	{TypeProduce, []string{"fruit", "vegetable", "produce", "salad", "herb", "potato"}},
	{TypeBakery, []string{"bread", "baker", "pastr", "viennoiserie", "cake", "biscuit-and-cake"}},
	{TypeBeverage, []string{"beverage", "drink", "water", "juice", "soda", "coffee", "beer", "wine"}},
	{TypePantry, []string{"snack", "canned", "pasta", "cereal", "rice", "sauce", "condiment", "spice", "flour", "sugar"}},
}

// Name rules match whole words, allowing a plural "s" or "es". They cover
// fewer types than tags: names are too noisy for produce and pantry staples.
// The first rule keeps shelf-stable spreads and milks out of dairy.
var nameRules = []rule{
	{TypePantry, []string{"peanut butter", "almond butter", "cashew butter", "nut butter", "cocoa butter", "coconut milk", "coconut cream"}},
	{TypeFrozen, []string{"frozen", "ice cream", "gelato", "sorbet"}},
	{TypeMeat, []string{"chicken", "beef", "pork", "steak", "bacon", "sausage", "turkey", "lamb", "mince", "salami", "meat"}},
	{TypeSeafood, []string{"salmon", "tuna", "shrimp", "prawn", "fish", "cod", "crab", "lobster", "mussel", "seafood"}},
	{TypeCheese, []string{"cheese", "cheddar", "mozzarella", "parmesan", "brie", "feta", "gouda"}},
	{TypeDairy, []string{"milk", "yogurt", "yoghurt", "butter", "cream", "kefir"}},
	{TypeBakery, []string{"bread", "bagel", "croissant", "muffin", "baguette", "bun", "cake", "tortilla"}},
	{TypeBeverage, []string{"juice", "soda", "water", "cola", "beer", "wine", "coffee", "lemonade", "drink"}},
}

// Open Food Facts files most plant foods under the umbrella tag, which would
// otherwise read as a beverage. The rest would read as dairy.
var ignoredTags = []string{
	"plant-based-foods-and-beverages",
	"nut-butter", "cocoa-butter", "coconut-milk", "coconut-cream",
}

// Classify infers the product type. Tags are checked before the name and
// the fallback is TypePantry; it never fails.
func Classify(name string, tags []string) ProductType {
	if len(tags) > 0 {
		joined := strings.ToLower(strings.Join(tags, ","))
		for _, ignored := range ignoredTags {
			joined = strings.ReplaceAll(joined, ignored, "")
		}
		if t, ok := matchTags(joined); ok {
			return t
		}
	}

	if t, ok := matchName(name); ok {
		return t
	}

	return TypePantry
}

// matchTags looks for keyword stems anywhere in the joined tags
func matchTags(joined string) (ProductType, bool) {
	for _, r := range tagRules {
		for _, kw := range r.keywords {
			if strings.Contains(joined, kw) {
				return r.typ, true
			}
		}
	}
	return "", false
}

func matchName(name string) (ProductType, bool) {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return "", false
	}
	for _, r := range nameRules {
		for _, kw := range r.keywords {
			if containsPhrase(words, strings.Fields(kw)) {
				return r.typ, true
			}
		}
	}
	return "", false
}

func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		matched := true
		for j, p := range phrase {
			w := words[i+j]
			if w != p && w != p+"s" && w != p+"es" {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
