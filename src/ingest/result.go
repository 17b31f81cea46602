package ingest

// Outcome of structuring a submission, either *Structured or *Invalid
type Result interface {
	isResult()
}

type InvalidReason string

const (
	ReasonMissingProduct InvalidReason = "MISSING_PRODUCT"
	ReasonMissingPrice   InvalidReason = "MISSING_PRICE"
	ReasonMissingBoth    InvalidReason = "MISSING_BOTH"
	ReasonUnclear        InvalidReason = "UNCLEAR_MESSAGE"
)

var invalidReasons = []InvalidReason{
	ReasonMissingProduct,
	ReasonMissingPrice,
	ReasonMissingBoth,
	ReasonUnclear,
}

func ParseInvalidReason(s string) (InvalidReason, bool) {
	for _, reason := range invalidReasons {
		if s == string(reason) {
			return reason, true
		}
	}
	return "", false
}

type Category string

const (
	CategoryFruit      Category = "Obst"
	CategoryVegetables Category = "Gemüse"
	CategoryMeat       Category = "Fleisch"
	CategoryFish       Category = "Fisch"
	CategoryDairy      Category = "Milchprodukte"
	CategoryBakery     Category = "Backwaren"
	CategoryDrinks     Category = "Getränke"
	CategoryOther      Category = "Sonstiges"
)

var Categories = []Category{
	CategoryFruit,
	CategoryVegetables,
	CategoryMeat,
	CategoryFish,
	CategoryDairy,
	CategoryBakery,
	CategoryDrinks,
	CategoryOther,
}

// Offer fields extracted from the submission
type Structured struct {
	ProductName string
	// Decimal with two places, e.g. "2.49"
	Price       string
	Unit        string
	Description string
	Category    Category
}

func (*Structured) isResult() {}

type Invalid struct {
	Reason InvalidReason

	// Set when the model couldn't be asked or answered garbage
	Cause error
}

func (*Invalid) isResult() {}
