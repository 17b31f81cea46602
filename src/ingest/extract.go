package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/wochenmarkt/ingestor/src/utils/vision"

	"github.com/shopspring/decimal"
)

// Used only if the message has no detectable quantity
const DefaultUnit = "1 Stück"

type rawOffer struct {
	ProductName string          `json:"product_name"`
	Price       json.RawMessage `json:"price"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// Maps the model answer to a result. Anything that isn't a known token or the expected JSON is unclear.
func ParseResponse(text string) Result {
	text = vision.StripCodeFence(text)
	if text == "" {
		return &Invalid{Reason: ReasonUnclear, Cause: ErrEmptyResponse}
	}

	if reason, ok := parseInvalid(text); ok {
		return &Invalid{Reason: reason}
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return &Invalid{Reason: ReasonUnclear, Cause: ErrFailedToParse}
	}

	var raw rawOffer
	err := json.Unmarshal([]byte(text[start:end+1]), &raw)
	if err != nil {
		return &Invalid{Reason: ReasonUnclear, Cause: fmt.Errorf("%w: %s", ErrFailedToParse, err.Error())}
	}

	return raw.normalize()
}

func parseInvalid(text string) (reason InvalidReason, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(text))

	if strings.HasPrefix(upper, invalidPrefix) {
		rest := strings.TrimLeft(upper[len(invalidPrefix):], ": _-\t")
		fields := strings.FieldsFunc(rest, func(r rune) bool {
			return !(unicode.IsLetter(r) || r == '_')
		})
		if len(fields) > 0 {
			if reason, ok = ParseInvalidReason(fields[0]); ok {
				return
			}
		}
		return ReasonUnclear, true
	}

	for _, reason := range invalidReasons {
		if strings.HasPrefix(upper, string(reason)) {
			return reason, true
		}
	}

	return "", false
}

func (self *rawOffer) normalize() Result {
	name := NormalizeProductName(self.ProductName)
	price, hasPrice := NormalizePrice(self.priceText())

	switch {
	case name == "" && !hasPrice:
		return &Invalid{Reason: ReasonMissingBoth}
	case name == "":
		return &Invalid{Reason: ReasonMissingProduct}
	case !hasPrice:
		return &Invalid{Reason: ReasonMissingPrice}
	}

	unit := strings.Join(strings.Fields(self.Unit), " ")
	if unit == "" {
		unit = DefaultUnit
	}

	return &Structured{
		ProductName: name,
		Price:       price,
		Unit:        unit,
		Description: strings.TrimSpace(self.Description),
		Category:    ParseCategory(self.Category),
	}
}

// Price may come as a JSON string or number
func (self *rawOffer) priceText() string {
	raw := strings.TrimSpace(string(self.Price))
	if raw == "" || raw == "null" {
		return ""
	}

	var s string
	if json.Unmarshal(self.Price, &s) == nil {
		return s
	}
	return raw
}

// Collapses whitespace and trims surrounding punctuation. Used for offers and image library keys alike.
func NormalizeProductName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimFunc(name, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// Decimal with two places, false if there's no positive price
func NormalizePrice(price string) (string, bool) {
	price = strings.ToLower(strings.TrimSpace(price))
	for _, symbol := range []string{"€", "euro", "eur"} {
		price = strings.ReplaceAll(price, symbol, "")
	}
	price = strings.ReplaceAll(price, " ", "")
	price = strings.ReplaceAll(price, ",", ".")
	if price == "" {
		return "", false
	}

	value, err := decimal.NewFromString(price)
	if err != nil || !value.IsPositive() {
		return "", false
	}

	return value.StringFixed(2), true
}

// Unknown categories fall back to the catch-all one
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, category := range Categories {
		if strings.EqualFold(s, string(category)) {
			return category
		}
	}
	return CategoryOther
}
