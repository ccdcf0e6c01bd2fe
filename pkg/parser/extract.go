// Package parser turns free-text vendor messages into structured offers and
// accumulates partial offers across messages.
//
// Extraction is strictly anchored: a field is populated only when the text
// contains an explicit, labeled phrase for it. Bare numbers with no unit or
// label are ignored, and when a message contains two distinct labeled prices
// the first one wins. Anything the parser cannot anchor stays nil: missing,
// never guessed and never zero.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// conversionRates is the fixed currency table, expressed as units of USD per
// one unit of the listed currency. Non-default currencies are converted into
// the deal currency through USD.
var conversionRates = map[string]float64{
	"USD": 1.00,
	"EUR": 1.08,
	"GBP": 1.27,
	"CAD": 0.73,
	"AUD": 0.65,
}

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

var currencyWords = map[string]string{
	"usd": "USD", "dollar": "USD", "dollars": "USD",
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"gbp": "GBP", "pound": "GBP", "pounds": "GBP",
	"cad": "CAD", "aud": "AUD",
}

var (
	// symbolPriceRe matches "$ 95", "€1,200.50". Group 1 symbol, group 2 amount.
	symbolPriceRe = regexp.MustCompile(`([$€£])\s?([\d][\d,]*(?:\.\d+)?)`)
	// wordPriceRe matches "95 USD", "1200 euros". Group 1 amount, group 2 word.
	wordPriceRe = regexp.MustCompile(`(?i)\b([\d][\d,]*(?:\.\d+)?)\s*(usd|eur|gbp|cad|aud|dollars?|euros?|pounds?)\b`)
	// labeledPriceRe matches "price: 95", "price of 95", "total price is 95"
	// for messages that state a price without a currency marker.
	labeledPriceRe = regexp.MustCompile(`(?i)\b(?:unit\s+price|total\s+price|price)\s*(?:of|is|at|:)?\s*([\d][\d,]*(?:\.\d+)?)`)

	unitPriceHintRe = regexp.MustCompile(`(?i)\b(?:per\s+unit|per\s+piece|each|unit\s+price|/unit)\b`)

	netTermsRe  = regexp.MustCompile(`(?i)\bnet\s*-?\s*(\d{1,3})\b`)
	dayTermsRe  = regexp.MustCompile(`(?i)\b(\d{1,3})\s*-?\s*days?\s+(?:payment\s+)?terms?\b`)
	payWithinRe = regexp.MustCompile(`(?i)\bpayment\s+(?:due\s+)?(?:in|within)\s+(\d{1,3})\s*days?\b`)

	deliveryDaysRe = regexp.MustCompile(`(?i)\b(?:deliver(?:y|ed)?|ship(?:ping|ped)?|lead\s+time)\s*(?:of|in|within|:)?\s*(\d{1,3})\s*(?:business\s+|working\s+)?days?\b`)
	daysDeliveryRe = regexp.MustCompile(`(?i)\b(\d{1,3})\s*-?\s*days?\s+(?:delivery|lead\s+time|shipping)\b`)

	isoDateRe   = regexp.MustCompile(`(?i)\b(?:deliver(?:y|ed)?|ship(?:ping|ped)?)\s*(?:by|on|:)?\s*(\d{4}-\d{2}-\d{2})\b`)
	monthDateRe = regexp.MustCompile(`(?i)\b(?:deliver(?:y|ed)?|ship(?:ping|ped)?)\s*(?:by|on|:)?\s*(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?`)

	warrantyRe     = regexp.MustCompile(`(?i)\b(\d{1,2})\s*-?\s*(year|month)s?\s*(?:of\s+)?warranty\b`)
	warrantyPostRe = regexp.MustCompile(`(?i)\bwarranty\s*(?:of|:)?\s*(\d{1,2})\s*(year|month)s?\b`)

	partialYesRe = regexp.MustCompile(`(?i)\bpartial\s+(?:delivery|deliveries|shipment|shipments)\s+(?:is\s+|are\s+)?(?:allowed|accepted|acceptable|ok(?:ay)?|fine|possible|works)\b|\bcan\s+(?:do|offer|accept)\s+partial\s+(?:delivery|deliveries|shipments?)\b`)
	partialNoRe  = regexp.MustCompile(`(?i)\bno\s+partial\s+(?:delivery|deliveries|shipments?)\b|\bpartial\s+(?:delivery|deliveries|shipments?)\s+(?:is\s+|are\s+)?not\s+(?:allowed|accepted|acceptable|possible)\b|\bcan(?:not|'t)\s+(?:do|accept)\s+partial\b`)

	finalOfferRe = regexp.MustCompile(`(?i)\b(?:final\s+offer|best\s+(?:and\s+final|price)|last\s+offer|can(?:not|'t)\s+go\s+(?:any\s+)?lower|won't\s+go\s+lower|take\s+it\s+or\s+leave\s+it)\b`)

	mesoPickRe   = regexp.MustCompile(`(?i)\b(?:option|offer|choice)\s+([A-C])\b|\bwe\s+(?:choose|pick|take|accept)\s+(?:option\s+)?([A-C])\b`)
	mesoOthersRe = regexp.MustCompile(`(?i)\bnone\s+of\s+(?:these|those|the\s+options)\b|\bsomething\s+else\b|\bother\s+option\b|\bdifferent\s+(?:offer|proposal)\b`)
)

// Parse extracts a raw structured offer from a free-text message. Prices in
// a currency other than the deal currency are converted with the fixed
// table. dealCurrency defaults to USD when empty.
func Parse(text, dealCurrency string) contracts.Offer {
	if dealCurrency == "" {
		dealCurrency = "USD"
	}
	var offer contracts.Offer

	if amount, ok := extractPrice(text, dealCurrency); ok {
		if unitPriceHintRe.MatchString(text) {
			offer.UnitPrice = &amount
		} else {
			offer.TotalPrice = &amount
		}
	}

	extractTerms(text, &offer)
	extractDelivery(text, &offer)
	extractWarranty(text, &offer)
	extractPartialDelivery(text, &offer)

	return offer
}

// IsFinalOfferSignal reports whether the message explicitly marks the
// vendor's offer as final.
func IsFinalOfferSignal(text string) bool {
	return finalOfferRe.MatchString(text)
}

// MesoSelection extracts which MESO option a vendor picked, if any. The
// second result is true for the free-form "Others" choice.
func MesoSelection(text string) (label string, others bool, ok bool) {
	if mesoOthersRe.MatchString(text) {
		return "", true, true
	}
	if m := mesoPickRe.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				return strings.ToUpper(g), false, true
			}
		}
	}
	return "", false, false
}

// extractPrice resolves the first explicit, clearly-labeled price in the
// text, converted into the deal currency. Ambiguity resolves to the
// earliest match; unlabeled bare numbers never match at all.
func extractPrice(text, dealCurrency string) (float64, bool) {
	type hit struct {
		index  int
		amount float64
		ccy    string
	}
	var first *hit

	consider := func(index int, amount float64, ccy string) {
		if first == nil || index < first.index {
			first = &hit{index: index, amount: amount, ccy: ccy}
		}
	}

	for _, m := range symbolPriceRe.FindAllStringSubmatchIndex(text, -1) {
		sym := text[m[2]:m[3]]
		amount, err := parseAmount(text[m[4]:m[5]])
		if err != nil {
			continue
		}
		consider(m[0], amount, currencySymbols[sym])
	}
	for _, m := range wordPriceRe.FindAllStringSubmatchIndex(text, -1) {
		amount, err := parseAmount(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		word := strings.ToLower(text[m[4]:m[5]])
		ccy, ok := currencyWords[word]
		if !ok {
			continue
		}
		consider(m[0], amount, ccy)
	}
	for _, m := range labeledPriceRe.FindAllStringSubmatchIndex(text, -1) {
		amount, err := parseAmount(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		consider(m[0], amount, dealCurrency)
	}

	if first == nil {
		return 0, false
	}
	return convertCurrency(first.amount, first.ccy, dealCurrency), true
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// convertCurrency converts via the fixed USD-based table. Unknown currencies
// pass through unconverted.
func convertCurrency(amount float64, from, to string) float64 {
	if from == to || from == "" {
		return amount
	}
	fromRate, okFrom := conversionRates[from]
	toRate, okTo := conversionRates[to]
	if !okFrom || !okTo {
		return amount
	}
	return amount * fromRate / toRate
}

func extractTerms(text string, offer *contracts.Offer) {
	if m := netTermsRe.FindStringSubmatch(text); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil {
			label := "Net " + m[1]
			offer.PaymentTerms = &label
			offer.PaymentTermsDays = &days
			return
		}
	}
	for _, re := range []*regexp.Regexp{dayTermsRe, payWithinRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			days, err := strconv.Atoi(m[1])
			if err == nil {
				label := m[1] + " days"
				offer.PaymentTerms = &label
				offer.PaymentTermsDays = &days
				return
			}
		}
	}
}

func extractDelivery(text string, offer *contracts.Offer) {
	for _, re := range []*regexp.Regexp{deliveryDaysRe, daysDeliveryRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			days, err := strconv.Atoi(m[1])
			if err == nil {
				offer.DeliveryDays = &days
				return
			}
		}
	}
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse("2006-01-02", m[1]); err == nil {
			offer.DeliveryDate = &d
			return
		}
	}
	if m := monthDateRe.FindStringSubmatch(text); m != nil {
		year := time.Now().UTC().Year()
		if m[3] != "" {
			if y, err := strconv.Atoi(m[3]); err == nil {
				year = y
			}
		}
		day, err := strconv.Atoi(m[2])
		if err != nil {
			return
		}
		month, ok := monthByName(strings.ToLower(m[1]))
		if !ok {
			return
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		offer.DeliveryDate = &d
	}
}

func monthByName(name string) (time.Month, bool) {
	months := map[string]time.Month{
		"january": time.January, "february": time.February, "march": time.March,
		"april": time.April, "may": time.May, "june": time.June,
		"july": time.July, "august": time.August, "september": time.September,
		"october": time.October, "november": time.November, "december": time.December,
	}
	m, ok := months[name]
	return m, ok
}

func extractWarranty(text string, offer *contracts.Offer) {
	for _, re := range []*regexp.Regexp{warrantyRe, warrantyPostRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			months := n
			if strings.EqualFold(m[2], "year") {
				months = n * 12
			}
			offer.WarrantyMonths = &months
			return
		}
	}
}

func extractPartialDelivery(text string, offer *contracts.Offer) {
	// Negative phrasing first: "partial delivery is not allowed" would also
	// match the affirmative pattern's stem otherwise.
	if partialNoRe.MatchString(text) {
		v := false
		offer.PartialDeliveryAllowed = &v
		return
	}
	if partialYesRe.MatchString(text) {
		v := true
		offer.PartialDeliveryAllowed = &v
	}
}
