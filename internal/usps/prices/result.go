package prices

import (
	"github.com/tidwall/gjson"
)

// RateQuote is one priced product. Order follows the USPS response.
type RateQuote struct {
	MailClass     string  `json:"mailClass,omitempty"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	RateIndicator string  `json:"rateIndicator,omitempty"`
	PriceType     string  `json:"priceType,omitempty"`
	Zone          string  `json:"zone,omitempty"`
	SKU           string  `json:"SKU,omitempty"`
	DeliveryDays  string  `json:"deliveryDays,omitempty"`
}

// SearchResult is the normalized answer of every prices search
type SearchResult struct {
	TotalBasePrice *float64               `json:"total_base_price,omitempty"`
	Rates          []interface{}          `json:"rates"`
	ExtraServices  []interface{}          `json:"extra_services"`
	Quotes         []RateQuote            `json:"quotes"`
	Data           map[string]interface{} `json:"data"`
}

func newSearchResult(data map[string]interface{}, raw []byte) *SearchResult {
	res := &SearchResult{
		Rates:         listOf(data, "rates", "rateOptions"),
		// extra-service-rates answers with a bare array
		ExtraServices: listOf(data, "extraServices", "data"),
		Quotes:        projectQuotes(raw),
		Data:          data,
	}
	if total := gjson.GetBytes(raw, "totalBasePrice"); total.Exists() {
		v := total.Float()
		res.TotalBasePrice = &v
	}
	return res
}

// ToMap is the shape handlers and the CLI print
func (r *SearchResult) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"data":           r.Data,
		"rates":          r.Rates,
		"extra_services": r.ExtraServices,
		"quotes":         r.Quotes,
	}
	if r.TotalBasePrice != nil {
		out["total_base_price"] = *r.TotalBasePrice
	}
	return out
}

// Cheapest returns the lowest priced quote
func (r *SearchResult) Cheapest() (RateQuote, bool) {
	if len(r.Quotes) == 0 {
		return RateQuote{}, false
	}
	best := r.Quotes[0]
	for _, q := range r.Quotes[1:] {
		if q.Price < best.Price {
			best = q
		}
	}
	return best, true
}

func listOf(data map[string]interface{}, keys ...string) []interface{} {
	for _, k := range keys {
		if list, ok := data[k].([]interface{}); ok {
			return list
		}
	}
	return []interface{}{}
}

// projectQuotes flattens rates[] and rateOptions[].rates[] into quotes.
// A rate option without a mail class inherits the one of its option.
func projectQuotes(raw []byte) []RateQuote {
	quotes := make([]RateQuote, 0)
	if !gjson.ValidBytes(raw) {
		return quotes
	}
	root := gjson.ParseBytes(raw)

	add := func(rate, option gjson.Result) {
		q := RateQuote{
			MailClass:     firstString(rate, option, "mailClass"),
			Description:   rate.Get("description").String(),
			Price:         rate.Get("price").Float(),
			RateIndicator: firstString(rate, option, "rateIndicator"),
			PriceType:     rate.Get("priceType").String(),
			Zone:          rate.Get("zone").String(),
			SKU:           rate.Get("SKU").String(),
			DeliveryDays:  firstString(rate, option, "commitment.name"),
		}
		if !rate.Get("price").Exists() && option.Exists() {
			q.Price = option.Get("totalBasePrice").Float()
		}
		quotes = append(quotes, q)
	}

	root.Get("rates").ForEach(func(_, rate gjson.Result) bool {
		add(rate, gjson.Result{})
		return true
	})
	root.Get("rateOptions").ForEach(func(_, option gjson.Result) bool {
		option.Get("rates").ForEach(func(_, rate gjson.Result) bool {
			add(rate, option)
			return true
		})
		return true
	})
	return quotes
}

func firstString(rate, option gjson.Result, path string) string {
	if v := rate.Get(path); v.Exists() {
		return v.String()
	}
	if option.Exists() {
		return option.Get(path).String()
	}
	return ""
}
