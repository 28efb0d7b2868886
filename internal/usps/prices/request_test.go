package prices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/usps"
)

var testClock = utils.NewFakeClock(time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC))

func newTestBuilder() *Builder {
	return NewBuilder(testClock, LetterDefaults{OriginZIPCode: "22407", DestinationZIPCode: "63118"})
}

func groundQuery() BaseRatesQuery {
	return BaseRatesQuery{
		OriginZIPCode:                "22407",
		DestinationZIPCode:           "63118",
		Weight:                       1.5,
		Length:                       10,
		Width:                        8,
		Height:                       4,
		MailClass:                    usps.MailClassGroundAdvantage,
		ProcessingCategory:           usps.ProcessingMachinable,
		RateIndicator:                "SP",
		DestinationEntryFacilityType: usps.FacilityNone,
		PriceType:                    PriceCommercial,
	}
}

func TestBuilder_BaseRates(t *testing.T) {
	q, err := newTestBuilder().BaseRates(groundQuery())
	require.NoError(t, err)
	assert.Equal(t, "22407", q.OriginZIPCode)
}

func TestBuilder_BaseRates_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BaseRatesQuery)
		wantMsg string
	}{
		{"origin", func(q *BaseRatesQuery) { q.OriginZIPCode = "" }, "Missing required field: originZIPCode"},
		{"destination", func(q *BaseRatesQuery) { q.DestinationZIPCode = "" }, "Missing required field: destinationZIPCode"},
		{"weight", func(q *BaseRatesQuery) { q.Weight = 0 }, "Missing required field: weight"},
		{"height", func(q *BaseRatesQuery) { q.Height = 0 }, "Missing required field: height"},
		{"mail class", func(q *BaseRatesQuery) { q.MailClass = "" }, "Missing required field: mailClass"},
		{"rate indicator", func(q *BaseRatesQuery) { q.RateIndicator = "" }, "Missing required field: rateIndicator"},
		{"facility", func(q *BaseRatesQuery) { q.DestinationEntryFacilityType = "" }, "Missing required field: destinationEntryFacilityType"},
		{"price type", func(q *BaseRatesQuery) { q.PriceType = "" }, "Missing required field: priceType"},
		{"bad ZIP", func(q *BaseRatesQuery) { q.OriginZIPCode = "2240" }, "originZIPCode must be 5 digits"},
		{"unknown price type", func(q *BaseRatesQuery) { q.PriceType = "WHOLESALE" }, "priceType has an unsupported value 'WHOLESALE'"},
		{"unknown mail class", func(q *BaseRatesQuery) { q.MailClass = "CARRIER_PIGEON" }, "mailClass has an unsupported value 'CARRIER_PIGEON'"},
		{"bad date", func(q *BaseRatesQuery) { q.MailingDate = "03/09/2026" }, "mailingDate must be a date in YYYY-MM-DD format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := groundQuery()
			tt.mutate(&q)

			_, err := newTestBuilder().BaseRates(q)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindValidation))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBuilder_ExtraServiceRates(t *testing.T) {
	b := newTestBuilder()

	q, err := b.ExtraServiceRates(ExtraServiceRatesQuery{
		MailClass:     usps.MailClassGroundAdvantage,
		PriceType:     PriceCommercial,
		ExtraServices: []usps.ExtraService{920},
	})
	require.NoError(t, err)
	assert.Zero(t, q.ItemValue)

	_, err = b.ExtraServiceRates(ExtraServiceRatesQuery{ExtraServices: []usps.ExtraService{920}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required fields: mailClass and priceType are required")

	_, err = b.ExtraServiceRates(ExtraServiceRatesQuery{MailClass: usps.MailClassPriorityMail, PriceType: PriceRetail})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field: extraServices array is required")

	_, err = b.ExtraServiceRates(ExtraServiceRatesQuery{
		MailClass:     usps.MailClassPriorityMail,
		PriceType:     PriceRetail,
		ExtraServices: []usps.ExtraService{1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraServices[0] has an unsupported value '1'")
}

func TestBuilder_TotalRates(t *testing.T) {
	q, err := newTestBuilder().TotalRates(TotalRatesQuery{
		BaseRatesQuery: groundQuery(),
		ExtraServices:  []usps.ExtraService{920, 930},
	})
	require.NoError(t, err)
	assert.Zero(t, q.ItemValue)
	assert.Equal(t, usps.MailClassGroundAdvantage, q.MailClass)

	_, err = newTestBuilder().TotalRates(TotalRatesQuery{BaseRatesQuery: groundQuery(), ItemValue: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "itemValue must not be negative")
}

func TestBuilder_RatesList_Defaults(t *testing.T) {
	q, err := newTestBuilder().RatesList(RatesListQuery{
		OriginZIPCode:      "22407",
		DestinationZIPCode: "63118",
		Weight:             2,
		Length:             10,
		Width:              8,
		Height:             4,
	})
	require.NoError(t, err)
	assert.Equal(t, usps.ProcessingMachinable, q.ProcessingCategory)
	assert.Equal(t, usps.RateIndicator("SP"), q.RateIndicator)
	assert.Equal(t, usps.FacilityNone, q.DestinationEntryFacilityType)
	assert.Equal(t, PriceCommercial, q.PriceType)
	assert.Equal(t, "2026-03-09", q.MailingDate)
	assert.Empty(t, q.MailClass)
}

func TestBuilder_RatesList_RequiresPiece(t *testing.T) {
	_, err := newTestBuilder().RatesList(RatesListQuery{OriginZIPCode: "22407"})
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Details, "Missing required field: destinationZIPCode")
	assert.Contains(t, appErr.Details, "Missing required field: weight")
	assert.Contains(t, appErr.Details, "Missing required field: width")
}

func TestBuilder_LetterRates(t *testing.T) {
	q, err := newTestBuilder().LetterRates(LetterRatesQuery{
		Weight:             1,
		Length:             11,
		Height:             5,
		Thickness:          0.25,
		ProcessingCategory: usps.ProcessingLetters,
	})
	require.NoError(t, err)
	assert.Equal(t, "22407", q.OriginZIPCode)
	assert.Equal(t, "63118", q.DestinationZIPCode)
	assert.Equal(t, "2026-03-09", q.MailingDate)
	assert.Equal(t, false, q.NonMachinableIndicators)

	_, err = newTestBuilder().LetterRates(LetterRatesQuery{Weight: 1, Length: 11, Height: 5, ProcessingCategory: usps.ProcessingLetters})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field for letter rates: thickness")
}

func TestBuilder_LetterRates_NoDefaults(t *testing.T) {
	b := NewBuilder(testClock, LetterDefaults{})
	_, err := b.LetterRates(LetterRatesQuery{
		Weight:             1,
		Length:             11,
		Height:             5,
		Thickness:          0.25,
		ProcessingCategory: usps.ProcessingFlats,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field: originZIPCode")
}
