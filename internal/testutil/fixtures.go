package testutil

import (
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
)

// TestAccount is a complete set of account identifiers
var TestAccount = config.Account{
	CRID:          "56982563",
	MID:           "904128",
	ManifestMID:   "904128",
	AccountNumber: "1000017562",
	AccountType:   "EPS",
}

// SenderAddress is a firm-named domestic origin
func SenderAddress() usps.Address {
	return usps.Address{
		StreetAddress: "4120 Bingham Ave",
		City:          "Saint Louis",
		State:         "MO",
		ZIPCode:       "63116",
		FirmName:      "Acme Outfitters",
	}
}

// RecipientAddress is a person-named domestic destination
func RecipientAddress() usps.Address {
	return usps.Address{
		StreetAddress: "1600 Pennsylvania Avenue NW",
		City:          "Washington",
		State:         "DC",
		ZIPCode:       "20500",
		FirstName:     "Jane",
		LastName:      "Doe",
	}
}

// LabelMetadata is a typical domestic label metadata document
const LabelMetadata = `{"trackingNumber":"9205500000000000000000","postage":8.75,"zone":"04","commitment":{"name":"2 Days"}}`

// PDFBytes is the smallest body the label parser recognises as a PDF
var PDFBytes = []byte("%PDF-1.4\n%test label\n")
