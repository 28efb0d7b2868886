package addresses

// StandardizedAddress is the flattened form of an /address response
type StandardizedAddress struct {
	StreetAddress             string        `json:"street_address"`
	StreetAddressAbbreviation string        `json:"street_address_abbreviation"`
	SecondaryAddress          string        `json:"secondary_address"`
	City                      string        `json:"city"`
	CityAbbreviation          string        `json:"city_abbreviation"`
	State                     string        `json:"state"`
	ZIPCode                   string        `json:"zip_code"`
	ZIPPlus4                  string        `json:"zip_plus4"`
	Urbanization              string        `json:"urbanization"`
	DeliveryPoint             string        `json:"delivery_point"`
	CarrierRoute              string        `json:"carrier_route"`
	DPVConfirmation           string        `json:"dpv_confirmation"`
	Business                  string        `json:"business"`
	Vacant                    string        `json:"vacant"`
	IsValid                   bool          `json:"is_valid"`
	Corrections               []interface{} `json:"corrections"`
	Warnings                  []interface{} `json:"warnings"`
}

// ToMap converts s for the uniform Result
func (s StandardizedAddress) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"street_address":              s.StreetAddress,
		"street_address_abbreviation": s.StreetAddressAbbreviation,
		"secondary_address":           s.SecondaryAddress,
		"city":                        s.City,
		"city_abbreviation":           s.CityAbbreviation,
		"state":                       s.State,
		"zip_code":                    s.ZIPCode,
		"zip_plus4":                   s.ZIPPlus4,
		"urbanization":                s.Urbanization,
		"delivery_point":              s.DeliveryPoint,
		"carrier_route":               s.CarrierRoute,
		"dpv_confirmation":            s.DPVConfirmation,
		"business":                    s.Business,
		"vacant":                      s.Vacant,
		"is_valid":                    s.IsValid,
		"corrections":                 s.Corrections,
		"warnings":                    s.Warnings,
	}
}

// ExtractStandardizedAddress flattens the address and additionalInfo
// objects of a standardization response
func ExtractStandardizedAddress(resp map[string]interface{}) StandardizedAddress {
	address := object(resp, "address")
	info := object(resp, "additionalInfo")

	return StandardizedAddress{
		StreetAddress:             str(address, "streetAddress"),
		StreetAddressAbbreviation: str(address, "streetAddressAbbreviation"),
		SecondaryAddress:          str(address, "secondaryAddress"),
		City:                      str(address, "city"),
		CityAbbreviation:          str(address, "cityAbbreviation"),
		State:                     str(address, "state"),
		ZIPCode:                   str(address, "ZIPCode"),
		ZIPPlus4:                  str(address, "ZIPPlus4"),
		Urbanization:              str(address, "urbanization"),
		DeliveryPoint:             str(info, "deliveryPoint"),
		CarrierRoute:              str(info, "carrierRoute"),
		DPVConfirmation:           str(info, "DPVConfirmation"),
		Business:                  str(info, "business"),
		Vacant:                    str(info, "vacant"),
		IsValid:                   IsAddressValid(resp),
		Corrections:               list(resp, "corrections"),
		Warnings:                  list(resp, "warnings"),
	}
}

// IsAddressValid reports whether the DPV confirmation is Y, D or S and USPS
// returned no corrections
func IsAddressValid(resp map[string]interface{}) bool {
	switch str(object(resp, "additionalInfo"), "DPVConfirmation") {
	case "Y", "D", "S":
		return len(list(resp, "corrections")) == 0
	}
	return false
}

func object(m map[string]interface{}, key string) map[string]interface{} {
	if o, ok := m[key].(map[string]interface{}); ok {
		return o
	}
	return map[string]interface{}{}
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func list(m map[string]interface{}, key string) []interface{} {
	if l, ok := m[key].([]interface{}); ok {
		return l
	}
	return []interface{}{}
}
