package refdata

// Header synonyms seen across monthly exports, keyed by the drifted header.
// Surrounding whitespace is already trimmed at load time, so " Delivery Charge
// ($/Gal) " needs no entry.
var (
	CustomLabelAliases = map[string]string{
		"Custom Label Bracket (Gal/Yr)": "Custom Label Bracket",
	}

	DeliveryAliases = map[string]string{
		"Drop Fee Tier (lbs/Drop Size)": "Drop Fee Tier (lbs/Drop)",
		"Delivery Charge ($/gal)":       "Delivery Charge ($/Gal)",
	}

	MilkBaseAliases = map[string]string{
		"Base Milk Cost per Gallon ($/Gal)": "Base Milk Cost per Gallon",
	}
)
