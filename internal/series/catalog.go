package series

func fred(name, id string) Spec {
	return Spec{Name: name, Source: SourceFRED, ID: id}
}

func eiaElectricity(state string) Spec {
	return Spec{
		Name:   "Electricity Price Industrial - " + state,
		Source: SourceEIA,
		Route:  "electricity/retail-sales",
		Params: map[string]string{
			"frequency":          "monthly",
			"data[0]":            "price",
			"facets[stateid][]":  state,
			"facets[sectorid][]": "IND",
		},
	}
}

// DefaultCatalog lists the market barometer series.
func DefaultCatalog() []Spec {
	return []Spec{
		fred("PPI Food Industry", "PCU311311"),
		fred("PPI All Commodities", "PPIACO"),
		fred("PPI Maintenance/Repair Construction", "WPUIP2320001"),
		fred("PPI Paperboard", "WPU091411"),
		fred("PPI Plastics Material and Resin Manufacturing", "PCU325211325211"),
		fred("PPI Chocolate and Confectionery Manufacturing", "PCU3113531135"),
		fred("Global Price of Cocoa", "PCOCOUSDM"),
		fred("Sugar Beet Sugar Price", "WPU02530702"),
		fred("Avg Hourly Earnings Total Private", "CES0500000003"),
		fred("Wages Private Industry", "ECIWAG"),
		fred("Wood Pallets Price", "PCU3219203219205"),
		fred("West Coast Diesel Price", "GASDESWCW"),
		fred("US Diesel Sales Price", "GASDESW"),
		fred("Natural Gas Price (Henry Hub)", "MHHNGSP"),
		{
			Name:   "WTI Crude Oil",
			Source: SourceEIA,
			Route:  "petroleum/pri/spt",
			Params: map[string]string{
				"frequency":        "daily",
				"data[0]":          "value",
				"facets[series][]": "RWTC",
			},
		},
		eiaElectricity("WA"),
		eiaElectricity("OR"),
		eiaElectricity("ID"),
		eiaElectricity("MT"),
	}
}
