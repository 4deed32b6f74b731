package vbcs

import (
	"github.com/andresuchdata/pricing-automation/backend-go/internal/crossdock"
)

// Output file names.
const (
	FileFixed    = "fixed_vbcs.csv"
	FileKS       = "ks_htst_vbcs.csv"
	FileURMTopco = "urm_topco_vbcs.csv"
	FileWinco    = "winco_vbcs.csv"
	FileBatch    = "batch_vbcs.csv"
	FileCombined = "combined_all_vbcs.csv"
)

// Groups are the variable-pricing upload files.
type Groups struct {
	URMTopco []Record
	Winco    []Record
	Batch    []Record
}

// Files maps output file names to their records.
func (g Groups) Files() map[string][]Record {
	return map[string][]Record{
		FileURMTopco: g.URMTopco,
		FileWinco:    g.Winco,
		FileBatch:    g.Batch,
	}
}

func (g Groups) Len() int { return len(g.URMTopco) + len(g.Winco) + len(g.Batch) }

// Partition splits records by customer group. Customers a group explicitly
// excludes go to Batch even when their name matches. Each partition is
// de-duplicated and stamped with the price list name.
func Partition(records []Record, groups []crossdock.Group) Groups {
	var winco, urm crossdock.Group
	for _, g := range groups {
		switch g.Name {
		case "winco":
			winco = g
		case "urm_topco":
			urm = g
		}
	}

	var out Groups
	for _, r := range records {
		r.PriceListName = PriceListName
		switch {
		case urm.Matches(r.Customer) && !excluded(urm, r.Customer):
			out.URMTopco = append(out.URMTopco, r)
		case winco.Matches(r.Customer) && !excluded(winco, r.Customer):
			out.Winco = append(out.Winco, r)
		default:
			out.Batch = append(out.Batch, r)
		}
	}
	out.URMTopco = Dedup(out.URMTopco)
	out.Winco = Dedup(out.Winco)
	out.Batch = Dedup(out.Batch)
	return out
}

func excluded(g crossdock.Group, customer string) bool {
	for _, c := range g.ExcludedCustomers {
		if c == customer {
			return true
		}
	}
	return false
}
