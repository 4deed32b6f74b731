package crossdock

import (
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// Customer extract columns.
const (
	ColPartyName       = "Party Name"
	ColPartySiteName   = "Party Site Name"
	ColPartySiteNumber = "Party Site Number"
)

// Site is one ship-to location from the customer extract.
type Site struct {
	PartyName  string
	SiteName   string
	SiteNumber string
}

// Directory is the customer/site extract in file order.
type Directory struct {
	Sites []Site
}

// LoadDirectory reads the customer extract, stripping the Windows-1252 control
// bytes the ERP export carries.
func LoadDirectory(path string) (*Directory, error) {
	t, err := refdata.LoadCleaned(path)
	if err != nil {
		return nil, err
	}
	if missing := t.Missing(ColPartyName, ColPartySiteName, ColPartySiteNumber); len(missing) > 0 {
		return nil, refdata.MissingColumns(t.Name, missing)
	}
	return DirectoryFromTable(t), nil
}

// DirectoryFromTable maps an already loaded extract.
func DirectoryFromTable(t *refdata.Table) *Directory {
	nameIdx := t.Index(ColPartyName)
	siteIdx := t.Index(ColPartySiteName)
	numIdx := t.Index(ColPartySiteNumber)

	d := &Directory{Sites: make([]Site, 0, len(t.Rows))}
	for _, row := range t.Rows {
		d.Sites = append(d.Sites, Site{
			PartyName:  refdata.Cell(row, nameIdx),
			SiteName:   refdata.Cell(row, siteIdx),
			SiteNumber: refdata.Cell(row, numIdx),
		})
	}
	return d
}

func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Sites)
}
