package vbcs

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/crossdock"
)

// Fixed field values of every upload row.
const (
	PriceListName  = "CP_Market Price"
	AdjustmentType = "MARKUP_AMOUNT"
	StatusNew      = "N"
	BaselinePrice  = "0"
)

// Header is the upload schema. The trailing empty-named column is part of the
// Oracle template.
var Header = []string{
	"Pricelistname",
	"Pricinguom",
	"Baselineprice",
	"Chargestartdate",
	"Chargeenddate",
	"Item_Name",
	"Customername",
	"Customernumber",
	"Shiptositename",
	"Customersitenumber",
	"Adjustmenttype",
	"Adjustmentamount",
	"Adjustmentbasis",
	"Precedence",
	"Market",
	"Age",
	"Spec",
	"Grade",
	"Adjustmentstartdate",
	"Adjustmentenddate",
	"Status",
	"",
}

// FieldCount is the number of named columns in Header.
const FieldCount = 21

// Amount is a price rounded to a fixed number of decimal places.
type Amount struct {
	Value  decimal.Decimal
	Digits int32
}

// NewAmount rounds the exact binary value of v at digits places, so 2.675
// (stored as 2.67499...) becomes 2.67. Only exact ties round half-to-even.
func NewAmount(v float64, digits int32) Amount {
	if digits < 0 {
		digits = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{Value: decimal.Zero, Digits: digits}
	}
	exact, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	if err != nil {
		exact = decimal.NewFromFloat(v)
	}
	return Amount{Value: exact.RoundBank(digits), Digits: digits}
}

// exactDigits covers the binary expansion of any price-sized float64.
const exactDigits = 60

// ParseAmount keeps the precision the text was written with.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	var digits int32
	if dot := strings.IndexByte(s, '.'); dot >= 0 && !strings.ContainsAny(s, "eE") {
		digits = int32(len(s) - dot - 1)
	}
	return Amount{Value: d, Digits: digits}, nil
}

func (a Amount) String() string { return a.Value.StringFixed(a.Digits) }

func (a Amount) IsZero() bool { return a.Value.IsZero() }

func (a Amount) Equal(o Amount) bool { return a.Digits == o.Digits && a.Value.Equal(o.Value) }

// Record is one row of a VBCS upload file.
type Record struct {
	PriceListName      string
	PricingUOM         string
	BaselinePrice      string
	ChargeStartDate    string
	ChargeEndDate      string
	Item               string
	Customer           string
	CustomerNumber     string
	ShipTo             string
	CustomerSiteNumber string
	AdjustmentType     string
	AdjustmentAmount   Amount
	AdjustmentBasis    string
	Precedence         string
	Market             string
	Age                string
	Spec               string
	Grade              string
	AdjustmentStart    string
	AdjustmentEnd      string
	Status             string
}

// newRecord fills the constant fields.
func newRecord() Record {
	return Record{
		PriceListName:  PriceListName,
		BaselinePrice:  BaselinePrice,
		AdjustmentType: AdjustmentType,
		Status:         StatusNew,
	}
}

// Fields renders the record in Header order, trailing empty column included.
func (r Record) Fields() []string {
	return []string{
		r.PriceListName,
		r.PricingUOM,
		r.BaselinePrice,
		r.ChargeStartDate,
		r.ChargeEndDate,
		r.Item,
		r.Customer,
		r.CustomerNumber,
		r.ShipTo,
		r.CustomerSiteNumber,
		r.AdjustmentType,
		r.AdjustmentAmount.String(),
		r.AdjustmentBasis,
		r.Precedence,
		r.Market,
		r.Age,
		r.Spec,
		r.Grade,
		r.AdjustmentStart,
		r.AdjustmentEnd,
		r.Status,
		"",
	}
}

// key is the exact-duplicate identity of a record.
func (r Record) key() string {
	return strings.Join(r.Fields(), "\x1f")
}

func (r Record) CustomerName() string { return r.Customer }

func (r Record) ShipToSite() string { return r.ShipTo }

// WithSite readdresses a copy of the record to another ship-to site.
func (r Record) WithSite(s crossdock.Site) Record {
	r.Customer = s.PartyName
	r.ShipTo = s.SiteName
	r.CustomerSiteNumber = s.SiteNumber
	return r
}
