package effective

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// Rule names used by the assumptions table.
const (
	CurrentMonth = "Current Month"
	LastMonth    = "Last Month"
)

// ErrRuleMissing is returned when a required rule is absent from the table.
var ErrRuleMissing = errors.New("effective date rule missing")

// deliveryRules maps the numeric "Effective Dates" code on execution rows to
// the delivery rule it refers to.
var deliveryRules = map[int]string{
	1: "First Day",
	2: "First Monday",
	3: "16th of Month",
	4: "First Sunday",
	5: "First Sunday (7 Day Leadtime)",
}

// DeliveryRule resolves an effective-dates code to its rule name.
func DeliveryRule(code int) (string, bool) {
	name, ok := deliveryRules[code]
	return name, ok
}

// Rule is one row of the assumptions table.
type Rule struct {
	Name  string
	Value string
	Start string
	End   string
}

// Rules indexes an assumptions table by rule name. The first row for a name wins.
type Rules struct {
	byName map[string]Rule
	names  []string
}

// Load reads an assumptions table. Only the Rules column is required.
func Load(path string) (*Rules, error) {
	t, err := refdata.LoadRequired(path, "Rules")
	if err != nil {
		return nil, err
	}
	return FromTable(t), nil
}

// FromTable indexes an already loaded table.
func FromTable(t *refdata.Table) *Rules {
	nameIdx := t.Index("Rules")
	valueIdx := t.Index("Value")
	startIdx := t.Index("Adjustmentstartdate")
	endIdx := t.Index("Adjustmentenddate")

	r := &Rules{byName: make(map[string]Rule)}
	for _, row := range t.Rows {
		name := refdata.Cell(row, nameIdx)
		if name == "" {
			continue
		}
		if _, seen := r.byName[name]; seen {
			continue
		}
		r.byName[name] = Rule{
			Name:  name,
			Value: refdata.Cell(row, valueIdx),
			Start: refdata.Cell(row, startIdx),
			End:   refdata.Cell(row, endIdx),
		}
		r.names = append(r.names, name)
	}
	return r
}

// New builds a rule set directly; mainly useful for tests and API callers.
func New(rules ...Rule) *Rules {
	r := &Rules{byName: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		if _, seen := r.byName[rule.Name]; seen {
			continue
		}
		r.byName[rule.Name] = rule
		r.names = append(r.names, rule.Name)
	}
	return r
}

// Names lists rule names in table order.
func (r *Rules) Names() []string {
	return append([]string(nil), r.names...)
}

// Lookup returns the named rule.
func (r *Rules) Lookup(name string) (Rule, bool) {
	if r == nil {
		return Rule{}, false
	}
	rule, ok := r.byName[strings.TrimSpace(name)]
	return rule, ok
}

// Window returns the adjustment start and end text for a delivery code. ok is
// false when the code is unknown or its rule has no start date.
func (r *Rules) Window(code int) (start, end string, ok bool) {
	name, known := DeliveryRule(code)
	if !known {
		return "", "", false
	}
	rule, found := r.Lookup(name)
	if !found || rule.Start == "" {
		return "", "", false
	}
	return rule.Start, rule.End, true
}

// Date parses the Value of the named rule.
func (r *Rules) Date(name string) (time.Time, error) {
	rule, ok := r.Lookup(name)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrRuleMissing, name)
	}
	d, err := ParseDate(rule.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("rule %q: %w", name, err)
	}
	return d, nil
}

// Period is the adjustment window of the current pricing month.
type Period struct {
	Start    time.Time // first instant of the current month rule date
	MonthEnd time.Time // last day of that month, midnight
	Filter   time.Time // the Last Month rule date, zero when not requested
}

// CurrentPeriod resolves the Current Month rule and, when withFilter is set,
// the Last Month rule.
func (r *Rules) CurrentPeriod(withFilter bool) (Period, error) {
	start, err := r.Date(CurrentMonth)
	if err != nil {
		return Period{}, err
	}
	p := Period{
		Start:    Midnight(start),
		MonthEnd: MonthEnd(start),
	}
	if withFilter {
		if p.Filter, err = r.Date(LastMonth); err != nil {
			return Period{}, err
		}
		p.Filter = Midnight(p.Filter)
	}
	return p, nil
}

// Midnight truncates t to the start of its day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthEnd returns midnight of the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return firstOfNext.AddDate(0, 0, -1)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"2006/01/02",
	"2006-01",
}

// ParseDate accepts the date shapes the assumptions and price-build exports use.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
