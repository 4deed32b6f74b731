package crossdock

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Row is a priced record that can be re-addressed to another ship-to site.
type Row[T any] interface {
	CustomerName() string
	ShipToSite() string
	// WithSite returns a copy priced like the receiver but addressed to s.
	WithSite(s Site) T
}

// Group is a customer group whose hub pricing is broadcast to its other sites.
type Group struct {
	Name              string
	Match             []string // case-insensitive substrings of the customer name
	HubSite           string
	ExcludedSites     []string
	ExcludedCustomers []string // exact customer names handled as regular batch rows
}

// DefaultGroups returns the Winco and URM/TOPCO groups, in expansion order.
func DefaultGroups() []Group {
	return []Group{
		{
			Name:    "winco",
			Match:   []string{"WINCO"},
			HubSite: "WINCO 002 KENNEWICK DSD",
		},
		{
			Name:          "urm_topco",
			Match:         []string{"URM", "TOPCO"},
			HubSite:       "TOWN PUMP",
			ExcludedSites: []string{"TOWN PUMP", "URM WHSE SPOKANE HTST", "URM WHSE SPOKANE"},
			ExcludedCustomers: []string{
				"DFS Gourmet Specialties, Inc., dba Better Butter",
				"FAIRFIELD GOURMET FOODS",
			},
		},
	}
}

// Matches reports whether a customer name belongs to the group.
func (g Group) Matches(customer string) bool {
	upper := strings.ToUpper(customer)
	for _, m := range g.Match {
		if strings.Contains(upper, strings.ToUpper(m)) {
			return true
		}
	}
	return false
}

func (g Group) excludesCustomer(customer string) bool {
	for _, c := range g.ExcludedCustomers {
		if customer == c {
			return true
		}
	}
	return false
}

func (g Group) excludesSite(site string) bool {
	if site == g.HubSite {
		return true
	}
	for _, s := range g.ExcludedSites {
		if site == s {
			return true
		}
	}
	return false
}

// Destinations lists the directory sites the hub pricing is copied to.
func (g Group) Destinations(dir *Directory) []Site {
	if dir == nil {
		return nil
	}
	var out []Site
	for _, s := range dir.Sites {
		if !g.Matches(s.PartyName) || g.excludesSite(s.SiteName) || g.excludesCustomer(s.PartyName) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// GroupResult holds a group's rows after expansion.
type GroupResult[T any] struct {
	Name         string
	Rows         []T // original group rows followed by the broadcast copies
	HubRows      int
	Destinations int
	Added        int
}

// Expansion is the outcome of Expand.
type Expansion[T any] struct {
	Other  []T
	Groups []GroupResult[T]
}

// All returns other rows followed by each group's rows in group order.
func (e Expansion[T]) All() []T {
	n := len(e.Other)
	for _, g := range e.Groups {
		n += len(g.Rows)
	}
	out := make([]T, 0, n)
	out = append(out, e.Other...)
	for _, g := range e.Groups {
		out = append(out, g.Rows...)
	}
	return out
}

// Expand runs each group in turn over the rows not claimed by an earlier group.
// A group without a hub row or without destinations passes its rows through.
func Expand[T Row[T]](records []T, dir *Directory, groups []Group) Expansion[T] {
	remaining := records
	var exp Expansion[T]

	for _, g := range groups {
		var members, rest, excluded []T
		for _, r := range remaining {
			switch {
			case !g.Matches(r.CustomerName()):
				rest = append(rest, r)
			case g.excludesCustomer(r.CustomerName()):
				excluded = append(excluded, r)
			default:
				members = append(members, r)
			}
		}

		var hubs []T
		for _, r := range members {
			if r.ShipToSite() == g.HubSite {
				hubs = append(hubs, r)
			}
		}
		dests := g.Destinations(dir)

		res := GroupResult[T]{Name: g.Name, Rows: members, HubRows: len(hubs), Destinations: len(dests)}
		if len(hubs) > 0 && len(dests) > 0 {
			rows := make([]T, 0, len(members)+len(hubs)*len(dests))
			rows = append(rows, members...)
			for _, h := range hubs {
				for _, d := range dests {
					rows = append(rows, h.WithSite(d))
				}
			}
			res.Rows = rows
			res.Added = len(hubs) * len(dests)
		}

		log.Debug().
			Str("group", g.Name).
			Int("members", len(members)).
			Int("hub_rows", res.HubRows).
			Int("destinations", res.Destinations).
			Int("added", res.Added).
			Int("excluded", len(excluded)).
			Msg("cross-dock expansion")

		exp.Groups = append(exp.Groups, res)
		remaining = append(rest, excluded...)
	}

	exp.Other = remaining
	return exp
}
