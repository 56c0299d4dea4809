package types

import "strings"

// Random is the sentinel tag meaning "let the interviewer pick".
const Random = "Random"

// Scenario holds the industry and domain tags selected for a session.
type Scenario struct {
	Industry string `json:"industry"`
	Domain   string `json:"domain"`
}

// IsRandom reports whether tag is empty or the Random sentinel.
func IsRandom(tag string) bool {
	tag = strings.TrimSpace(tag)
	return tag == "" || strings.EqualFold(tag, Random)
}

// Concrete reports whether at least one tag names a specific industry or domain.
func (s Scenario) Concrete() bool {
	return !IsRandom(s.Industry) || !IsRandom(s.Domain)
}

// Normalize trims both tags and maps blanks to Random.
func (s Scenario) Normalize() Scenario {
	out := Scenario{Industry: strings.TrimSpace(s.Industry), Domain: strings.TrimSpace(s.Domain)}
	if IsRandom(out.Industry) {
		out.Industry = Random
	}
	if IsRandom(out.Domain) {
		out.Domain = Random
	}
	return out
}

// OptionGroup is a labelled group of selectable tags.
type OptionGroup struct {
	Category string   `json:"category"`
	Options  []string `json:"options"`
}

// Industries lists the industry tags offered to participants.
var Industries = []OptionGroup{
	{Category: "TMT (Tech, Media, Telecom)", Options: []string{"Technology & SaaS", "Media & Entertainment", "Telecommunications"}},
	{Category: "Consumer & Retail", Options: []string{"Retail & E-commerce", "CPG (Food, Bev, Household)", "Automotive & Mobility"}},
	{Category: "Heavy Industry", Options: []string{"Energy, Oil & Gas", "Mining & Metals", "Airlines & Logistics", "Manufacturing & Industrials"}},
	{Category: "Services & Public", Options: []string{"Financial Services & Fintech", "Healthcare & Pharma", "Private Equity", "Public Sector & Education", "Environment and Sustainability"}},
}

// Domains lists the case domain tags offered to participants.
var Domains = []OptionGroup{
	{Category: "Core Strategy", Options: []string{"Profitability", "Market Entry", "Growth Strategy", "Pricing Strategy"}},
	{Category: "Transactions", Options: []string{"M&A", "Private Equity Deal"}},
	{Category: "Operations & Specialized", Options: []string{"Operations & Supply Chain", "New Product Launch", "Turnaround", "Non-Profit / Social Impact"}},
}

// KnownTag reports whether tag appears in groups. Random is always known.
func KnownTag(groups []OptionGroup, tag string) bool {
	if IsRandom(tag) {
		return true
	}
	for _, g := range groups {
		for _, opt := range g.Options {
			if opt == tag {
				return true
			}
		}
	}
	return false
}
