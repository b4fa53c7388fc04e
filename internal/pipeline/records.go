package pipeline

import "strings"

// Unknown marks a field the analysis could not source. Records are always
// fully shaped; a stage never omits a field it failed to fill.
const Unknown = "unknown"

// Company is one discovered candidate.
type Company struct {
	Name        string `json:"name"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

// DiscoveryRecord is the discovery stage output.
type DiscoveryRecord struct {
	Query     string    `json:"query"`
	Companies []Company `json:"companies"`
}

// TechRecord is the technology stage output for one company.
type TechRecord struct {
	Company                string   `json:"company"`
	Summary                string   `json:"technology_summary"`
	CoreTechnology         string   `json:"core_technology"`
	SOTAPerformance        string   `json:"sota_performance"`
	ReproductionDifficulty string   `json:"reproduction_difficulty"`
	Infrastructure         []string `json:"infrastructure_requirements"`
	IPPatentStatus         string   `json:"ip_patent_status"`
	Scalability            string   `json:"scalability"`
	Risks                  []string `json:"tech_risks"`
}

// MarketRecord is the market stage output for one company.
type MarketRecord struct {
	Company          string   `json:"company"`
	MarketSize       string   `json:"market_size"`
	CAGR             string   `json:"cagr"`
	ProblemFit       string   `json:"problem_fit"`
	DemandDrivers    []string `json:"demand_drivers"`
	RevenueModel     string   `json:"revenue_model"`
	Funding          string   `json:"funding"`
	Investors        []string `json:"investors"`
	Partnerships     []string `json:"partnerships"`
	CustomerSegments []string `json:"customer_segments"`
}

// CompetitorEntry is one assessed competitor. Scores are on a 0-10 scale.
type CompetitorEntry struct {
	Name            string  `json:"name"`
	Overlap         float64 `json:"overlap"`
	Differentiation float64 `json:"differentiation"`
	Moat            float64 `json:"moat"`
	Positioning     string  `json:"positioning"`
	Incumbent       bool    `json:"incumbent"`
}

// SWOT is the aggregate strengths/weaknesses/opportunities/threats view.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// CompetitorRecord is the competitor stage output for one company.
type CompetitorRecord struct {
	Company     string            `json:"company"`
	Competitors []CompetitorEntry `json:"competitors"`
	SWOT        SWOT              `json:"swot"`
}

// UnknownTechRecord returns a fully shaped tech record with every field at
// the unknown marker.
func UnknownTechRecord(company string) *TechRecord {
	return &TechRecord{
		Company:                company,
		Summary:                Unknown,
		CoreTechnology:         Unknown,
		SOTAPerformance:        Unknown,
		ReproductionDifficulty: Unknown,
		Infrastructure:         []string{},
		IPPatentStatus:         Unknown,
		Scalability:            Unknown,
		Risks:                  []string{},
	}
}

// UnknownMarketRecord returns a fully shaped market record with every field
// at the unknown marker.
func UnknownMarketRecord(company string) *MarketRecord {
	return &MarketRecord{
		Company:          company,
		MarketSize:       Unknown,
		CAGR:             Unknown,
		ProblemFit:       Unknown,
		DemandDrivers:    []string{},
		RevenueModel:     Unknown,
		Funding:          Unknown,
		Investors:        []string{},
		Partnerships:     []string{},
		CustomerSegments: []string{},
	}
}

// UnknownCompetitorRecord returns a fully shaped competitor record with no
// assessed competitors.
func UnknownCompetitorRecord(company string) *CompetitorRecord {
	return &CompetitorRecord{
		Company:     company,
		Competitors: []CompetitorEntry{},
		SWOT: SWOT{
			Strengths:     []string{},
			Weaknesses:    []string{},
			Opportunities: []string{},
			Threats:       []string{},
		},
	}
}

// fillUnknown replaces an empty field with the unknown marker.
func fillUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

// known reports whether a field carries real content.
func known(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && !strings.EqualFold(t, Unknown)
}
