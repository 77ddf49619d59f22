package model

// Provider category identifiers. The reliability table below maps each to a
// trust weight; weights above 1.0 deliberately boost especially authoritative
// categories. These values are load-bearing for confidence scoring and are
// versioned with the engine.
const (
	SourceExchangeFiling = "exchange_filing"
	SourceOfficialReport = "official_report"
	SourceAnnualReport   = "annual_report"
	SourceFinancialAPI   = "financial_api"
	SourceMarketDataAPI  = "market_data_api"
	SourceNewsPremium    = "news_premium"
	SourceNewsOutlet     = "news_outlet"
	SourceWebCrawl       = "web_crawl"
	SourceSearchSnippet  = "search_snippet"
	SourceModelInferred  = "model_inferred"
	SourceMemory         = "memory"
)

// MemoryTrustWeight is the fixed weight the orchestrator applies to the
// last-known persisted consensus when it is replayed as a pseudo-source.
const MemoryTrustWeight = 0.90

var defaultTrustWeights = map[string]float64{
	SourceExchangeFiling: 1.30,
	SourceOfficialReport: 1.20,
	SourceAnnualReport:   1.15,
	SourceFinancialAPI:   1.10,
	SourceMarketDataAPI:  0.95,
	SourceNewsPremium:    0.90,
	SourceNewsOutlet:     0.75,
	SourceWebCrawl:       0.70,
	SourceSearchSnippet:  0.55,
	SourceModelInferred:  0.35,
	SourceMemory:         MemoryTrustWeight,
}

// documentDerived marks categories whose values come out of filed or
// published documents rather than feeds or inference.
var documentDerived = map[string]bool{
	SourceExchangeFiling: true,
	SourceOfficialReport: true,
	SourceAnnualReport:   true,
}

// TrustTable maps provider categories to reliability priors.
type TrustTable map[string]float64

// DefaultTrustTable returns a copy of the built-in reliability table.
// Callers may override individual entries from configuration.
func DefaultTrustTable() TrustTable {
	t := make(TrustTable, len(defaultTrustWeights))
	for k, v := range defaultTrustWeights {
		t[k] = v
	}
	return t
}

// Weight returns the trust weight for a provider category. Unknown
// categories get the search-snippet floor rather than zero so a new
// provider still contributes, just weakly.
func (t TrustTable) Weight(sourceID string) float64 {
	if w, ok := t[sourceID]; ok {
		return w
	}
	return defaultTrustWeights[SourceSearchSnippet]
}

// IsDocumentDerived reports whether a provider category draws on filed or
// published documents.
func IsDocumentDerived(sourceID string) bool {
	return documentDerived[sourceID]
}
