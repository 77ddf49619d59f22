package model

// MetricName identifies one tracked financial metric. The set is closed:
// every metric the engine reconciles is enumerated here, and AllMetrics is
// the canonical iteration order.
type MetricName string

const (
	MetricRevenue         MetricName = "revenue"
	MetricRevenueGrowth   MetricName = "revenue_growth"
	MetricGrossMargin     MetricName = "gross_margin"
	MetricEBITDA          MetricName = "ebitda"
	MetricEBITDAMargin    MetricName = "ebitda_margin"
	MetricOperatingMargin MetricName = "operating_margin"
	MetricNetIncome       MetricName = "net_income"
	MetricNetMargin       MetricName = "net_margin"
	MetricEPS             MetricName = "eps"
	MetricPERatio         MetricName = "pe_ratio"
	MetricPSRatio         MetricName = "ps_ratio"
	MetricPBRatio         MetricName = "pb_ratio"
	MetricEVToEBITDA      MetricName = "ev_to_ebitda"
	MetricMarketCap       MetricName = "market_cap"
	MetricEnterpriseValue MetricName = "enterprise_value"
	MetricSharePrice      MetricName = "share_price"
	MetricDividendYield   MetricName = "dividend_yield"
	MetricFreeCashFlow    MetricName = "free_cash_flow"
	MetricFCFMargin       MetricName = "fcf_margin"
	MetricTotalDebt       MetricName = "total_debt"
	MetricTotalCash       MetricName = "total_cash"
	MetricDebtToEquity    MetricName = "debt_to_equity"
	MetricCurrentRatio    MetricName = "current_ratio"
	MetricROE             MetricName = "roe"
	MetricROA             MetricName = "roa"
	MetricROIC            MetricName = "roic"
	MetricEmployeeCount   MetricName = "employee_count"
	MetricRDExpense       MetricName = "rd_expense"
	MetricCapex           MetricName = "capex"
	MetricBookValue       MetricName = "book_value"
)

// Unit classifies how a metric's value is rendered.
type Unit int

const (
	UnitCurrency Unit = iota
	UnitPercent
	UnitRatio
	UnitCount
)

type metricInfo struct {
	label string
	unit  Unit
}

var metricTable = map[MetricName]metricInfo{
	MetricRevenue:         {"Revenue", UnitCurrency},
	MetricRevenueGrowth:   {"Revenue Growth", UnitPercent},
	MetricGrossMargin:     {"Gross Margin", UnitPercent},
	MetricEBITDA:          {"EBITDA", UnitCurrency},
	MetricEBITDAMargin:    {"EBITDA Margin", UnitPercent},
	MetricOperatingMargin: {"Operating Margin", UnitPercent},
	MetricNetIncome:       {"Net Income", UnitCurrency},
	MetricNetMargin:       {"Net Margin", UnitPercent},
	MetricEPS:             {"EPS", UnitCurrency},
	MetricPERatio:         {"P/E Ratio", UnitRatio},
	MetricPSRatio:         {"P/S Ratio", UnitRatio},
	MetricPBRatio:         {"P/B Ratio", UnitRatio},
	MetricEVToEBITDA:      {"EV/EBITDA", UnitRatio},
	MetricMarketCap:       {"Market Cap", UnitCurrency},
	MetricEnterpriseValue: {"Enterprise Value", UnitCurrency},
	MetricSharePrice:      {"Share Price", UnitCurrency},
	MetricDividendYield:   {"Dividend Yield", UnitPercent},
	MetricFreeCashFlow:    {"Free Cash Flow", UnitCurrency},
	MetricFCFMargin:       {"FCF Margin", UnitPercent},
	MetricTotalDebt:       {"Total Debt", UnitCurrency},
	MetricTotalCash:       {"Total Cash", UnitCurrency},
	MetricDebtToEquity:    {"Debt/Equity", UnitRatio},
	MetricCurrentRatio:    {"Current Ratio", UnitRatio},
	MetricROE:             {"ROE", UnitPercent},
	MetricROA:             {"ROA", UnitPercent},
	MetricROIC:            {"ROIC", UnitPercent},
	MetricEmployeeCount:   {"Employees", UnitCount},
	MetricRDExpense:       {"R&D Expense", UnitCurrency},
	MetricCapex:           {"CapEx", UnitCurrency},
	MetricBookValue:       {"Book Value", UnitCurrency},
}

// AllMetrics is the canonical ordered list of tracked metrics.
var AllMetrics = []MetricName{
	MetricRevenue,
	MetricRevenueGrowth,
	MetricGrossMargin,
	MetricEBITDA,
	MetricEBITDAMargin,
	MetricOperatingMargin,
	MetricNetIncome,
	MetricNetMargin,
	MetricEPS,
	MetricPERatio,
	MetricPSRatio,
	MetricPBRatio,
	MetricEVToEBITDA,
	MetricMarketCap,
	MetricEnterpriseValue,
	MetricSharePrice,
	MetricDividendYield,
	MetricFreeCashFlow,
	MetricFCFMargin,
	MetricTotalDebt,
	MetricTotalCash,
	MetricDebtToEquity,
	MetricCurrentRatio,
	MetricROE,
	MetricROA,
	MetricROIC,
	MetricEmployeeCount,
	MetricRDExpense,
	MetricCapex,
	MetricBookValue,
}

// HeadlineMetrics are the metrics the delta detector watches between
// consecutive consensus snapshots.
var HeadlineMetrics = []MetricName{
	MetricMarketCap,
	MetricSharePrice,
	MetricRevenue,
	MetricNetMargin,
	MetricPERatio,
	MetricEBITDAMargin,
}

// Label returns the display label for a metric, or the raw name if unknown.
func (m MetricName) Label() string {
	if info, ok := metricTable[m]; ok {
		return info.label
	}
	return string(m)
}

// Unit returns the rendering unit for a metric. Unknown metrics render as
// ratios, the least surprising default.
func (m MetricName) Unit() Unit {
	if info, ok := metricTable[m]; ok {
		return info.unit
	}
	return UnitRatio
}

// Valid reports whether m is one of the tracked metrics.
func (m MetricName) Valid() bool {
	_, ok := metricTable[m]
	return ok
}
