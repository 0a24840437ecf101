package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/factorlab/screener/internal/core"
	"github.com/factorlab/screener/internal/provider"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary"

const modules = "price,defaultKeyStatistics,financialData," +
	"incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory"

// Yahoo implements the primary fundamentals provider. It needs no API
// key but reports unreported figures as zero or null, so every raw
// value is mapped through present() before it reaches a record.
type Yahoo struct {
	baseURL string
	client  *http.Client
	budget  *provider.Budget
}

// New creates a new Yahoo provider. An empty baseURL selects the
// public endpoint; budget may not be nil.
func New(baseURL string, timeout time.Duration, budget *provider.Budget) *Yahoo {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Yahoo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		budget:  budget,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// FetchFundamentals fetches the quote summary for one symbol and maps
// it into a Fundamentals record with explicit optional fields.
func (y *Yahoo) FetchFundamentals(ctx context.Context, symbol string, lookbackYears int) (*core.Fundamentals, error) {
	if err := provider.ValidateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, err)
	}

	if err := y.budget.Wait(ctx); err != nil {
		return nil, core.WrapError(core.ErrProviderTimeout, err)
	}

	url := fmt.Sprintf("%s/%s?modules=%s", y.baseURL, symbol, modules)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrNetwork, err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, core.WrapError(core.ErrProviderTimeout, err)
		}
		return nil, core.WrapError(core.ErrNetwork, fmt.Errorf("fetching fundamentals: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol %s", symbol))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.WrapError(core.ErrRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, core.WrapError(core.ErrMalformedResponse, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrMalformedResponse, fmt.Errorf("decoding response: %w", err))
	}

	if result.QuoteSummary.Error != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound,
			fmt.Errorf("yahoo error: %s", result.QuoteSummary.Error.Description))
	}
	if len(result.QuoteSummary.Result) == 0 {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return y.toFundamentals(symbol, lookbackYears, result.QuoteSummary.Result[0]), nil
}

// toFundamentals maps the quote summary payload to the common record.
// Statement histories arrive newest first and are reversed into
// oldest-first series capped at the lookback window.
func (y *Yahoo) toFundamentals(symbol string, lookbackYears int, r summaryResult) *core.Fundamentals {
	f := &core.Fundamentals{
		Symbol:    symbol,
		Source:    y.Name(),
		FetchedAt: time.Now(),

		Price:             r.Price.RegularMarketPrice.present(),
		TrailingEPS:       r.KeyStatistics.TrailingEPS.present(),
		ForwardEPS:        r.KeyStatistics.ForwardEPS.present(),
		BookValuePerShare: r.KeyStatistics.BookValue.present(),
		EnterpriseValue:   r.KeyStatistics.EnterpriseValue.present(),
	}

	income := r.IncomeHistory.Statements
	if len(income) > 0 {
		f.EBIT = income[0].EBIT.present()
		f.NetIncome = income[0].NetIncome.present()
		f.GrossProfit = income[0].GrossProfit.present()
		f.Revenue = income[0].TotalRevenue.present()
	}

	balance := r.BalanceHistory.Statements
	if len(balance) > 0 {
		f.TotalAssets = balance[0].TotalAssets.present()
		f.Equity = balance[0].StockholderEquity.present()
	}

	cashflow := r.CashflowHistory.Statements
	if len(cashflow) > 0 {
		f.OperatingCashFlow = cashflow[0].OperatingCashFlow.present()
	}

	// The financialData module sometimes carries TTM figures the
	// statement histories lack.
	if f.Revenue == nil {
		f.Revenue = r.FinancialData.TotalRevenue.present()
	}
	if f.OperatingCashFlow == nil {
		f.OperatingCashFlow = r.FinancialData.OperatingCashflow.present()
	}

	f.EPSHistory = series(len(income), lookbackYears, func(i int) *float64 { return income[i].BasicEPS.present() })
	f.NetIncomeHistory = series(len(income), lookbackYears, func(i int) *float64 { return income[i].NetIncome.present() })
	f.GrossProfitHistory = series(len(income), lookbackYears, func(i int) *float64 { return income[i].GrossProfit.present() })
	f.RevenueHistory = series(len(income), lookbackYears, func(i int) *float64 { return income[i].TotalRevenue.present() })
	f.TotalAssetsHistory = series(len(balance), lookbackYears, func(i int) *float64 { return balance[i].TotalAssets.present() })
	f.EquityHistory = series(len(balance), lookbackYears, func(i int) *float64 { return balance[i].StockholderEquity.present() })
	f.OperatingCashFlowHistory = series(len(cashflow), lookbackYears, func(i int) *float64 { return cashflow[i].OperatingCashFlow.present() })

	return f
}

// series turns a newest-first statement column into an oldest-first
// value slice, dropping absent years and capping at the lookback.
func series(n, lookback int, get func(i int) *float64) []float64 {
	if lookback < n {
		n = lookback
	}
	out := make([]float64, 0, n)
	for i := n - 1; i >= 0; i-- {
		if v := get(i); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Yahoo API response types. Numeric values come wrapped as
// {"raw": 1.23, "fmt": "1.23"} objects; an empty object means the
// figure was not reported.
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// present maps Yahoo's missing/zero/null conventions to "field
// absent". Yahoo reports unavailable figures as 0, so zero raw values
// are treated as absent rather than as a legitimate zero.
func (v rawValue) present() *float64 {
	if v.Raw == nil || *v.Raw == 0 {
		return nil
	}
	return v.Raw
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	Price struct {
		RegularMarketPrice rawValue `json:"regularMarketPrice"`
	} `json:"price"`
	KeyStatistics struct {
		TrailingEPS     rawValue `json:"trailingEps"`
		ForwardEPS      rawValue `json:"forwardEps"`
		BookValue       rawValue `json:"bookValue"`
		EnterpriseValue rawValue `json:"enterpriseValue"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		TotalRevenue      rawValue `json:"totalRevenue"`
		OperatingCashflow rawValue `json:"operatingCashflow"`
	} `json:"financialData"`
	IncomeHistory struct {
		Statements []incomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceHistory struct {
		Statements []balanceStatement `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	CashflowHistory struct {
		Statements []cashflowStatement `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

type incomeStatement struct {
	EndDate      rawValue `json:"endDate"`
	TotalRevenue rawValue `json:"totalRevenue"`
	GrossProfit  rawValue `json:"grossProfit"`
	EBIT         rawValue `json:"ebit"`
	NetIncome    rawValue `json:"netIncome"`
	BasicEPS     rawValue `json:"basicEPS"`
}

type balanceStatement struct {
	EndDate           rawValue `json:"endDate"`
	TotalAssets       rawValue `json:"totalAssets"`
	StockholderEquity rawValue `json:"totalStockholderEquity"`
}

type cashflowStatement struct {
	EndDate           rawValue `json:"endDate"`
	OperatingCashFlow rawValue `json:"totalCashFromOperatingActivities"`
}
