package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/factorlab/screener/internal/core"
	"github.com/factorlab/screener/internal/provider"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// AlphaVantage implements the fallback fundamentals provider. Unlike
// the primary it requires an API key, ships numerics as strings with
// "None" for missing figures, and signals rate limiting inside a 200
// response body. The free tier allows very few calls per minute, so
// its budget should be configured far below the primary's.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  *http.Client
	budget  *provider.Budget
}

// New creates a new Alpha Vantage provider.
func New(baseURL, apiKey string, timeout time.Duration, budget *provider.Budget) *AlphaVantage {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AlphaVantage{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		budget:  budget,
	}
}

func (a *AlphaVantage) Name() string {
	return "alphavantage"
}

// FetchFundamentals assembles one record from the overview, quote,
// statement and earnings endpoints. Every endpoint call is charged
// against the provider budget separately.
func (a *AlphaVantage) FetchFundamentals(ctx context.Context, symbol string, lookbackYears int) (*core.Fundamentals, error) {
	if a.apiKey == "" {
		return nil, core.WrapError(core.ErrAuthFailed, fmt.Errorf("api key is required"))
	}
	if err := provider.ValidateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, err)
	}

	var overview overviewResponse
	if err := a.get(ctx, "OVERVIEW", symbol, &overview); err != nil {
		return nil, err
	}
	if overview.Symbol == "" {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no overview for symbol: %s", symbol))
	}

	var quote quoteResponse
	if err := a.get(ctx, "GLOBAL_QUOTE", symbol, &quote); err != nil {
		return nil, err
	}

	var income statementResponse
	if err := a.get(ctx, "INCOME_STATEMENT", symbol, &income); err != nil {
		return nil, err
	}
	var balance statementResponse
	if err := a.get(ctx, "BALANCE_SHEET", symbol, &balance); err != nil {
		return nil, err
	}
	var cashflow statementResponse
	if err := a.get(ctx, "CASH_FLOW", symbol, &cashflow); err != nil {
		return nil, err
	}

	var earnings earningsResponse
	if err := a.get(ctx, "EARNINGS", symbol, &earnings); err != nil {
		return nil, err
	}

	return a.toFundamentals(symbol, lookbackYears, overview, quote, income, balance, cashflow, earnings), nil
}

func (a *AlphaVantage) get(ctx context.Context, function, symbol string, out any) error {
	if err := a.budget.Wait(ctx); err != nil {
		return core.WrapError(core.ErrProviderTimeout, err)
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return core.WrapError(core.ErrNetwork, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return core.WrapError(core.ErrProviderTimeout, err)
		}
		return core.WrapError(core.ErrNetwork, fmt.Errorf("%s request: %w", function, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.WrapError(core.ErrMalformedResponse, fmt.Errorf("%s: unexpected status %d", function, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.WrapError(core.ErrNetwork, fmt.Errorf("%s: reading body: %w", function, err))
	}

	// Alpha Vantage reports throttling and bad calls inside a 200
	// response, so the envelope has to be inspected before the payload.
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return core.WrapError(core.ErrMalformedResponse, fmt.Errorf("%s: decoding envelope: %w", function, err))
	}
	if env.Note != "" || env.Information != "" {
		return core.WrapError(core.ErrRateLimited, fmt.Errorf("%s: provider note: %s%s", function, env.Note, env.Information))
	}
	if env.ErrorMessage != "" {
		if strings.Contains(strings.ToLower(env.ErrorMessage), "apikey") {
			return core.WrapError(core.ErrAuthFailed, fmt.Errorf("%s: %s", function, env.ErrorMessage))
		}
		return core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s: %s", function, env.ErrorMessage))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return core.WrapError(core.ErrMalformedResponse, fmt.Errorf("%s: decoding payload: %w", function, err))
	}
	return nil
}

func (a *AlphaVantage) toFundamentals(symbol string, lookbackYears int,
	overview overviewResponse, quote quoteResponse,
	income, balance, cashflow statementResponse, earnings earningsResponse) *core.Fundamentals {

	f := &core.Fundamentals{
		Symbol:    symbol,
		Source:    a.Name(),
		FetchedAt: time.Now(),

		Price:             parseNum(quote.GlobalQuote.Price),
		TrailingEPS:       parseNum(overview.EPS),
		BookValuePerShare: parseNum(overview.BookValue),
	}

	// Overview carries a forward P/E rather than a forward EPS; derive
	// the EPS from the current price when both are usable.
	if fpe := parseNum(overview.ForwardPE); fpe != nil && *fpe > 0 && f.Price != nil {
		f.ForwardEPS = core.Float(*f.Price / *fpe)
	}

	if len(income.AnnualReports) > 0 {
		latest := income.AnnualReports[0]
		f.EBIT = parseNum(latest.EBIT)
		f.NetIncome = parseNum(latest.NetIncome)
		f.GrossProfit = parseNum(latest.GrossProfit)
		f.Revenue = parseNum(latest.TotalRevenue)
	}
	if len(balance.AnnualReports) > 0 {
		latest := balance.AnnualReports[0]
		f.TotalAssets = parseNum(latest.TotalAssets)
		f.Equity = parseNum(latest.ShareholderEquity)

		// No enterprise value on the wire either: approximate as
		// market cap plus total debt minus cash.
		if mc := parseNum(overview.MarketCapitalization); mc != nil {
			ev := *mc
			if d := parseNum(latest.ShortTermDebt); d != nil {
				ev += *d
			}
			if d := parseNum(latest.LongTermDebt); d != nil {
				ev += *d
			}
			if c := parseNum(latest.Cash); c != nil {
				ev -= *c
			}
			f.EnterpriseValue = core.Float(ev)
		}
	}
	if len(cashflow.AnnualReports) > 0 {
		f.OperatingCashFlow = parseNum(cashflow.AnnualReports[0].OperatingCashflow)
	}

	f.EPSHistory = reportSeries(len(earnings.AnnualEarnings), lookbackYears,
		func(i int) *float64 { return parseNum(earnings.AnnualEarnings[i].ReportedEPS) })
	f.NetIncomeHistory = reportSeries(len(income.AnnualReports), lookbackYears,
		func(i int) *float64 { return parseNum(income.AnnualReports[i].NetIncome) })
	f.GrossProfitHistory = reportSeries(len(income.AnnualReports), lookbackYears,
		func(i int) *float64 { return parseNum(income.AnnualReports[i].GrossProfit) })
	f.RevenueHistory = reportSeries(len(income.AnnualReports), lookbackYears,
		func(i int) *float64 { return parseNum(income.AnnualReports[i].TotalRevenue) })
	f.TotalAssetsHistory = reportSeries(len(balance.AnnualReports), lookbackYears,
		func(i int) *float64 { return parseNum(balance.AnnualReports[i].TotalAssets) })
	f.EquityHistory = reportSeries(len(balance.AnnualReports), lookbackYears,
		func(i int) *float64 { return parseNum(balance.AnnualReports[i].ShareholderEquity) })
	f.OperatingCashFlowHistory = reportSeries(len(cashflow.AnnualReports), lookbackYears,
		func(i int) *float64 { return parseNum(cashflow.AnnualReports[i].OperatingCashflow) })

	return f
}

// reportSeries turns a newest-first annual report column into an
// oldest-first value slice capped at the lookback window.
func reportSeries(n, lookback int, get func(i int) *float64) []float64 {
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

// parseNum maps Alpha Vantage's string numerics to optional values.
// "None", "-" and the empty string all mean "not reported". A literal
// "0" stays present: for this source zero is a reported figure.
func parseNum(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// envelope holds the out-of-band fields Alpha Vantage mixes into any
// response body.
type envelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

type overviewResponse struct {
	Symbol               string `json:"Symbol"`
	EPS                  string `json:"EPS"`
	ForwardPE            string `json:"ForwardPE"`
	BookValue            string `json:"BookValue"`
	MarketCapitalization string `json:"MarketCapitalization"`
}

type quoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

type statementResponse struct {
	Symbol        string         `json:"symbol"`
	AnnualReports []annualReport `json:"annualReports"`
}

type annualReport struct {
	FiscalDateEnding  string `json:"fiscalDateEnding"`
	TotalRevenue      string `json:"totalRevenue"`
	GrossProfit       string `json:"grossProfit"`
	EBIT              string `json:"ebit"`
	NetIncome         string `json:"netIncome"`
	TotalAssets       string `json:"totalAssets"`
	ShareholderEquity string `json:"totalShareholderEquity"`
	ShortTermDebt     string `json:"shortTermDebt"`
	LongTermDebt      string `json:"longTermDebt"`
	Cash              string `json:"cashAndCashEquivalentsAtCarryingValue"`
	OperatingCashflow string `json:"operatingCashflow"`
}

type earningsResponse struct {
	Symbol         string `json:"symbol"`
	AnnualEarnings []struct {
		FiscalDateEnding string `json:"fiscalDateEnding"`
		ReportedEPS      string `json:"reportedEPS"`
	} `json:"annualEarnings"`
}
