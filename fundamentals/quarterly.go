package fundamentals

import (
	"fmt"

	"marketdata-pipeline/database/relational"
)

// statementFunctions are the three vendor functions quarterly pulls, in
// the order their flattened results get bulk-upserted.
var statementFunctions = []string{"INCOME_STATEMENT", "BALANCE_SHEET", "CASH_FLOW"}

// QuarterlyJob pulls INCOME_STATEMENT/BALANCE_SHEET/CASH_FLOW for each
// symbol, flattens annual and quarterly reports into one list per
// statement type, and bulk UPSERTs each, per spec.md §4.G.
type QuarterlyJob struct {
	Symbols []string
	Vendor  vendorClient
	Repo    relationalRepo
}

func (j *QuarterlyJob) Name() string { return "quarterly" }

func (j *QuarterlyJob) Run() Result {
	var result Result

	var incomeRows []relational.IncomeStatement
	var balanceRows []relational.BalanceSheet
	var cashFlowRows []relational.CashFlow

	for _, symbol := range j.Symbols {
		for _, function := range statementFunctions {
			reports, ok, err := j.Vendor.FinancialStatement(function, symbol)
			if err != nil {
				result.recordError(fmt.Errorf("quarterly: %s %s: %w", function, symbol, err))
				continue
			}
			if !ok {
				result.recordError(fmt.Errorf("quarterly: %s %s: %w", function, symbol, errNoResponse))
				continue
			}
			result.recordSuccess()

			switch function {
			case "INCOME_STATEMENT":
				for _, r := range reports {
					incomeRows = append(incomeRows, relational.IncomeStatement{
						Symbol:           symbol,
						FiscalDateEnding: r.FiscalDateEnding,
						ReportedCurrency: r.ReportedCurrency,
						TotalRevenue:     r.Fields["totalRevenue"],
						GrossProfit:      r.Fields["grossProfit"],
						NetIncome:        r.Fields["netIncome"],
						OperatingIncome:  r.Fields["operatingIncome"],
						EBITDA:           r.Fields["ebitda"],
					})
				}
			case "BALANCE_SHEET":
				for _, r := range reports {
					balanceRows = append(balanceRows, relational.BalanceSheet{
						Symbol:                 symbol,
						FiscalDateEnding:       r.FiscalDateEnding,
						ReportedCurrency:       r.ReportedCurrency,
						TotalAssets:            r.Fields["totalAssets"],
						TotalLiabilities:       r.Fields["totalLiabilities"],
						TotalShareholderEquity: r.Fields["totalShareholderEquity"],
						CashAndEquivalents:     r.Fields["cashAndCashEquivalentsAtCarryingValue"],
					})
				}
			case "CASH_FLOW":
				for _, r := range reports {
					cashFlowRows = append(cashFlowRows, relational.CashFlow{
						Symbol:                 symbol,
						FiscalDateEnding:       r.FiscalDateEnding,
						ReportedCurrency:       r.ReportedCurrency,
						OperatingCashflow:      r.Fields["operatingCashflow"],
						CashflowFromInvestment: r.Fields["cashflowFromInvestment"],
						CashflowFromFinancing:  r.Fields["cashflowFromFinancing"],
						NetIncome:              r.Fields["netIncome"],
					})
				}
			}
		}
	}

	if err := j.Repo.UpsertIncomeStatements(incomeRows); err != nil {
		result.recordError(fmt.Errorf("quarterly: upsert income statements: %w", err))
	}
	if err := j.Repo.UpsertBalanceSheets(balanceRows); err != nil {
		result.recordError(fmt.Errorf("quarterly: upsert balance sheets: %w", err))
	}
	if err := j.Repo.UpsertCashFlows(cashFlowRows); err != nil {
		result.recordError(fmt.Errorf("quarterly: upsert cash flows: %w", err))
	}

	return result
}
