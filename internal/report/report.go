// Package report renders a reconciled month for export.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messmate/internal/ledger"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

// ParseFormat accepts json, csv or text in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatCSV, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (use json, csv or text)", s)
}

var csvHeader = []string{
	"user_id", "name", "role", "meals", "meal_cost", "shared_cost",
	"individual_cost", "total_cost", "deposit", "balance",
}

// Write renders result in the given format.
func Write(w io.Writer, result *ledger.Result, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("write report json: %w", err)
		}
		return nil
	case FormatCSV:
		return writeCSV(w, result)
	case FormatText:
		return writeText(w, result)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// writeCSV emits one row per member with amounts fixed to two decimals.
func writeCSV(w io.Writer, result *ledger.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write report csv header: %w", err)
	}
	for _, m := range result.MemberSummaries {
		record := []string{
			m.UserID,
			m.Name,
			role(m),
			Quantity(m.TotalMeals),
			Money(m.MealCost),
			Money(m.SharedCost),
			Money(m.IndividualCost),
			Money(m.TotalCost),
			Money(m.TotalDeposit),
			Money(m.Balance),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write report csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush report csv: %w", err)
	}
	return nil
}

func writeText(w io.Writer, result *ledger.Result) error {
	fmt.Fprintf(w, "%s\n", result.MonthName)
	fmt.Fprintf(w, "Members: %d  Meals: %s  Meal rate: %s\n",
		result.TotalMembers, Quantity(result.TotalMeals), Money(result.MealRate))
	fmt.Fprintf(w, "Deposits: %s  Costs: %s  Mess balance: %s\n",
		Money(result.TotalDeposit), Money(result.TotalCost), Money(result.MessBalance))
	fmt.Fprintf(w, "Meal: %s  Shared: %s  Individual: %s\n\n",
		Money(result.Breakdown.MealCost), Money(result.Breakdown.SharedCost), Money(result.Breakdown.IndividualCost))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "NAME\tMEALS\tMEAL COST\tSHARED\tINDIVIDUAL\tTOTAL\tDEPOSIT\tBALANCE\t")
	for _, m := range result.MemberSummaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			m.Name, Quantity(m.TotalMeals), Money(m.MealCost), Money(m.SharedCost),
			Money(m.IndividualCost), Money(m.TotalCost), Money(m.TotalDeposit), Money(m.Balance))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report table: %w", err)
	}

	transfers := ledger.Settle(result.MemberSummaries)
	if len(transfers) == 0 {
		fmt.Fprintln(w, "\nSettled.")
		return nil
	}
	fmt.Fprintln(w, "\nSettlement:")
	for _, t := range transfers {
		fmt.Fprintf(w, "  %s pays %s %s\n", t.FromName, t.ToName, Money(t.Amount))
	}
	return nil
}

func role(m ledger.MemberSummary) string {
	if m.Former {
		return "former"
	}
	return string(m.Role)
}

// Money formats an amount rounded half away from zero to two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Quantity formats a meal count, which moves in halves.
func Quantity(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}
