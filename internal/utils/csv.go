package utils

import (
	"encoding/csv"
	"os"
	"strconv"

	"riskPlanner/internal/domain"
	"riskPlanner/internal/risk"
)

// WriteScenariosToCSV exports a scenario table for spreadsheet review.
func WriteScenariosToCSV(rows []risk.ScenarioRow, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"path", "probability", "total_pnl", "wins", "losses", "status"})

	for _, r := range rows {
		writer.Write([]string{
			r.PathPattern,
			strconv.FormatFloat(r.Probability, 'f', -1, 64),
			domain.FormatUSD(r.TotalPnlCents),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			string(r.Status),
		})
	}
	return writer.Error()
}

// WriteSituationsToCSV exports the worst-case trade sequence.
func WriteSituationsToCSV(situations []domain.TradeSituation, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"trade", "risk", "risk_label", "cumulative_loss_before", "worst_case_total"})

	for _, s := range situations {
		writer.Write([]string{
			strconv.Itoa(s.TradeNumber),
			domain.FormatUSD(s.RiskCents),
			s.RiskLabel,
			domain.FormatUSD(s.CumulativeLossBefore),
			domain.FormatUSD(s.WorstCaseTotalCents),
		})
	}
	return writer.Error()
}
