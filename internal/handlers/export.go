package handlers

import (
	"bytes"
	"encoding/csv"

	"github.com/gofiber/fiber/v2"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/metrics"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

func sendCSV(c *fiber.Ctx, filename string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build export",
		})
	}
	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

// ExportTeamSummary downloads one team's rollup for the day as CSV: one row
// per questionnaire item, then the product breakdown.
func ExportTeamSummary(c *fiber.Ctx) error {
	owner := ownerParam(c.Params("owner"))
	date := dateQuery(c)

	var summary models.TeamSummary
	err := database.DB.Where("owner_name = ? AND report_date = ?", owner, date).First(&summary).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No summary for " + owner + " on " + date,
		})
	}

	rows := [][]string{{"Показатель", owner}}
	for _, q := range loadQuestions() {
		rows = append(rows, []string{q.Text, metrics.FormatString(summary.Payload.Values[q.Key])})
	}

	counts := make(map[string]int)
	for _, name := range summary.Payload.Products {
		counts[name]++
	}
	rows = append(rows, []string{"", ""})
	for _, opt := range loadProducts() {
		rows = append(rows, []string{"ФЦКП " + opt.Name, metrics.FormatValue(float64(counts[opt.Name]))})
	}

	return sendCSV(c, "summary_"+date+".csv", rows)
}

// ExportGlobalSummary downloads every published rollup for the day side by
// side, with a totals column.
func ExportGlobalSummary(c *fiber.Ctx) error {
	date := dateQuery(c)

	var summaries []models.TeamSummary
	if err := database.DB.Where("report_date = ?", date).Order("owner_name ASC").Find(&summaries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load summaries",
		})
	}
	if len(summaries) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No summaries for " + date,
		})
	}

	header := []string{"Показатель"}
	for _, s := range summaries {
		header = append(header, s.OwnerName)
	}
	header = append(header, "Итого")
	rows := [][]string{header}

	for _, q := range loadQuestions() {
		row := []string{q.Text}
		total := 0.0
		for _, s := range summaries {
			v := metrics.ParseNumber(s.Payload.Values[q.Key])
			total += v
			row = append(row, metrics.FormatValue(v))
		}
		row = append(row, metrics.FormatValue(total))
		rows = append(rows, row)
	}

	for _, opt := range loadProducts() {
		row := []string{"ФЦКП " + opt.Name}
		total := 0
		for _, s := range summaries {
			n := 0
			for _, name := range s.Payload.Products {
				if name == opt.Name {
					n++
				}
			}
			total += n
			row = append(row, metrics.FormatValue(float64(n)))
		}
		row = append(row, metrics.FormatValue(float64(total)))
		rows = append(rows, row)
	}

	return sendCSV(c, "global_"+date+".csv", rows)
}
