package handlers

import (
	"fmt"
	"strings"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/metrics"
	"github.com/avoronova/fieldpulse-api/internal/models"
	"github.com/avoronova/fieldpulse-api/internal/progress"
)

// operationalDefectsBlock is appended to combined team summaries. The numbers
// are filled in by hand by the teamlead before forwarding, so the template
// ships with zeroes.
const operationalDefectsBlock = `Опер.дефекты
1. Отрицательные заключение - нет шт.
2. Выход из МФ - 0 шт.
3. ИП с ограничениями - 0 шт.
4. Передача досье кредиты , ЗП , ТЭ - 0 шт.
5. Кредитные сделки на 1 стадии до 5 дней - 0 шт.
6. Наличие комментариев по встречам
7. Сформирована Повестка БУ-0`

func loadQuestions() []models.Question {
	var questions []models.Question
	database.DB.Order("position ASC").Find(&questions)
	return questions
}

func loadProducts() []models.ProductOption {
	var products []models.ProductOption
	database.DB.Order("position ASC").Find(&products)
	return products
}

// renderReport renders a payload as the text block agents and teamleads see:
// one line per questionnaire item, recorded-meetings and credit-potential
// rates derived against total meetings, then a product breakdown.
func renderReport(questions []models.Question, products []models.ProductOption, p models.ReportPayload) string {
	var b strings.Builder
	b.WriteString("Производительность\n")

	meetings := metrics.ParseNumber(p.Values["meetings"])
	recordedPct := metrics.Percent(metrics.ParseNumber(p.Values["meetings_recorded"]), meetings)
	creditPct := metrics.Percent(metrics.ParseNumber(p.Values["credit_potential"]), meetings)

	for _, q := range questions {
		val := metrics.FormatString(p.Values[q.Key])
		switch q.Key {
		case "meetings_recorded":
			fmt.Fprintf(&b, "%s %s (%s)\n", q.Text, val, recordedPct)
		case "credit_potential":
			fmt.Fprintf(&b, "%s %s (%s)\n", q.Text, val, creditPct)
		default:
			fmt.Fprintf(&b, "%s %s\n", q.Text, val)
		}
	}

	b.WriteString("\nФЦКП (детализация):\n")
	counts := make(map[string]int)
	for _, name := range p.Products {
		counts[name]++
	}
	for _, opt := range products {
		fmt.Fprintf(&b, "%s - %s шт\n", opt.Name, metrics.FormatValue(float64(counts[opt.Name])))
	}

	return strings.TrimRight(b.String(), "\n")
}

// combinePayloads merges a team's reports for one day: numeric answers are
// summed (unparsable values count as zero), product selections concatenated,
// and the realized-product total recomputed from the merged list.
func combinePayloads(payloads []models.ReportPayload) models.ReportPayload {
	sums := make(map[string]float64)
	products := []string{}
	for _, p := range payloads {
		for k, v := range p.Values {
			sums[k] += metrics.ParseNumber(v)
		}
		products = append(products, p.Products...)
	}

	values := make(map[string]string, len(sums))
	for k, total := range sums {
		values[k] = metrics.FormatValue(total)
	}
	values["fckp_realized"] = metrics.FormatValue(float64(len(products)))

	return models.ReportPayload{
		Values:   values,
		Products: products,
	}
}

// leaderboardLines renders ranked entries the way chat clients expect them.
func leaderboardLines(entries []progress.Entry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%s %s — %s", e.Marker, e.Name, metrics.FormatValue(e.Score))
	}
	return lines
}
