package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"TokenChart/internal/chart"
	"TokenChart/internal/model"
)

// FormatPrice prints small token prices with enough significant digits.
func FormatPrice(p float64) string {
	switch {
	case p == 0:
		return "$0"
	case p >= 1:
		return fmt.Sprintf("$%.4f", p)
	default:
		digits := int(math.Ceil(-math.Log10(p))) + 3
		if digits > 12 {
			digits = 12
		}
		return fmt.Sprintf("$%.*f", digits, p)
	}
}

// FormatChartReport renders one chart load as an HTML chat message.
func FormatChartReport(res *chart.Result) string {
	var b strings.Builder
	asset := html.EscapeString(res.Asset)

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s | %s UTC\n\n", asset, res.Window, res.LoadedAt.UTC().Format("2006-01-02 15:04")))

	switch res.State {
	case chart.StateError:
		b.WriteString("❌ Failed to load trading data.\n")
		if res.Err != nil {
			b.WriteString(fmt.Sprintf("<code>%s</code>\n", html.EscapeString(res.Err.Error())))
		}
		b.WriteString("Try again with /chart.")
		return b.String()
	case chart.StateNoData:
		b.WriteString("No trading data yet. Try a longer window, e.g. <code>/chart " + asset + " all</code>.")
		return b.String()
	case chart.StateLastKnown:
		b.WriteString(fmt.Sprintf("No trades in the last %s.\n", res.Window))
		b.WriteString(fmt.Sprintf("Last known price: %s", FormatPrice(res.Summary.LastPrice)))
		if res.LastKnown != nil {
			b.WriteString(fmt.Sprintf(" (%s)", res.LastKnown.Timestamp.UTC().Format("2006-01-02 15:04")))
		}
		b.WriteString("\n")
		return b.String()
	}

	s := res.Summary
	b.WriteString(fmt.Sprintf("Price: %s (%+.2f%%)\n", FormatPrice(s.LastPrice), s.PriceChangePercent))
	b.WriteString(fmt.Sprintf("High: %s | Low: %s\n", FormatPrice(s.High), FormatPrice(s.Low)))
	b.WriteString(fmt.Sprintf("Avg: %s\n", FormatPrice(s.AvgPrice)))
	b.WriteString(fmt.Sprintf("Volume: $%.2f | Trades: %d\n", s.TotalVolume, s.TotalTrades))
	b.WriteString(fmt.Sprintf("Buckets: %d\n", len(res.Series)))
	return b.String()
}

// FormatWindows lists the selectable chart windows.
func FormatWindows() string {
	names := make([]string, len(model.Windows))
	for i, w := range model.Windows {
		names[i] = string(w)
	}
	return "Windows: " + strings.Join(names, ", ")
}
