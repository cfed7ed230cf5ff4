package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/ports"
)

// Console prints fills, settlements and the run summary to stdout.
type Console struct {
	out io.Writer
}

// NewConsole creates a reporter writing to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a reporter for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintFill prints one compact line per simulated buy.
func (c *Console) PrintFill(f domain.Fill) {
	fmt.Fprintf(c.out, "[%s] FILL %s %s %-4s %.4f x %.2f = $%.4f (%s)\n",
		f.TS.Format("15:04:05"), f.Symbol, shortSlug(f.Slug), f.Side,
		f.Price, f.Shares, f.USD, f.Note)
}

// PrintResult prints the settlement block for one market.
func (c *Console) PrintResult(r domain.MarketResult) {
	fmt.Fprintf(c.out, "\n[%s] SETTLED %s | winner %s\n",
		r.TS.Format("15:04:05"), r.Slug, r.Winner)

	table := tablewriter.NewWriter(c.out)
	table.Header("Side", "Shares", "Cost", "Avg")
	table.Append("UP", fmt.Sprintf("%.4f", r.UpShares),
		fmt.Sprintf("$%.4f", r.UpCost), avgLabel(r.UpCost, r.UpShares))
	table.Append("DOWN", fmt.Sprintf("%.4f", r.DownShares),
		fmt.Sprintf("$%.4f", r.DownCost), avgLabel(r.DownCost, r.DownShares))
	table.Render()

	fmt.Fprintf(c.out, "  pnl: $%+.4f  balance: $%.2f\n\n", r.PnL, r.BalanceAfter)
}

// PrintRunSummary prints the aggregate audit report on exit (or -report).
func (c *Console) PrintRunSummary(stats ports.RunStats, accounts map[string]*domain.Account) {
	fmt.Fprintf(c.out, "\n=== PAPER TRADING SUMMARY (%s) ===\n",
		time.Now().Format("2006-01-02 15:04:05"))

	symbols := make([]string, 0, len(accounts))
	for sym := range accounts {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Cash", "Fills", "Markets PnL")
	for _, sym := range symbols {
		table.Append(
			sym,
			fmt.Sprintf("$%.2f", accounts[sym].Cash),
			fmt.Sprintf("%d", stats.FillsBySymbol[sym]),
			fmt.Sprintf("$%+.4f", stats.PnLBySymbol[sym]),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  fills: %d ($%.2f bought) | markets settled: %d | total pnl: $%+.4f\n",
		stats.TotalFills, stats.TotalBuysUSD, stats.TotalMarkets, stats.TotalPnL)
}

func avgLabel(cost, shares float64) string {
	if shares <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f", cost/shares)
}

// shortSlug trims the long updown slug to its trailing window id.
func shortSlug(slug string) string {
	if len(slug) <= 24 {
		return slug
	}
	return "..." + slug[len(slug)-21:]
}
