package service

import (
	"fmt"
	"sort"
	"strings"

	"challenge_desk/internal/models"
)

// Summary renders v as a few lines of plain text.
func Summary(v models.DashboardView) string {
	var b strings.Builder
	if !v.HasChallenge {
		b.WriteString("📭 No active challenge\n")
	} else {
		ch := v.Challenge
		sign := "+"
		if !v.IsProfit {
			sign = ""
		}
		fmt.Fprintf(&b, "📊 Challenge #%d %s [%s]\n", ch.ID, ch.PlanName, ch.Status)
		fmt.Fprintf(&b, "Equity %s / %s  (%s%.2f%%)\n",
			ch.Equity.StringFixed(2), ch.InitialBalance.StringFixed(2), sign, v.ProfitPct)
		fmt.Fprintf(&b, "Target %.0f%%: %.0f%% reached\n", v.Limits.ProfitTargetPct, v.ProgressTowardTarget*100)
		fmt.Fprintf(&b, "Daily %.2f%%, loss limit %.0f%% used\n", v.DailyPnlPct, v.DailyLossUsed*100)
		fmt.Fprintf(&b, "Cash %s, unrealized %s\n", ch.CurrentBalance.StringFixed(2), v.TotalUnrealizedPnl.StringFixed(2))

		if len(v.Positions) == 0 {
			b.WriteString("No open positions\n")
		}
		for _, p := range v.Positions {
			fmt.Fprintf(&b, "- %s x%s @ %s pnl=%s\n",
				p.Symbol, p.Quantity.String(), p.AvgEntryPrice.StringFixed(2), p.UnrealizedPnl.StringFixed(2))
		}
		for _, t := range v.RecentTrades {
			fmt.Fprintf(&b, "  %s %s x%s @ %s\n",
				strings.ToUpper(string(t.Side)), t.Symbol, t.Quantity.String(), t.EntryPrice.StringFixed(2))
		}
	}

	if len(v.SourceErrors) > 0 {
		srcs := make([]string, 0, len(v.SourceErrors))
		for src := range v.SourceErrors {
			srcs = append(srcs, string(src))
		}
		sort.Strings(srcs)
		for _, src := range srcs {
			fmt.Fprintf(&b, "⚠️ %s: %s\n", src, v.SourceErrors[models.Source(src)])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// EndedNotice is sent when a challenge stops being active.
func EndedNotice(last models.DashboardView) string {
	ch := last.Challenge
	return fmt.Sprintf("🏁 Challenge #%d %s is no longer active. Last equity %s (%.2f%%)",
		ch.ID, ch.PlanName, ch.Equity.StringFixed(2), last.ProfitPct)
}
