package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/spreadbot/internal/arbitrage"
	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// FormatPrice renders x with up to 10 decimals, trailing zeros trimmed, padded
// on the right to at least 8 characters.
func FormatPrice(x float64) string {
	s := trimZeros(decimal.NewFromFloat(x).StringFixed(10))
	if n := len(s); n < 8 {
		s += strings.Repeat(" ", 8-n)
	}
	return s
}

// FormatUSD renders a dollar amount compactly: B/M suffixes for large values,
// grouped thousands, 4 decimals from 1 and up to 8 below. Non-positive
// values render as "-".
func FormatUSD(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1_000_000_000:
		return d.Div(decimal.New(1, 9)).StringFixed(2) + "B"
	case v >= 1_000_000:
		return d.Div(decimal.New(1, 6)).StringFixed(2) + "M"
	case v >= 1_000:
		return groupThousands(d.StringFixed(0))
	case v >= 1:
		return d.StringFixed(4)
	case v > 0:
		return trimZeros(d.StringFixed(8))
	default:
		return "-"
	}
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

func groupThousands(digits string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// padLabel left-justifies label to width runes, cutting longer labels.
func padLabel(label string, width int) string {
	r := []rune(label)
	if len(r) >= width {
		return string(r[:width])
	}
	return label + strings.Repeat(" ", width-len(r))
}

// label returns the display label for an exchange key, or the key itself.
func label(labels map[string]string, exchange string) string {
	if l, ok := labels[exchange]; ok && l != "" {
		return l
	}
	return exchange
}

// RenderQuoteTable renders the per-exchange quote table for one pair followed
// by the best crossing or a no-spread line.
func RenderQuoteTable(tx Texts, qs domain.QuoteSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Arbitrage — %s</b>\n<pre>%s</pre>\n", qs.Pair, tx.ExchangesTitle)
	for _, q := range qs.Quotes {
		fmt.Fprintf(&b, "<pre>%s %10s %10s</pre>\n", padLabel(q.Label, 12), FormatPrice(q.Bid), FormatPrice(q.Ask))
	}

	opp := arbitrage.BestSpread(qs)
	if !opp.Profitable() {
		b.WriteString("\n" + tx.NoPositive)
		return b.String()
	}
	labels := qs.Labels()
	b.WriteString("\n")
	fmt.Fprintf(&b, tx.BuyLineFmt+"\n", label(labels, opp.BuyExchange), FormatPrice(opp.BuyPrice))
	fmt.Fprintf(&b, tx.SellLineFmt+"\n", label(labels, opp.SellExchange), FormatPrice(opp.SellPrice))
	fmt.Fprintf(&b, tx.GrossLineFmt, opp.Pct, tx.FeesNote)
	return b.String()
}

// RenderScan renders a scan result, distinguishing missing data from a
// missing spread.
func RenderScan(tx Texts, qs domain.QuoteSet) string {
	if qs.Empty() {
		return fmt.Sprintf(tx.NoQuotesFmt, qs.Pair)
	}
	return RenderQuoteTable(tx, qs)
}

// RenderTop renders a ranked opportunity list.
func RenderTop(tx Texts, top []domain.RankedOpportunity) string {
	if len(top) == 0 {
		return tx.NoSpreads
	}
	var b strings.Builder
	b.WriteString(tx.TopTitle + "\n")
	for i, opp := range top {
		labels := opp.Quotes.Labels()
		fmt.Fprintf(&b, "\n<b>%d) %s</b> — <b>%.2f%%</b>\n", i+1, opp.Pair, opp.Pct)
		fmt.Fprintf(&b, tx.TopLineFmt,
			label(labels, opp.BuyExchange), FormatPrice(opp.BuyPrice),
			label(labels, opp.SellExchange), FormatPrice(opp.SellPrice),
		)
	}
	return b.String()
}

// RenderAlert renders the watcher headline for opp.
func RenderAlert(tx Texts, opp domain.RankedOpportunity) string {
	labels := opp.Quotes.Labels()
	return fmt.Sprintf(tx.NewOppFmt,
		opp.Pair, opp.Pct,
		label(labels, opp.BuyExchange), FormatPrice(opp.BuyPrice),
		label(labels, opp.SellExchange), FormatPrice(opp.SellPrice),
	)
}

// RenderNewTokens renders recently listed assets. Catalog strings are
// HTML-escaped.
func RenderNewTokens(tx Texts, assets []domain.ListedAsset) string {
	if len(assets) == 0 {
		return tx.NewTokensEmpty
	}
	lines := []string{tx.NewTokensTitle}
	for _, a := range assets {
		since := ""
		if !a.FirstSeenAt.IsZero() {
			since = a.FirstSeenAt.UTC().Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf(tx.NewTokenLineFmt, html.EscapeString(orDash(a.Symbol)), html.EscapeString(orDash(a.Name)), since))
	}
	lines = append(lines, "", tx.NewTokensHint)
	return strings.Join(lines, "\n")
}

// RenderInfo renders catalog market data for one asset.
func RenderInfo(tx Texts, info domain.AssetInfo) string {
	change := "-"
	if info.PercentChange24h != nil {
		change = fmt.Sprintf("%.2f", *info.PercentChange24h)
	}
	return strings.Join([]string{
		fmt.Sprintf(tx.InfoTitleFmt, html.EscapeString(info.Symbol), html.EscapeString(info.Name)),
		fmt.Sprintf(tx.InfoPriceFmt, FormatUSD(info.PriceUSD)),
		fmt.Sprintf(tx.InfoMcapFmt, FormatUSD(info.MarketCapUSD)),
		fmt.Sprintf(tx.InfoVolFmt, FormatUSD(info.Volume24hUSD)),
		fmt.Sprintf(tx.InfoChangeFmt, change),
		tx.InfoNote,
	}, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// MainKeyboard is the home reply keyboard for a session.
func MainKeyboard(tx Texts, watcherEnabled bool) domain.Keyboard {
	auto := tx.AutoOff
	if watcherEnabled {
		auto = tx.AutoOn
	}
	return domain.Keyboard{
		{tx.ScanNow, tx.Top},
		{tx.ChangePair, tx.NewTokens},
		{auto},
		{tx.Language, tx.Back},
	}
}

// LanguageKeyboard offers every locale, each label in its own language.
func LanguageKeyboard() domain.Keyboard {
	return domain.Keyboard{{locales["en"].LangEN, locales["ru"].LangRU, locales["uz"].LangUZ}}
}

// Renderer builds watcher alert messages in each subscriber's locale.
type Renderer struct{}

// WatcherAlert returns the headline followed by the full quote table.
func (Renderer) WatcherAlert(s domain.Session, opp domain.RankedOpportunity) []domain.Message {
	tx := Lookup(s.Locale)
	kb := MainKeyboard(tx, s.WatcherEnabled)
	return []domain.Message{
		{Text: RenderAlert(tx, opp), Keyboard: kb},
		{Text: RenderQuoteTable(tx, opp.Quotes), Keyboard: kb},
	}
}
