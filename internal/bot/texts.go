package bot

import "strings"

// Texts is one locale's set of user-facing strings. Fields ending in Fmt are
// fmt format strings.
type Texts struct {
	ScanNow    string
	ChangePair string
	Top        string
	AutoOn     string
	AutoOff    string
	Back       string
	Language   string
	NewTokens  string
	LangPick   string
	LangEN     string
	LangRU     string
	LangUZ     string

	HomePairFmt     string // pair
	AskPair         string
	BadPair         string
	PairSetFmt      string // pair
	NoSpreads       string
	TopTitle        string
	AutoNowFmt      string // ON|OFF
	NewOppFmt       string // pair, pct, buy label, buy price, sell label, sell price
	FeesNote        string
	ExchangesTitle  string
	NoQuotesFmt     string // pair
	NoPositive      string
	BuyLineFmt      string // label, price
	SellLineFmt     string // label, price
	GrossLineFmt    string // pct, fees note
	TopLineFmt      string // buy label, buy price, sell label, sell price
	NewTokensTitle  string
	NewTokensEmpty  string
	NewTokensHint   string
	NewTokenLineFmt string // symbol, name, date
	InfoNotFound    string
	InfoTitleFmt    string // symbol, name
	InfoPriceFmt    string
	InfoMcapFmt     string
	InfoVolFmt      string
	InfoChangeFmt   string
	InfoNote        string
	ThresholdSetFmt string // pct
	ThresholdNowFmt string // pct
	ThresholdUsage  string
	SlowDown        string
}

// DefaultLocale is used for unknown locale codes.
const DefaultLocale = "en"

var locales = map[string]Texts{
	"en": {
		ScanNow:    "Scan Now",
		ChangePair: "Change Pair",
		Top:        "Top Opportunities",
		AutoOn:     "Auto: ON",
		AutoOff:    "Auto: OFF",
		Back:       "Back",
		Language:   "Language",
		NewTokens:  "New Tokens",
		LangPick:   "Choose language:",
		LangEN:     "English",
		LangRU:     "Русский",
		LangUZ:     "Oʻzbekcha",

		HomePairFmt:     "Pair: <b>%s</b>\nTap <b>Scan Now</b> to fetch prices.",
		AskPair:         "Type a symbol like <b>btc</b>, <b>BTCUSDT</b>, or <b>BTC/USDT</b>.",
		BadPair:         "Didn't understand. Example: <b>eth</b> or <b>ETHUSDT</b>.",
		PairSetFmt:      "Pair set to <b>%s</b>.",
		NoSpreads:       "No positive spreads right now.",
		TopTitle:        "<b>Top Opportunities</b>",
		AutoNowFmt:      "Auto scan: <b>%s</b>.",
		NewOppFmt:       "🔥 New opportunity: <b>%s</b> — <b>%.2f%%</b>\nBuy @ %s %s | Sell @ %s %s",
		FeesNote:        "(fees/slippage not included)",
		ExchangesTitle:  "exch         bid        ask",
		NoQuotesFmt:     "No quotes for %s.",
		NoPositive:      "ℹ️ No positive spread right now.",
		BuyLineFmt:      "📥 Buy @ <b>%s</b> ask <b>%s</b>",
		SellLineFmt:     "📤 Sell @ <b>%s</b> bid <b>%s</b>",
		GrossLineFmt:    "🧮 Gross spread ≈ <b>%.2f%%</b> %s",
		TopLineFmt:      "  Buy @ %s %s | Sell @ %s %s",
		NewTokensTitle:  "<b>Recently Added Coins</b>",
		NewTokensEmpty:  "No new coins found right now.",
		NewTokensHint:   "Tip: type <code>info TON</code> (replace with any symbol) for details.\nNot financial advice — DYOR.",
		NewTokenLineFmt: "• %s — %s  (since %s)",
		InfoNotFound:    "No info for that symbol.",
		InfoTitleFmt:    "<b>%s</b> — %s",
		InfoPriceFmt:    "Price: $%s",
		InfoMcapFmt:     "Market cap: $%s",
		InfoVolFmt:      "24h volume: $%s",
		InfoChangeFmt:   "24h change: %s%%",
		InfoNote:        "Not financial advice — DYOR.",
		ThresholdSetFmt: "Auto alert threshold set to <b>%.2f%%</b>.",
		ThresholdNowFmt: "Auto alert threshold: <b>%.2f%%</b>.\nChange it with <code>/threshold 0.5</code>.",
		ThresholdUsage:  "Usage: <code>/threshold 0.5</code> (percent, 0 or more).",
		SlowDown:        "Too many requests. Try again in a moment.",
	},
	"ru": {
		ScanNow:    "Сканировать",
		ChangePair: "Пара",
		Top:        "Топ возможностей",
		AutoOn:     "Авто: ВКЛ",
		AutoOff:    "Авто: ВЫКЛ",
		Back:       "Назад",
		Language:   "Язык",
		NewTokens:  "Новые токены",
		LangPick:   "Выберите язык:",
		LangEN:     "English",
		LangRU:     "Русский",
		LangUZ:     "Oʻzbekcha",

		HomePairFmt:     "Пара: <b>%s</b>\nНажмите <b>Сканировать</b> для получения цен.",
		AskPair:         "Введите символ: <b>btc</b>, <b>BTCUSDT</b> или <b>BTC/USDT</b>.",
		BadPair:         "Не понял. Пример: <b>eth</b> или <b>ETHUSDT</b>.",
		PairSetFmt:      "Пара установлена: <b>%s</b>.",
		NoSpreads:       "Сейчас нет положительного спреда.",
		TopTitle:        "<b>Топ возможностей</b>",
		AutoNowFmt:      "Авто-сканирование: <b>%s</b>.",
		NewOppFmt:       "🔥 Новая возможность: <b>%s</b> — <b>%.2f%%</b>\nПокупка @ %s %s | Продажа @ %s %s",
		FeesNote:        "(комиссии/проскальзывание не учтены)",
		ExchangesTitle:  "биржа        bid        ask",
		NoQuotesFmt:     "Нет котировок для %s.",
		NoPositive:      "ℹ️ Сейчас нет положительного спреда.",
		BuyLineFmt:      "📥 Покупка @ <b>%s</b> ask <b>%s</b>",
		SellLineFmt:     "📤 Продажа @ <b>%s</b> bid <b>%s</b>",
		GrossLineFmt:    "🧮 Валовый спред ≈ <b>%.2f%%</b> %s",
		TopLineFmt:      "  Покупка @ %s %s | Продажа @ %s %s",
		NewTokensTitle:  "<b>Недавно добавленные монеты</b>",
		NewTokensEmpty:  "Сейчас нет новых монет.",
		NewTokensHint:   "Подсказка: введите <code>info TON</code> (любой символ) для деталей.\nНе финсовет — DYOR.",
		NewTokenLineFmt: "• %s — %s  (с %s)",
		InfoNotFound:    "Нет данных по этому символу.",
		InfoTitleFmt:    "<b>%s</b> — %s",
		InfoPriceFmt:    "Цена: $%s",
		InfoMcapFmt:     "Капитализация: $%s",
		InfoVolFmt:      "Объём 24ч: $%s",
		InfoChangeFmt:   "Изм. 24ч: %s%%",
		InfoNote:        "Не финсовет — DYOR.",
		ThresholdSetFmt: "Порог авто-уведомлений: <b>%.2f%%</b>.",
		ThresholdNowFmt: "Порог авто-уведомлений: <b>%.2f%%</b>.\nИзменить: <code>/threshold 0.5</code>.",
		ThresholdUsage:  "Формат: <code>/threshold 0.5</code> (процент, 0 или больше).",
		SlowDown:        "Слишком много запросов. Попробуйте чуть позже.",
	},
	"uz": {
		ScanNow:    "Skan Qil",
		ChangePair: "Juftlik",
		Top:        "Eng yaxshi imkoniyatlar",
		AutoOn:     "Avto: YOQILGAN",
		AutoOff:    "Avto: O‘CHIRILGAN",
		Back:       "Orqaga",
		Language:   "Til",
		NewTokens:  "Yangi tokenlar",
		LangPick:   "Tilni tanlang:",
		LangEN:     "English",
		LangRU:     "Русский",
		LangUZ:     "Oʻzbekcha",

		HomePairFmt:     "Juftlik: <b>%s</b>\nNarxlarni olish uchun <b>Skan Qil</b> tugmasini bosing.",
		AskPair:         "Belgini yozing: <b>btc</b>, <b>BTCUSDT</b> yoki <b>BTC/USDT</b>.",
		BadPair:         "Tushunmadim. Masalan: <b>eth</b> yoki <b>ETHUSDT</b>.",
		PairSetFmt:      "Juftlik o‘rnatildi: <b>%s</b>.",
		NoSpreads:       "Hozir ijobiy spreddan yo‘q.",
		TopTitle:        "<b>Eng yaxshi imkoniyatlar</b>",
		AutoNowFmt:      "Avto skan: <b>%s</b>.",
		NewOppFmt:       "🔥 Yangi imkoniyat: <b>%s</b> — <b>%.2f%%</b>\nSotib olish @ %s %s | Sotish @ %s %s",
		FeesNote:        "(komissiya/slippage hisobga olinmagan)",
		ExchangesTitle:  "birja        bid        ask",
		NoQuotesFmt:     "%s uchun narxlar yo‘q.",
		NoPositive:      "ℹ️ Hozir ijobiy spred yo‘q.",
		BuyLineFmt:      "📥 Sotib olish @ <b>%s</b> ask <b>%s</b>",
		SellLineFmt:     "📤 Sotish @ <b>%s</b> bid <b>%s</b>",
		GrossLineFmt:    "🧮 Yalpi spred ≈ <b>%.2f%%</b> %s",
		TopLineFmt:      "  Sotib olish @ %s %s | Sotish @ %s %s",
		NewTokensTitle:  "<b>Yaqinda qo‘shilgan tanga</b>",
		NewTokensEmpty:  "Hozircha yangi tanga yo‘q.",
		NewTokensHint:   "Maslahat: tafsilotlar uchun <code>info TON</code> deb yozing.\nMoliyaviy maslahat emas — DYOR.",
		NewTokenLineFmt: "• %s — %s  (%s dan)",
		InfoNotFound:    "Bu simbol uchun ma’lumot yo‘q.",
		InfoTitleFmt:    "<b>%s</b> — %s",
		InfoPriceFmt:    "Narx: $%s",
		InfoMcapFmt:     "Bozor kapit.: $%s",
		InfoVolFmt:      "24 soat hajm: $%s",
		InfoChangeFmt:   "24 soat o‘zgarish: %s%%",
		InfoNote:        "Moliyaviy maslahat emas — DYOR.",
		ThresholdSetFmt: "Avto ogohlantirish chegarasi: <b>%.2f%%</b>.",
		ThresholdNowFmt: "Avto ogohlantirish chegarasi: <b>%.2f%%</b>.\nO‘zgartirish: <code>/threshold 0.5</code>.",
		ThresholdUsage:  "Foydalanish: <code>/threshold 0.5</code> (foiz, 0 yoki ko‘proq).",
		SlowDown:        "So‘rovlar juda ko‘p. Birozdan so‘ng urinib ko‘ring.",
	},
}

// Lookup returns the texts for locale, falling back to DefaultLocale.
func Lookup(locale string) Texts {
	if tx, ok := locales[locale]; ok {
		return tx
	}
	return locales[DefaultLocale]
}

// KnownLocale reports whether locale has a text set.
func KnownLocale(locale string) bool {
	_, ok := locales[locale]
	return ok
}

// uiWords holds every button label of every locale, uppercased.
var uiWords = func() map[string]bool {
	words := make(map[string]bool)
	for _, tx := range locales {
		for _, w := range []string{
			tx.ScanNow, tx.ChangePair, tx.Top, tx.AutoOn, tx.AutoOff, tx.Back,
			tx.Language, tx.NewTokens, tx.LangEN, tx.LangRU, tx.LangUZ,
		} {
			words[strings.ToUpper(w)] = true
		}
	}
	return words
}()

// IsUIWord reports whether text is a keyboard label in any locale. Such text
// is never treated as a pair symbol.
func IsUIWord(text string) bool {
	return uiWords[strings.ToUpper(strings.TrimSpace(text))]
}

// localeForButton maps a language button label to its locale code.
func localeForButton(text string) (string, bool) {
	switch text {
	case locales["en"].LangEN:
		return "en", true
	case locales["ru"].LangRU:
		return "ru", true
	case locales["uz"].LangUZ:
		return "uz", true
	}
	return "", false
}
