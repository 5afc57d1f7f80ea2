// Package fx converts trade-currency P&L into account-currency terms for
// cross-asset portfolios, following quote/base/cross pair conventions.
package fx

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrMissingRate is returned when a required FX rate is absent from the
// supplied rate table.
var ErrMissingRate = errors.New("missing fx rate")

// ConvertToUSD converts amount (expressed in the pair's trade currency) to
// USD using the supplied rate table, keyed on normalized "BASE_QUOTE"
// pair names (hyphens are treated as underscores).
//
//   - quote currency is USD (e.g. EUR_USD): amount is already in USD.
//   - base currency is USD (e.g. USD_JPY): divide by the USD_JPY rate.
//   - neither: treat as a cross and divide by USD_<quote>.
func ConvertToUSD(amount decimal.Decimal, pair string, rates map[string]decimal.Decimal) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(pair, "-", "_")
	if !strings.Contains(normalized, "_") {
		return amount, nil
	}
	if strings.HasSuffix(normalized, "USD") {
		return amount, nil
	}
	if strings.HasPrefix(normalized, "USD_") {
		rate, ok := rates[normalized]
		if !ok {
			log.Warn().Str("pair", normalized).Strs("available_rates", rateKeys(rates)).Msg("fx rate lookup failed")
			return decimal.Zero, fmt.Errorf("%w for %s", ErrMissingRate, normalized)
		}
		return amount.Div(rate), nil
	}
	parts := strings.SplitN(normalized, "_", 2)
	quote := normalized
	if len(parts) == 2 {
		quote = parts[1]
	}
	usdPair := "USD_" + quote
	rate, ok := rates[usdPair]
	if !ok {
		log.Warn().Str("original_pair", normalized).Str("usd_pair", usdPair).Strs("available_rates", rateKeys(rates)).Msg("fx rate lookup failed for cross pair")
		return decimal.Zero, fmt.Errorf("%w for %s", ErrMissingRate, usdPair)
	}
	return amount.Div(rate), nil
}

func rateKeys(rates map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(rates))
	for k := range rates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
