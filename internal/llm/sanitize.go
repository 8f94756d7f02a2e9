package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/docupay/invoice-capture/constants"
)

var (
	reDecimal   = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)
	reAmountSep = regexp.MustCompile(`[,\s]`)
	reCurrency  = regexp.MustCompile(`^[A-Z]{3}$`)
)

var recordKeys = []string{
	"payee", "tin", "address", "sib", "amount", "amountinwords",
	"currency", "category", "purpose", "accountnum", "mobilenum",
}

// NormalizeAndSanitizeJSON repairs a model response that is close to valid:
// - trims strings and converts "" / "null" to null
// - coerces numeric amounts to canonical decimal strings
// - normalizes currency spellings and peso symbols to 3-letter codes
// - canonicalizes category, falling back to Others
// - adds missing keys as null and removes unknown keys
// The strict schema is re-applied by the caller afterwards.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string
	note := func(k, what string) { changed = append(changed, k+"("+what+")") }

	// null out empty strings everywhere first
	for k, v := range m {
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" || strings.EqualFold(s, "null") {
				m[k] = nil
				note(k, "empty")
			} else {
				m[k] = s
			}
		}
	}

	// amount: accept numbers and decorated strings, emit canonical decimal
	if v, ok := m["amount"]; ok && v != nil {
		switch t := v.(type) {
		case float64:
			m["amount"] = strconv.FormatFloat(t, 'f', 2, 64)
			note("amount", "numeric")
		case string:
			s := reAmountSep.ReplaceAllString(t, "")
			s = strings.TrimPrefix(s, "PHP")
			s = strings.TrimPrefix(s, "₱")
			s = strings.TrimPrefix(s, "P")
			s = strings.TrimPrefix(s, "$")
			if s != t {
				note("amount", "decorated")
			}
			if !reDecimal.MatchString(s) {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					s = strconv.FormatFloat(f, 'f', 2, 64)
				} else {
					m["amount"] = nil
					note("amount", "unparseable")
					s = ""
				}
			}
			if s != "" {
				m["amount"] = s
			}
		default:
			m["amount"] = nil
			note("amount", "type")
		}
	}

	// currency: normalize symbols and casing to a 3-letter code
	if v, ok := m["currency"].(string); ok {
		if c := NormalizeCurrency(v); c == "" {
			m["currency"] = nil
			note("currency", "unknown")
		} else if c != v {
			m["currency"] = c
			note("currency", "normalized")
		}
	}

	// category: closed enum with Others as the fallback
	switch v := m["category"].(type) {
	case string:
		canon, ok := constants.Canonicalize(v)
		if !ok {
			note("category", "fallback")
		}
		m["category"] = string(canon)
	default:
		m["category"] = string(constants.Others)
		note("category", "missing")
	}

	// exactly the schema keys: add missing as null, remove unknown
	for _, k := range recordKeys {
		if _, ok := m[k]; !ok {
			m[k] = nil
			note(k, "added")
		}
	}
	allowed := make(map[string]struct{}, len(recordKeys))
	for _, k := range recordKeys {
		allowed[k] = struct{}{}
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			note(k, "unknown")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.extract.sanitize", "changed", changed)
	}
	return out, changed, nil
}

// NormalizeCurrency maps currency symbols and loose spellings to a 3-letter
// code; returns "" when the input cannot be resolved.
func NormalizeCurrency(v string) string {
	s := strings.ToUpper(strings.TrimSpace(v))
	switch s {
	case "P", "₱", "PHP", "PESO", "PESOS", "PHILIPPINE PESO":
		return "PHP"
	case "$", "USD", "US$", "DOLLAR", "DOLLARS":
		return "USD"
	case "€", "EUR":
		return "EUR"
	}
	if reCurrency.MatchString(s) {
		return s
	}
	return ""
}
