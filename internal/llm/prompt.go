package llm

import (
	"slices"
	"strings"

	"github.com/docupay/invoice-capture/constants"
)

// BuildSystemPrompt composes the rule set that defines extraction correctness
// for this domain: payee disambiguation, self-entity exclusion, labeled-field
// scoping for numbers, and the strict null policy. The user message carries
// only the recognized document text.
func BuildSystemPrompt(req ExtractRequest) string {
	parts := []string{
		"You are an invoice and receipt parser.",
		"Return ONLY a single well-formed JSON object with exactly these keys and no prose: " +
			"payee, tin, address, sib, amount, amountinwords, currency, category, purpose, accountnum, mobilenum.",

		// payee selection:
		"'payee' is the entity that ISSUED the invoice or receipt and is to be paid, never the buyer or customer.",
		"Disambiguate the payee in this priority order: " +
			"if the text shows a 'From:'/'To:' pattern, the payee is the entity under 'From:'; " +
			"if the text shows 'SOLD TO:' or 'Customer Name:', the payee is NOT that labeled entity; " +
			"if an entity follows 'By:', that entity is the payee; " +
			"otherwise assume the payee is the entity listed first or nearest the top of the document.",
		"'tin' and 'address' must belong to the same entity chosen as payee.",
		"If the payee is ambiguous, set payee, tin and address all to null together; never fill one without the others.",

		// invoice/receipt/control number:
		"'sib' is the invoice/receipt/control number. Take it only from explicitly labeled fields: " +
			"Invoice No, Invoice Number, Sales Invoice, Official Receipt, OR No, SOA, or Billing No - " +
			"and only when that number belongs to the payee.",
		"Ignore numbers under unrelated labels such as Account Number, Permit Number, Acknowledgement Certificate or REF No. " +
			"If the number is ambiguous, set sib to null.",

		// money fields:
		"'amount' is the final total amount due payable to the payee. " +
			"When both VAT-inclusive and net figures are present, select the inclusive, final payable figure. " +
			"Write it as a plain decimal number with no thousands separators or currency symbols.",
		"'amountinwords' is the same numeric value spelled out in words.",
		"'currency' is a 3-letter code. Normalize symbols: 'P' and the peso sign mean PHP. Use null if undeterminable.",

		// category:
		categoryLine(req.AllowedCategories),

		// remaining fields:
		"'purpose' is a short description of what was paid for, taken from the description, nature-of-service or line-item text.",
		"Fill 'accountnum' and 'mobilenum' only when they are explicitly labeled in the text; otherwise use null.",

		// null policy:
		"Any field whose value cannot be determined with confidence must be null. Never guess.",
	}

	if block := selfEntityBlock(req.Self); block != "" {
		// keep the exclusion close to the payee rules
		parts = slices.Insert(parts, 3, block)
	}

	return strings.Join(parts, " ")
}

func categoryLine(allowed []string) string {
	if len(allowed) == 0 {
		return "'category' must be a short, sensible label; use 'Others' if uncertain."
	}
	var b strings.Builder
	b.WriteString("'category' MUST be exactly one of: ")
	b.WriteString(strings.Join(allowed, " | "))
	b.WriteString(".")
	// guidance is keyed by the enum values so it names each label verbatim
	// in whatever order the caller lists them
	for _, c := range allowed {
		switch constants.Category(c) {
		case constants.GovernmentRemittances:
			b.WriteString(" Payroll, training allowance, final pay and government remittance content belongs to '" + c + "'.")
		case constants.ManpowerConsultant:
			b.WriteString(" Service-provider, consulting and licensing content belongs to '" + c + "'.")
		case constants.Others:
			b.WriteString(" Everything else is '" + c + "'.")
		}
	}
	return b.String()
}

func selfEntityBlock(self SelfEntity) string {
	name := strings.TrimSpace(self.Name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("Our own organization is ")
	b.WriteString(name)
	if tin := strings.TrimSpace(self.TIN); tin != "" {
		b.WriteString(" (TIN ")
		b.WriteString(tin)
		b.WriteString(")")
	}
	if addr := strings.TrimSpace(self.Address); addr != "" {
		b.WriteString(", ")
		b.WriteString(addr)
	}
	b.WriteString(". NEVER select it as payee even if it appears in the text. ")
	b.WriteString("If its details are the only company information present, set payee, tin and address to null.")
	return b.String()
}
