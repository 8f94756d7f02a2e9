package llm

import "context"

// SelfEntity identifies the operator's own organization. Its details appear
// on many scanned documents (as the buyer) and must never be extracted as the
// payee.
type SelfEntity struct {
	Name    string
	TIN     string
	Address string
}

// Record is the structured output of field extraction. Every field is
// nullable: null means the value could not be determined with confidence,
// which is always preferred over a guess.
type Record struct {
	Payee         *string `json:"payee"`
	TIN           *string `json:"tin"`
	Address       *string `json:"address"`
	SIB           *string `json:"sib"` // invoice/receipt/control number
	Amount        *string `json:"amount"`
	AmountInWords *string `json:"amountinwords"`
	Currency      *string `json:"currency"`
	Category      *string `json:"category"`
	Purpose       *string `json:"purpose"`
	AccountNum    *string `json:"accountnum"`
	MobileNum     *string `json:"mobilenum"`
}

type ExtractRequest struct {
	Text              string
	Self              SelfEntity
	AllowedCategories []string
}

// FieldExtractor is the interface the pipeline depends on: text in, one
// structured record (plus the validated raw JSON) out.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (Record, []byte, error)
}
