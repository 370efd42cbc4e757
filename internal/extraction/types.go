package extraction

// Values holds the typed literals pulled out of a case description.
// A zero-valued field means the category was absent from the text.
type Values struct {
	// Credit is a 13-16 digit credit/account identifier.
	Credit string `json:"credit,omitempty"`

	// GenericID is a numeric id introduced by an "ID" label or a
	// domain keyword such as "comisión".
	GenericID string `json:"generic_id,omitempty"`

	// NationalID is a tax/national identifier introduced by a
	// CC/NIT-style label.
	NationalID string `json:"national_id,omitempty"`

	// Amounts are all $-prefixed numeric groups in order of
	// appearance, with thousands/decimal separators stripped.
	Amounts []string `json:"amounts,omitempty"`

	// Date is the first day-month-year pattern found.
	Date string `json:"date,omitempty"`

	// Reference is a label-prefixed alphanumeric token such as an
	// invoice number.
	Reference string `json:"reference,omitempty"`
}

// Empty reports whether no category was extracted.
func (v Values) Empty() bool {
	return v.Credit == "" && v.GenericID == "" && v.NationalID == "" &&
		len(v.Amounts) == 0 && v.Date == "" && v.Reference == ""
}
