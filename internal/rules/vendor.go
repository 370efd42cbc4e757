package rules

import "regexp"

const vendorTypeUserID = 1

var digitsOnly = regexp.MustCompile(`^\d+$`)

// ValidateVendor checks a vendor payment record structurally. Missing
// required fields make the record invalid; implausible bank data only
// produces warnings.
func (e *Engine) ValidateVendor(v VendorRecord) VendorDecision {
	var decision VendorDecision

	if v.UserID == 0 {
		decision.Missing = append(decision.Missing, "user_id")
	}
	if v.Identification == "" {
		decision.Missing = append(decision.Missing, "identification")
	}
	if v.FirstName == "" {
		decision.Missing = append(decision.Missing, "first_name")
	}
	if v.LastName == "" {
		decision.Missing = append(decision.Missing, "last_name")
	}
	if v.BankID == 0 {
		decision.Missing = append(decision.Missing, "bank_id")
	}
	if v.AccountNumber == "" {
		decision.Missing = append(decision.Missing, "account_number")
	}
	if v.TypeAccountBankID == 0 {
		decision.Missing = append(decision.Missing, "type_account_bank_id")
	}
	if v.TypeUserID != vendorTypeUserID {
		decision.Missing = append(decision.Missing, "type_user_id")
	}

	decision.Valid = len(decision.Missing) == 0

	if v.BankID != 0 && (v.BankID < 1 || v.BankID > 99) {
		decision.Warnings = append(decision.Warnings, "bank_id outside the known range 1-99")
	}
	if v.AccountNumber != "" {
		if !digitsOnly.MatchString(v.AccountNumber) {
			decision.Warnings = append(decision.Warnings, "account_number contains non-digit characters")
		} else if len(v.AccountNumber) < 8 {
			decision.Warnings = append(decision.Warnings, "account_number shorter than 8 digits")
		}
	}

	return decision
}
