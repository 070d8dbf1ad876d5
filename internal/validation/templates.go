package validation

import (
	"github.com/joseph-ayodele/forms-intake/constants"
)

// Template is the recognized key set of one form type and the subset that must be filled in.
// Both slices are ordered; missing fields are always reported in Required order.
type Template struct {
	FormType constants.FormType
	Fields   []string
	Required []string
}

var templates = map[constants.FormType]Template{
	constants.ChequeBookRequest: {
		FormType: constants.ChequeBookRequest,
		Fields:   []string{"form_type", "customer_name", "account_number", "number_of_leaves", "branch_code", "delivery_address", "mobile", "email"},
		Required: []string{"customer_name", "account_number", "number_of_leaves", "email"},
	},
	constants.AccountOpening: {
		FormType: constants.AccountOpening,
		Fields:   []string{"form_type", "customer_name", "date_of_birth", "address", "mobile", "email", "id_proof_type", "id_proof_number", "account_type", "branch_code", "nominee_name"},
		Required: []string{"customer_name", "date_of_birth", "address", "mobile", "id_proof_number", "account_type"},
	},
	constants.ATMCardBlock: {
		FormType: constants.ATMCardBlock,
		Fields:   []string{"form_type", "customer_name", "account_number", "card_number", "request_type", "reason", "mobile", "email", "branch_code"},
		Required: []string{"customer_name", "account_number", "card_number", "request_type"},
	},
	constants.AddressChangeRequest: {
		FormType: constants.AddressChangeRequest,
		Fields:   []string{"form_type", "customer_name", "account_number", "old_address", "new_address", "address_proof_type", "mobile", "email", "branch_code"},
		Required: []string{"customer_name", "account_number", "new_address", "address_proof_type"},
	},
	constants.RTGSNEFTTransfer: {
		FormType: constants.RTGSNEFTTransfer,
		Fields:   []string{"form_type", "customer_name", "account_number", "transfer_type", "beneficiary_name", "beneficiary_account_number", "beneficiary_ifsc", "amount", "purpose", "mobile", "email", "branch_code"},
		Required: []string{"customer_name", "account_number", "beneficiary_name", "beneficiary_account_number", "beneficiary_ifsc", "amount"},
	},
	constants.KYCUpdate: {
		FormType: constants.KYCUpdate,
		Fields:   []string{"form_type", "customer_name", "account_number", "id_proof_type", "id_proof_number", "address", "mobile", "email", "branch_code"},
		Required: []string{"customer_name", "account_number", "id_proof_type", "id_proof_number"},
	},
	constants.LockerAccessSurrender: {
		FormType: constants.LockerAccessSurrender,
		Fields:   []string{"form_type", "customer_name", "account_number", "locker_number", "request_type", "visit_date", "mobile", "email", "branch_code"},
		Required: []string{"customer_name", "account_number", "locker_number", "request_type"},
	},
}

// TemplateFor looks a form type up by its canonical label.
func TemplateFor(formType string) (Template, bool) {
	ft, ok := constants.CanonicalFormType(formType)
	if !ok {
		return Template{}, false
	}
	t, ok := templates[ft]
	return t, ok
}

// ParseTemplate is the template the parser fills for formType.
// Labels outside the closed set get the cheque book request keys.
func ParseTemplate(formType string) Template {
	if t, ok := TemplateFor(formType); ok {
		return t
	}
	return templates[constants.ChequeBookRequest]
}

// RequiredFields returns a copy of the required list, or nil for unmapped types.
func RequiredFields(formType string) []string {
	t, ok := TemplateFor(formType)
	if !ok {
		return nil
	}
	out := make([]string, len(t.Required))
	copy(out, t.Required)
	return out
}
