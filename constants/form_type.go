package constants

import (
	"strings"
)

type FormType string

const (
	AccountOpening        FormType = "Account Opening"
	ChequeBookRequest     FormType = "Cheque Book Request"
	ATMCardBlock          FormType = "ATM Card Block/Replacement"
	AddressChangeRequest  FormType = "Address Change Request"
	RTGSNEFTTransfer      FormType = "RTGS/NEFT Transfer"
	KYCUpdate             FormType = "KYC Update"
	LockerAccessSurrender FormType = "Locker Access/Surrender"
)

var allFormTypes = []FormType{
	AccountOpening,
	ChequeBookRequest,
	ATMCardBlock,
	AddressChangeRequest,
	RTGSNEFTTransfer,
	KYCUpdate,
	LockerAccessSurrender,
}

// FormTypes returns the closed set of form labels in catalogue order.
func FormTypes() []FormType {
	out := make([]FormType, len(allFormTypes))
	copy(out, allFormTypes)
	return out
}

func FormTypeStrings() []string {
	result := make([]string, len(allFormTypes))
	for i, ft := range allFormTypes {
		result[i] = string(ft)
	}
	return result
}

// CanonicalFormType maps a model-produced label onto the closed set.
// The second return value is false when nothing matched; callers keep the raw label then.
func CanonicalFormType(input string) (FormType, bool) {
	normalized := squash(input)
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]FormType{
		"account opening form":       AccountOpening,
		"new account":                AccountOpening,
		"account open":               AccountOpening,
		"cheque book":                ChequeBookRequest,
		"checkbook request":          ChequeBookRequest,
		"check book request":         ChequeBookRequest,
		"cheque book request form":   ChequeBookRequest,
		"atm card block":             ATMCardBlock,
		"atm card replacement":       ATMCardBlock,
		"atm card block replacement": ATMCardBlock,
		"debit card block":           ATMCardBlock,
		"address change":             AddressChangeRequest,
		"change of address":          AddressChangeRequest,
		"rtgs":                       RTGSNEFTTransfer,
		"neft":                       RTGSNEFTTransfer,
		"rtgs transfer":              RTGSNEFTTransfer,
		"neft transfer":              RTGSNEFTTransfer,
		"rtgs neft":                  RTGSNEFTTransfer,
		"kyc":                        KYCUpdate,
		"kyc update form":            KYCUpdate,
		"locker access":              LockerAccessSurrender,
		"locker surrender":           LockerAccessSurrender,
		"locker access surrender":    LockerAccessSurrender,
	}
	if ft, ok := synonyms[normalized]; ok {
		return ft, true
	}

	for _, ft := range allFormTypes {
		if normalized == squash(string(ft)) {
			return ft, true
		}
	}
	return "", false
}

// squash lowercases, strips quotes/punctuation and collapses separators to single spaces.
func squash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`.")
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
		default:
			space = true
		}
	}
	return b.String()
}
