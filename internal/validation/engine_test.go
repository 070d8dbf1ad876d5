package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/forms-intake/constants"
)

func TestValidate_ChequeBookRequest(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]string
		wantMissing []string
		wantStatus  constants.SubmissionStatus
	}{
		{
			name: "blank account number",
			data: map[string]string{
				"customer_name":    "John Doe",
				"account_number":   "",
				"number_of_leaves": "25",
				"email":            "j@x.com",
			},
			wantMissing: []string{"account_number"},
			wantStatus:  constants.StatusPending,
		},
		{
			name: "all required present",
			data: map[string]string{
				"customer_name":    "John Doe",
				"account_number":   "1234567890",
				"number_of_leaves": "25",
				"email":            "j@x.com",
			},
			wantMissing: []string{},
			wantStatus:  constants.StatusReady,
		},
		{
			name: "whitespace counts as missing",
			data: map[string]string{
				"customer_name":    "  \t",
				"account_number":   "1234567890",
				"number_of_leaves": "25",
				"email":            "\n",
			},
			wantMissing: []string{"customer_name", "email"},
			wantStatus:  constants.StatusPending,
		},
		{
			name:        "empty mapping reports template order",
			data:        map[string]string{},
			wantMissing: []string{"customer_name", "account_number", "number_of_leaves", "email"},
			wantStatus:  constants.StatusPending,
		},
		{
			name:        "nil mapping",
			data:        nil,
			wantMissing: []string{"customer_name", "account_number", "number_of_leaves", "email"},
			wantStatus:  constants.StatusPending,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.data, string(constants.ChequeBookRequest))
			assert.Equal(t, tt.wantMissing, res.MissingFields)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, len(tt.wantMissing) == 0, res.IsComplete)
		})
	}
}

func TestValidate_MissingFollowsTemplateOrderNotInputOrder(t *testing.T) {
	data := map[string]string{"number_of_leaves": "50"}
	res := Validate(data, "cheque book request")
	assert.Equal(t, []string{"customer_name", "account_number", "email"}, res.MissingFields)
}

func TestValidate_UnmappedTypeIsTriviallyReady(t *testing.T) {
	for _, ft := range []string{"Mortgage Application", "", "I think this is a loan form"} {
		res := Validate(map[string]string{}, ft)
		assert.True(t, res.IsComplete, ft)
		assert.Empty(t, res.MissingFields, ft)
		assert.NotNil(t, res.MissingFields, ft)
		assert.Equal(t, constants.StatusReady, res.Status, ft)
	}
}

func TestValidate_EveryTypeHasRequiredSubsetOfTemplate(t *testing.T) {
	for _, ft := range constants.FormTypes() {
		tmpl, ok := TemplateFor(string(ft))
		if !assert.True(t, ok, ft) {
			continue
		}
		assert.Equal(t, "form_type", tmpl.Fields[0])
		for _, r := range tmpl.Required {
			assert.Contains(t, tmpl.Fields, r, "%s requires %s outside its template", ft, r)
		}

		complete := map[string]string{}
		for _, f := range tmpl.Required {
			complete[f] = "x"
		}
		assert.Equal(t, constants.StatusReady, Validate(complete, string(ft)).Status)
	}
}

func TestParseTemplateFallsBackToChequeBook(t *testing.T) {
	tmpl := ParseTemplate("Unknown Form")
	assert.Equal(t, constants.ChequeBookRequest, tmpl.FormType)
	assert.Equal(t, constants.KYCUpdate, ParseTemplate("KYC Update").FormType)
}

func TestRequiredFieldsReturnsCopy(t *testing.T) {
	req := RequiredFields(string(constants.ChequeBookRequest))
	req[0] = "mutated"
	assert.Equal(t, "customer_name", RequiredFields(string(constants.ChequeBookRequest))[0])
	assert.Nil(t, RequiredFields("nope"))
}
