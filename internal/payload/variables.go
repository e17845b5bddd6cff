package payload

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Variables is the typed view of the assistant variable values attached to a
// call by the dashboard when the reference check was initiated.
type Variables struct {
	CandidateID   string `mapstructure:"candidateId"`
	CandidateName string `mapstructure:"candidateName"`
	CompanyName   string `mapstructure:"companyName"`
}

// DecodeVariables decodes the loosely typed variable mapping. Decoding is
// weakly typed because the dashboard has historically sent identifiers both
// as strings and as numbers; unknown keys are ignored.
func DecodeVariables(raw map[string]any) Variables {
	var vars Variables
	if len(raw) == 0 {
		return vars
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &vars,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return vars
	}

	// A decode failure leaves the zero value, which downstream treats the
	// same as an absent identifier.
	_ = decoder.Decode(raw)

	vars.CandidateID = strings.TrimSpace(vars.CandidateID)
	vars.CandidateName = strings.TrimSpace(vars.CandidateName)
	vars.CompanyName = strings.TrimSpace(vars.CompanyName)
	return vars
}

// WellFormedCandidateID reports whether the explicit candidate identifier is
// usable for a direct lookup. Candidate identifiers are UUIDs; anything else
// is treated as malformed and resolution falls back to the stored call
// association.
func (v Variables) WellFormedCandidateID() bool {
	if v.CandidateID == "" {
		return false
	}
	_, err := uuid.Parse(v.CandidateID)
	return err == nil
}
