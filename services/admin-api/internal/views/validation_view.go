package views

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/verification"
	"github.com/nimeshabuddhika/payment-key-validator/services/admin-api/internal/services"
)

// ValidationView is a settled run as rendered to the operator.
type ValidationView struct {
	Status     pkg.ValidationStatus `json:"status"`
	Label      string               `json:"label"`
	IsValid    bool                 `json:"isValid"`
	Confidence Confidence           `json:"confidence"`
	Detail     json.RawMessage      `json:"detail"`
	SettledAt  time.Time            `json:"settledAt"`
}

// Confidence is a percentage as reported by the backend. It may be infinite when the
// reply carried an out-of-range number; JSON has no literal for that, so it encodes as null.
type Confidence float64

func (c Confidence) MarshalJSON() ([]byte, error) {
	f := float64(c)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// String formats the percentage without trailing zeros.
func (c Confidence) String() string {
	f := float64(c)
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// StateView is the validator state exposed to polling clients.
type StateView struct {
	State   pkg.RunState    `json:"state"`
	Running bool            `json:"running"`
	Result  *ValidationView `json:"result,omitempty"`
}

// NewValidationView renders the success badge only when the outcome passes;
// a valid outcome below the threshold is rendered as a failure.
func NewValidationView(o verification.Outcome, settledAt time.Time) ValidationView {
	v := ValidationView{
		IsValid:    o.Valid,
		Confidence: Confidence(o.Confidence),
		Detail:     o.Detail,
		SettledAt:  settledAt,
	}
	percent := v.Confidence.String() + "%"
	if o.Passes() {
		v.Status = pkg.ValidationStatusValid
		v.Label = "Keys Valid (" + percent + ")"
	} else {
		v.Status = pkg.ValidationStatusInvalid
		v.Label = "Validation Failed (" + percent + ")"
	}
	return v
}

func NewStateView(s services.Snapshot) StateView {
	sv := StateView{State: s.State, Running: s.State == pkg.RunStateRunning}
	if s.Outcome != nil {
		v := NewValidationView(*s.Outcome, s.SettledAt)
		sv.Result = &v
	}
	return sv
}

// PrettyDetail indents the detail with two spaces for display.
func (v ValidationView) PrettyDetail() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, v.Detail, "", "  "); err != nil {
		return string(v.Detail)
	}
	return buf.String()
}

// Passed is a template helper.
func (v ValidationView) Passed() bool {
	return v.Status == pkg.ValidationStatusValid
}
