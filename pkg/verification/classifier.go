// Package verification turns a verification endpoint reply into a validity verdict and a
// confidence percentage. Everything here is pure: no I/O and no logging.
package verification

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/nimeshabuddhika/payment-key-validator/pkg/backend"
)

// PassThreshold is the minimum confidence shown to an operator as a pass.
const PassThreshold = 80.0

// Response is the verdict as the endpoint reported it. Every field is optional.
type Response struct {
	Success bool
	Valid   bool
	OK      bool
	Percent *float64 // set only when the reply carried a JSON number
	Raw     json.RawMessage

	truthy bool // whether the decoded body itself is a truthy value
}

// Outcome is the classified result of one invocation.
type Outcome struct {
	Valid      bool            `json:"isValid"`
	Confidence float64         `json:"confidence"`
	Detail     json.RawMessage `json:"detail"`
}

// Passes applies the operator-facing rule: valid and at least PassThreshold confident.
func (o Outcome) Passes() bool {
	return o.Valid && o.Confidence >= PassThreshold
}

// DecodeResponse never fails. A body that is not JSON is kept as a JSON string in Raw
// and contributes no flags.
func DecodeResponse(body []byte) Response {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil || dec.More() {
		raw, _ := json.Marshal(string(body))
		return Response{Raw: raw, truthy: len(body) > 0}
	}

	resp := Response{Raw: json.RawMessage(bytes.TrimSpace(body)), truthy: truthy(value)}
	fields, ok := value.(map[string]any)
	if !ok {
		return resp
	}
	resp.Success = truthy(fields["success"])
	resp.Valid = truthy(fields["valid"])
	resp.OK = truthy(fields["ok"])
	if n, ok := fields["percent"].(json.Number); ok {
		if f, ok := numberValue(n); ok {
			resp.Percent = &f
		}
	}
	return resp
}

// Classify derives the outcome of a call that returned a verdict.
// Confidence is taken verbatim from Percent; it is not reconciled with the flags.
func Classify(r Response) Outcome {
	valid := r.Success || r.Valid || r.OK

	var confidence float64
	switch {
	case r.Percent != nil:
		confidence = *r.Percent
	case valid:
		confidence = 100
	}

	detail := r.Raw
	if len(detail) == 0 {
		detail = json.RawMessage("null")
	}
	return Outcome{Valid: valid, Confidence: confidence, Detail: detail}
}

// ClassifyError derives the outcome of a failed call. The detail is the backend's body
// when the error carries a non-empty one, otherwise {"error": <message>}.
func ClassifyError(err error) Outcome {
	out := Outcome{Valid: false, Confidence: 0}

	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) && len(statusErr.Body) > 0 {
		if body := DecodeResponse(statusErr.Body); body.truthy {
			out.Detail = body.Raw
			return out
		}
	}

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	out.Detail, _ = json.Marshal(map[string]string{"error": msg})
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, ok := numberValue(t)
		return ok && f != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// numberValue converts a decoded JSON number. Out-of-range literals keep the ±Inf or 0
// that ParseFloat rounds them to, so 1e400 is still a number.
func numberValue(n json.Number) (float64, bool) {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}
