// package models defines the data model for the OTT account client
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AccessModel distinguishes subscription-gated services from ad-supported or free ones.
type AccessModel string

const (
	AccessModelSVOD    AccessModel = "SVOD"    // subscription video on demand
	AccessModelAVOD    AccessModel = "AVOD"    // ad-supported, anonymous
	AccessModelAuthVOD AccessModel = "AUTHVOD" // free with registration
)

// ParseAccessModel normalizes a config value; unknown values fall back to [AccessModelAVOD].
func ParseAccessModel(s string) AccessModel {
	switch m := AccessModel(strings.ToUpper(strings.TrimSpace(s))); m {
	case AccessModelSVOD, AccessModelAVOD, AccessModelAuthVOD:
		return m
	default:
		return AccessModelAVOD
	}
}

// Response is the backend's uniform envelope. An empty Errors slice signals success.
type Response[T any] struct {
	Errors       []string `json:"errors"`
	ResponseData T        `json:"responseData"`
}

// OK reports whether the backend returned no errors.
func (r *Response[T]) OK() bool {
	return r != nil && len(r.Errors) == 0
}

// FlexibleID is an identifier the backend sends either as a JSON number or a string.
type FlexibleID string

// UnmarshalJSON accepts numbers and strings.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string { return string(id) }
