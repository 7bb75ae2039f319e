package handler

import (
	"encoding/json"
	"strings"
)

// flag accepts JSON booleans as well as the strings and numbers form clients
// commonly send for them ("true", "1", 1).
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flag(b)
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			*f = true
		default:
			*f = false
		}
	case float64:
		*f = v != 0
	default:
		*f = false
	}
	return nil
}

type registerRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
}

type loginRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	IsHTTPCookieOnly flag   `json:"is_http_cookie_only"`
}

type refreshRequest struct {
	Refresh          string `json:"refresh"`
	IsHTTPCookieOnly flag   `json:"is_http_cookie_only"`
}
