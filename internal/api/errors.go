package api

import "fmt"

// APIError is the decoded error envelope of a failed API call.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	// Reason names the violated attachment constraint, if any.
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Message == "" && e.Status > 0:
		return fmt.Sprintf("api error: %d", e.Status)
	case e.Message == "":
		return "api error"
	case e.Code == "":
		return e.Message
	case e.Reason != "":
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unavailable reports whether the server refused because attachments are
// disabled for this session.
func (e *APIError) Unavailable() bool {
	return e != nil && e.Code == "unavailable"
}
