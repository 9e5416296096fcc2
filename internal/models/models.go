package models

import "encoding/json"

// NotifyRequest is the body of POST /api/telegram. InitData is the signed
// launch-data blob the Telegram mini-app platform hands to the embedding page;
// it is optional and only used to address the launching user.
type NotifyRequest struct {
	Text     string `json:"text"`
	InitData string `json:"initData"`
}

// RelayAttempt records the result of one outbound sendMessage call.
// Response holds the raw provider body when it was valid JSON; Error holds a
// diagnostic string for transport-level or provider-reported failures.
type RelayAttempt struct {
	Attempted bool            `json:"attempted"`
	Succeeded bool            `json:"succeeded"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NotifyResponse reports per-destination delivery and the verification
// verdict. Delivery failures are conveyed here, not via HTTP status: once
// validation passes the endpoint answers 200 and the caller reads the body to
// learn what was actually delivered.
type NotifyResponse struct {
	OK           bool            `json:"ok"`
	AdminOK      bool            `json:"admin_ok"`
	Admin        json.RawMessage `json:"admin,omitempty"`
	UserSent     bool            `json:"user_sent"`
	UserID       *int64          `json:"user_id"`
	VerifyReason *string         `json:"verify_reason"`
}

// ErrorResponse is the body for validation and configuration failures.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
