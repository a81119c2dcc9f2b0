package stripeclient

import (
	"encoding/json"
	"fmt"
)

type stripeErrorRaw struct {
	Status        int    `json:"status"`
	Message       string `json:"message"`
	Type          string `json:"type"`
	RequestID     string `json:"request_id"`
	RequestLogURL string `json:"request_log_url"`
}

// parseErr unwraps the JSON blob stripe-go stuffs into error strings,
// keeping only the status and human message.
func (s *StripeClient) parseErr(err error) error {
	var se stripeErrorRaw
	payload := []byte(err.Error())
	if e := json.Unmarshal(payload, &se); e != nil {
		return err
	}
	return fmt.Errorf("status %d: %s", se.Status, se.Message)
}
