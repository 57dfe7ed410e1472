package stripeclient

import (
	"encoding/json"
	"fmt"
)

// The stripe-go client serializes API errors as JSON; unwrap the message
// so callers log something readable.
type stripeErrorRaw struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (s *StripeClient) parseErr(err error) error {
	var se stripeErrorRaw
	if e := json.Unmarshal([]byte(err.Error()), &se); e != nil {
		return err
	}
	return fmt.Errorf("status %d: %s", se.Status, se.Message)
}
