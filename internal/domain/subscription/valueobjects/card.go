package valueobjects

import "fmt"

// Card holds display-only card metadata attached to a subscription. The full
// PAN never reaches this system; the gateway only reports the masked tail.
type Card struct {
	Last4    string `json:"last4"`
	CardType string `json:"card_type"`
	Bank     string `json:"bank"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
}

func (c Card) IsZero() bool {
	return c.Last4 == "" && c.CardType == "" && c.Bank == ""
}

func (c Card) String() string {
	if c.IsZero() {
		return "no card on file"
	}
	return fmt.Sprintf("%s **** %s", c.CardType, c.Last4)
}
