package criteria

import (
	"github.com/nbutton23/zxcvbn-go"
)

// Strength is an advisory estimate shown next to the checklist. It never
// feeds into `Status.AllValid`.
type Strength struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

var strengthLabels = [...]string{"very weak", "weak", "fair", "good", "strong"}

// EstimateStrength scores `password` with zxcvbn (0 through 4). Passwords
// longer than `MaxLength` already fail the rules, so they aren't scored.
func EstimateStrength(password string) Strength {
	if password == "" || Length(password) > MaxLength {
		return Strength{Score: 0, Label: strengthLabels[0]}
	}
	score := zxcvbn.PasswordStrength(password, nil).Score
	if score < 0 {
		score = 0
	} else if score >= len(strengthLabels) {
		score = len(strengthLabels) - 1
	}
	return Strength{Score: score, Label: strengthLabels[score]}
}
