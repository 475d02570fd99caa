package model

// StatusActive is the only subscription status that may authenticate; the
// config source is free to carry any other string (inactive, trial, ...).
const StatusActive = "active"

// CustomerConfig is one customer's registry record, loaded wholesale from the
// config source on every refresh. The JSON shape matches the replicated
// snapshot stored in Redis (hash field "customer_info" per alias).
type CustomerConfig struct {
	Alias  string   `json:"customer_id"`
	Status string   `json:"status"`
	Badges []string `json:"badges"`
}

// Active reports whether the customer may authenticate.
func (c CustomerConfig) Active() bool {
	return c.Status == StatusActive
}

// AllowsBadge reports whether name is part of the customer's badge vocabulary.
func (c CustomerConfig) AllowsBadge(name string) bool {
	for _, b := range c.Badges {
		if b == name {
			return true
		}
	}
	return false
}
