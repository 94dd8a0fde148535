package delegation

// Agent is a delegated actor granted bounded authority by its owner.
// Revocation is permanent: a revoked record never becomes active again,
// not even through re-registration.
type Agent struct {
	ID        string   `yaml:"id"`
	Owner     string   `yaml:"owner"`
	Scopes    []string `yaml:"scopes"`
	MaxAmount int64    `yaml:"max_amount"`
	Revoked   bool     `yaml:"revoked"`
	CreatedAt uint64   `yaml:"created_at"`
	UpdatedAt uint64   `yaml:"updated_at"`
}

// HasScope reports whether action is among the agent's permitted scopes.
// Matching is exact and case-sensitive.
func (a *Agent) HasScope(action string) bool {
	for _, s := range a.Scopes {
		if s == action {
			return true
		}
	}
	return false
}
