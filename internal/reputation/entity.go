package reputation

// Score bounds. Absent agents read as DefaultScore: neutral, unproven.
const (
	MinScore     = uint32(0)
	MaxScore     = uint32(100)
	DefaultScore = uint32(50)
)

type Score struct {
	AgentID   string `yaml:"agent_id"`
	Value     uint32 `yaml:"value"`
	UpdatedAt uint64 `yaml:"updated_at"`
}

// Caller is a member of the approved-caller set, the identities allowed to
// mutate scores.
type Caller struct {
	ID         string `yaml:"id"`
	ApprovedAt uint64 `yaml:"approved_at"`
}

type Admin struct {
	ID            string `yaml:"id"`
	InitializedAt uint64 `yaml:"initialized_at"`
}

// Clamp applies delta to current with exact saturation at both bounds.
func Clamp(current uint32, delta int32) uint32 {
	v := int64(current) + int64(delta)
	if v < int64(MinScore) {
		return MinScore
	}
	if v > int64(MaxScore) {
		return MaxScore
	}
	return uint32(v)
}
