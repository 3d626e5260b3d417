package models

// MaxHistory bounds RewardHistory; older entries are dropped first.
const MaxHistory = 50

// User is the per-user state kept by the registry. JSON names match the
// bot's on-disk format.
type User struct {
	Username      string   `json:"username"`
	Registered    bool     `json:"registered"`
	Joined        bool     `json:"joined"`
	Referrals     int      `json:"referrals"`
	ReferredBy    *string  `json:"referred_by"`
	RewardTaken   int      `json:"reward_taken"`
	RewardHistory []string `json:"reward_history"`
}

// NewUser returns a record with default flags.
func NewUser(username string) *User {
	return &User{Username: username, RewardHistory: []string{}}
}

// Clone returns a deep copy so callers never share the stored record.
func (u *User) Clone() User {
	out := *u
	if u.ReferredBy != nil {
		ref := *u.ReferredBy
		out.ReferredBy = &ref
	}
	out.RewardHistory = append([]string{}, u.RewardHistory...)
	return out
}

// AppendHistory adds msgs and keeps only the newest MaxHistory entries.
func (u *User) AppendHistory(msgs ...string) {
	u.RewardHistory = append(u.RewardHistory, msgs...)
	if n := len(u.RewardHistory); n > MaxHistory {
		u.RewardHistory = append([]string{}, u.RewardHistory[n-MaxHistory:]...)
	}
}

// LastRewards returns up to n of the newest history entries, newest first.
func (u *User) LastRewards(n int) []string {
	h := u.RewardHistory
	if n > len(h) {
		n = len(h)
	}
	out := make([]string, 0, n)
	for i := len(h) - 1; i >= len(h)-n; i-- {
		out = append(out, h[i])
	}
	return out
}
