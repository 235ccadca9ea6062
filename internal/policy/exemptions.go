package policy

// Exemptions is the set of user ids that bypass automatic moderation:
// global admins and whitelisted accounts. Immutable after construction;
// changing it requires a restart.
type Exemptions struct {
	admins      map[int64]struct{}
	whitelisted map[int64]struct{}
}

func NewExemptions(adminIDs, whitelistedIDs []int64) *Exemptions {
	e := &Exemptions{
		admins:      make(map[int64]struct{}, len(adminIDs)),
		whitelisted: make(map[int64]struct{}, len(whitelistedIDs)),
	}
	for _, id := range adminIDs {
		e.admins[id] = struct{}{}
	}
	for _, id := range whitelistedIDs {
		e.whitelisted[id] = struct{}{}
	}
	return e
}

func (e *Exemptions) IsAdmin(userID int64) bool {
	_, ok := e.admins[userID]
	return ok
}

func (e *Exemptions) IsWhitelisted(userID int64) bool {
	_, ok := e.whitelisted[userID]
	return ok
}

// IsExempt reports whether the user bypasses rate limiting. Exemption is
// user-scoped; the chat id is part of the contract for per-chat rules.
func (e *Exemptions) IsExempt(chatID, userID int64) bool {
	return e.IsAdmin(userID) || e.IsWhitelisted(userID)
}
