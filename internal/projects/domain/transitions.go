package domain

// AllowedTransitions is the complete allow-list of user-requested status
// changes. ARCHIVED and MVP_SHIPPED are terminal: nothing leaves them.
//
// The list governs Archive, Resume and Ship. Two paths deliberately bypass
// it: a successful Sync and an Update that changes the repository URL both
// move a STAGNANT project back to ACTIVE directly, because fresh provider
// evidence (or a new repository to watch) overrides the stagnation verdict.
var AllowedTransitions = map[Status][]Status{
	StatusActive:     {StatusStagnant, StatusArchived, StatusMVPShipped},
	StatusStagnant:   {StatusActive, StatusArchived, StatusMVPShipped},
	StatusArchived:   {},
	StatusMVPShipped: {},
}

// TransitionAllowed reports whether the allow-list permits moving a project
// from current to target. Unknown statuses are never allowed.
func TransitionAllowed(current, target Status) bool {
	for _, allowed := range AllowedTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}
