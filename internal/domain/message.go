package domain

// History entries are stored as opaque tagged strings so they can be sent to
// the backend verbatim inside the session metadata.
const (
	RoleUser      = "U"
	RoleAssistant = "A"
)

// UserTurn formats one user history entry, e.g. "U:hello".
func UserTurn(text string) string {
	return RoleUser + ":" + text
}

// AssistantTurn formats one assistant history entry, e.g. "A:hi there".
func AssistantTurn(text string) string {
	return RoleAssistant + ":" + text
}

// SplitTurn breaks a tagged history entry back into its role and text.
// Entries without a recognized tag are treated as user text.
func SplitTurn(entry string) (role, text string) {
	if len(entry) >= 2 && entry[1] == ':' {
		switch entry[:1] {
		case RoleUser, RoleAssistant:
			return entry[:1], entry[2:]
		}
	}
	return RoleUser, entry
}
