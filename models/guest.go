package models

// GuestCalendarMeta describes the calendar a guest is browsing via an invite token.
// The token doubles as the calendar id for slot lookups.
type GuestCalendarMeta struct {
	InviteToken   string `json:"inviteToken"`
	CalendarID    string `json:"calendarId"`
	OwnerID       string `json:"ownerId"`
	OwnerName     string `json:"ownerName"`
	OwnerUsername string `json:"ownerUsername,omitempty"`
	Title         string `json:"title"`
}

// GuestSessionState is the serializable snapshot of one user's guest session.
type GuestSessionState struct {
	Meta          *GuestCalendarMeta `json:"meta,omitempty"`
	IsActive      bool               `json:"isActive"`
	IsLoading     bool               `json:"isLoading"`
	IgnoredTokens []string           `json:"ignoredTokens"`
}
