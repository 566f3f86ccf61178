package models

// Identity is the resolved authenticated caller of a mutating
// operation. Services receive it per call; nothing in the core reaches
// into ambient session state.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
