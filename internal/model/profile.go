package model

const CollectionUsers = "users"

// UserProfile is the public identity of a user, keyed by the identity provider's user id.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}
