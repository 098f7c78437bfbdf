package models

type UserProfile struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsActive    bool   `json:"is_active"`
	IsVerified  bool   `json:"is_verified"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Session pairs the bearer token with the cached profile. User may be nil
// during the window between token receipt and the profile fetch; Token is
// never empty while User is set.
type Session struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}
