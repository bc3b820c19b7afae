package pages

// AuthProps pre-fills the sign-in and sign-up forms after a failed attempt
type AuthProps struct {
	Error string
	Email string
	Name  string
}
