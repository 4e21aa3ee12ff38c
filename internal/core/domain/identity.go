package domain

// Role is the access level the Evanio API grants an account.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Identity models the authenticated account as reported by the Evanio API.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session pairs the bearer token issued by the Evanio API with the identity it
// belongs to. Token and Identity are either both set or both empty.
type Session struct {
	Token    string
	Identity *Identity
}

// Valid reports whether the session carries both a token and an identity.
func (s Session) Valid() bool {
	return s.Token != "" && s.Identity != nil
}

// IsZero reports whether the session carries neither a token nor an identity.
func (s Session) IsZero() bool {
	return s.Token == "" && s.Identity == nil
}

// IsAdmin reports whether the session belongs to a back-office account.
func (s Session) IsAdmin() bool {
	return s.Valid() && s.Identity.Role == RoleAdmin
}
