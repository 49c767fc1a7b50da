package identity

// Role is the platform role a user signs up with
type Role string

const (
	RolePatron   Role = "patron"
	RoleMonastic Role = "monastic"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RolePatron || r == RoleMonastic
}

// User is the account record keyed by the identity provider subject.
type User struct {
	UserID          string `json:"userId" dynamodbav:"userId" validate:"required"`
	Role            Role   `json:"role" dynamodbav:"role" validate:"required,oneof=monastic patron"`
	Name            string `json:"name" dynamodbav:"name" validate:"required"`
	Email           string `json:"email" dynamodbav:"email" validate:"required,email"`
	ProfilePhotoURL string `json:"profilePhotoUrl,omitempty" dynamodbav:"profilePhotoUrl,omitempty" validate:"omitempty,uri"`
	CreatedAt       string `json:"createdAt" dynamodbav:"createdAt" validate:"required,isotime"`
}
