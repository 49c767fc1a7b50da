package activity

// Type is the closed set of lifecycle events recorded per user
type Type string

const (
	TypeSignup           Type = "signup"
	TypeProfileUpdated   Type = "profile-updated"
	TypePasswordChanged  Type = "password-changed"
	TypeSingleDonation   Type = "single-donation"
	TypeContractCreated  Type = "contract-created"
	TypeContractCanceled Type = "contract-canceled"
	TypeContractUpdated  Type = "contract-updated"
	TypePaymentFailed    Type = "payment-failed"
	TypeReceiptRequested Type = "receipt-requested"
	TypePostCreated      Type = "post-created"
	TypePostUpdated      Type = "post-updated"
	TypePostDeleted      Type = "post-deleted"
	TypeMediaUploaded    Type = "media-uploaded"
	TypeProfileVerified  Type = "profile-verified"
	TypeUserBlocked      Type = "user-blocked"
)

// Activity is one entry in a user's activity log.
type Activity struct {
	ActivityID string            `json:"activityId" dynamodbav:"activityId" validate:"required"`
	UserID     string            `json:"userId" dynamodbav:"userId" validate:"required"`
	Type       Type              `json:"type" dynamodbav:"type" validate:"required,oneof=signup profile-updated password-changed single-donation contract-created contract-canceled contract-updated payment-failed receipt-requested post-created post-updated post-deleted media-uploaded profile-verified user-blocked"`
	Details    map[string]string `json:"details,omitempty" dynamodbav:"details,omitempty"`
	CreatedAt  string            `json:"createdAt" dynamodbav:"createdAt" validate:"required,isotime"`
}
