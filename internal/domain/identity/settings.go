package identity

// Settings holds a user's account preferences and postal details.
type Settings struct {
	SettingsID     string   `json:"settingsId" dynamodbav:"settingsId" validate:"required"`
	UserID         string   `json:"userId" dynamodbav:"userId" validate:"required"`
	Country        string   `json:"country" dynamodbav:"country" validate:"required"`
	Address        string   `json:"address,omitempty" dynamodbav:"address,omitempty"`
	Address2       string   `json:"address2,omitempty" dynamodbav:"address2,omitempty"`
	City           string   `json:"city,omitempty" dynamodbav:"city,omitempty"`
	State          string   `json:"state,omitempty" dynamodbav:"state,omitempty"`
	Postcode       string   `json:"postcode,omitempty" dynamodbav:"postcode,omitempty"`
	Anonymous      bool     `json:"anonymous" dynamodbav:"anonymous"`
	BlockedUserIDs []string `json:"blockedUserIds" dynamodbav:"blockedUserIds" validate:"dive,required"`
	CreatedAt      string   `json:"createdAt" dynamodbav:"createdAt" validate:"required,isotime"`
}

// IsBlocked reports whether userID is on the blocked list
func (s *Settings) IsBlocked(userID string) bool {
	for _, id := range s.BlockedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
