package identity

// ProfileKind tags the profile variant. It mirrors the owner's Role.
type ProfileKind string

const (
	ProfileKindMonastic ProfileKind = "monastic"
	ProfileKindPatron   ProfileKind = "patron"
)

// Gender of a monastic, as recorded by their ordination lineage
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// OrdinationType distinguishes novice and full ordination
type OrdinationType string

const (
	OrdinationNovice   OrdinationType = "novice"
	OrdinationComplete OrdinationType = "complete"
)

// Lifestyle describes how a monastic lives
type Lifestyle string

const (
	LifestyleAnchorite Lifestyle = "anchorite"
	LifestyleCenobite  Lifestyle = "cenobite"
	LifestyleGyrovague Lifestyle = "gyrovague"
)

// Profile is the public-facing profile of a user. Monastic details are
// present only on monastic profiles.
type Profile struct {
	ProfileID       string           `json:"profileId" dynamodbav:"profileId" validate:"required"`
	UserID          string           `json:"userId" dynamodbav:"userId" validate:"required"`
	Kind            ProfileKind      `json:"kind" dynamodbav:"kind" validate:"required,oneof=monastic patron"`
	Name            string           `json:"name" dynamodbav:"name" validate:"required,min=1,max=100"`
	ProfilePhotoURL string           `json:"profilePhotoUrl,omitempty" dynamodbav:"profilePhotoUrl,omitempty" validate:"omitempty,uri"`
	Bio             string           `json:"bio,omitempty" dynamodbav:"bio,omitempty" validate:"max=500"`
	Monastic        *MonasticDetails `json:"monastic,omitempty" dynamodbav:"monastic,omitempty" validate:"required_if=Kind monastic,excluded_unless=Kind monastic"`
	CreatedAt       string           `json:"createdAt" dynamodbav:"createdAt" validate:"required,isotime"`
}

// MonasticDetails carries ordination metadata
type MonasticDetails struct {
	Gender         Gender         `json:"gender" dynamodbav:"gender" validate:"required,oneof=male female"`
	OrdinationType OrdinationType `json:"ordinationType" dynamodbav:"ordinationType" validate:"required,oneof=novice complete"`
	OrdinationDate string         `json:"ordinationDate" dynamodbav:"ordinationDate" validate:"required,isotime"`
	Tradition      string         `json:"tradition" dynamodbav:"tradition" validate:"required,min=1,max=100"`
	School         string         `json:"school,omitempty" dynamodbav:"school,omitempty" validate:"max=100"`
	Monastery      string         `json:"monastery,omitempty" dynamodbav:"monastery,omitempty" validate:"max=200"`
	VowPreceptor   string         `json:"vowPreceptor" dynamodbav:"vowPreceptor" validate:"required,min=1,max=100"`
	Lifestyle      Lifestyle      `json:"lifestyle" dynamodbav:"lifestyle" validate:"required,oneof=anchorite cenobite gyrovague"`
	IsApproved     *bool          `json:"isApproved" dynamodbav:"isApproved" validate:"required"`
}

// IsMonastic reports whether p is the monastic variant
func (p *Profile) IsMonastic() bool {
	return p.Kind == ProfileKindMonastic
}

// KindForRole returns the profile variant for a user role
func KindForRole(r Role) ProfileKind {
	if r == RoleMonastic {
		return ProfileKindMonastic
	}
	return ProfileKindPatron
}
