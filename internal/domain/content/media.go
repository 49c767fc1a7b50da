package content

// Media points at an uploaded object.
type Media struct {
	MediaID   string `json:"mediaId" dynamodbav:"mediaId" validate:"required"`
	URI       string `json:"uri" dynamodbav:"uri" validate:"required,uri"`
	CreatedAt string `json:"createdAt" dynamodbav:"createdAt" validate:"required,isotime"`
}
