package content

import (
	"time"

	"github.com/offeringbowl/backend/internal/domain/shared"
)

// Post is a monastic's update to their patrons.
type Post struct {
	PostID     string `json:"postId" dynamodbav:"postId" validate:"required"`
	MonasticID string `json:"monasticId" dynamodbav:"monasticId" validate:"required"`
	MediaID    string `json:"mediaId,omitempty" dynamodbav:"mediaId,omitempty"`
	Content    string `json:"content,omitempty" dynamodbav:"content,omitempty" validate:"omitempty,min=1,max=5000"`
	IsPublic   *bool  `json:"isPublic" dynamodbav:"isPublic" validate:"required"`
	CreatedAt  string `json:"createdAt" dynamodbav:"createdAt" validate:"required,isotime"`
}

// Public reports whether the post is visible without a contract
func (p *Post) Public() bool {
	return p.IsPublic != nil && *p.IsPublic
}

// CreatedTime parses CreatedAt; unparsable values sort as the zero time
func (p *Post) CreatedTime() time.Time {
	t, err := time.Parse(shared.TimeLayout, p.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Newer reports whether a sorts before b in a newest-first listing: later
// creation time first, ties by postId descending.
func Newer(a, b *Post) bool {
	ta, tb := a.CreatedTime(), b.CreatedTime()
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a.PostID > b.PostID
}
