package patronage

import "github.com/shopspring/decimal"

// ContractStatus is the lifecycle state of a sponsorship
type ContractStatus string

const (
	ContractStatusActive   ContractStatus = "active"
	ContractStatusPaused   ContractStatus = "paused"
	ContractStatusCanceled ContractStatus = "canceled"
)

// Contract is a sponsorship between one patron and one monastic. Its status
// is the only gate for private content and feed membership.
type Contract struct {
	ContractID string           `json:"contractId" dynamodbav:"contractId" validate:"required"`
	PatronID   string           `json:"patronId" dynamodbav:"patronId" validate:"required"`
	MonasticID string           `json:"monasticId" dynamodbav:"monasticId" validate:"required"`
	Amount     *decimal.Decimal `json:"amount" dynamodbav:"amount" validate:"required,gte=0"`
	Recurring  *bool            `json:"recurring" dynamodbav:"recurring" validate:"required"`
	Status     ContractStatus   `json:"status" dynamodbav:"status" validate:"required,oneof=active paused canceled"`
	CreatedAt  string           `json:"createdAt" dynamodbav:"createdAt" validate:"required,isotime"`
}

// IsActive reports whether the contract currently grants access
func (c *Contract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// HasParty reports whether userID is the patron or the monastic of c
func (c *Contract) HasParty(userID string) bool {
	return userID != "" && (c.PatronID == userID || c.MonasticID == userID)
}

// FilterActive returns the active contracts in order
func FilterActive(contracts []Contract) []Contract {
	active := make([]Contract, 0, len(contracts))
	for _, c := range contracts {
		if c.IsActive() {
			active = append(active, c)
		}
	}
	return active
}
