package patronage

// Receipt is a donation receipt issued against a contract.
type Receipt struct {
	ReceiptID  string `json:"receiptId" dynamodbav:"receiptId" validate:"required"`
	ContractID string `json:"contractId" dynamodbav:"contractId" validate:"required"`
	MediaID    string `json:"mediaId" dynamodbav:"mediaId" validate:"required"`
	IssuedAt   string `json:"issuedAt" dynamodbav:"issuedAt" validate:"required,isotime"`
}
