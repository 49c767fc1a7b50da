package patronage

import (
	"context"
	"fmt"

	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	"github.com/offeringbowl/backend/internal/domain/activity"
	"github.com/offeringbowl/backend/internal/domain/patronage"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
)

// ReceiptService handles donation receipts. Every operation is limited to
// the parties of the receipt's contract.
type ReceiptService struct {
	store     store.Store
	contracts *ContractService
	activity  activityapp.Recorder
	opts      options
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(st store.Store, contracts *ContractService, recorder activityapp.Recorder, opts ...Option) *ReceiptService {
	return &ReceiptService{
		store:     st,
		contracts: contracts,
		activity:  recorder,
		opts:      buildOptions(opts),
	}
}

// Create issues a receipt against a contract the caller is party to
func (s *ReceiptService) Create(ctx context.Context, caller string, receipt patronage.Receipt) (*patronage.Receipt, error) {
	if receipt.ReceiptID == "" {
		receipt.ReceiptID = s.opts.newID()
	}
	if receipt.IssuedAt == "" {
		receipt.IssuedAt = s.opts.timestamp()
	}
	if err := shared.Validate("receipt", &receipt); err != nil {
		return nil, err
	}
	if _, err := s.contracts.GetForParty(ctx, caller, receipt.ContractID); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, store.TableReceipts, &receipt); err != nil {
		return nil, fmt.Errorf("create receipt: %w", err)
	}
	s.activity.Record(ctx, caller, activity.TypeReceiptRequested, map[string]string{
		"receiptId":  receipt.ReceiptID,
		"contractId": receipt.ContractID,
	})

	return &receipt, nil
}

// Get returns a receipt the caller may see
func (s *ReceiptService) Get(ctx context.Context, caller, receiptID string) (*patronage.Receipt, error) {
	var receipt patronage.Receipt
	found, err := s.store.Get(ctx, store.TableReceipts, store.Key{"receiptId": receiptID}, &receipt)
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if !found {
		return nil, shared.NotFound("Receipt not found.")
	}
	if _, err := s.contracts.GetForParty(ctx, caller, receipt.ContractID); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListForContract returns all receipts of a contract
func (s *ReceiptService) ListForContract(ctx context.Context, caller, contractID string) ([]patronage.Receipt, error) {
	if _, err := s.contracts.GetForParty(ctx, caller, contractID); err != nil {
		return nil, err
	}

	q := store.Query{
		Table:     store.TableReceipts,
		Index:     store.IndexContractID,
		Partition: store.Condition{Name: "contractId", Value: contractID},
		Limit:     queryPageSize,
	}
	receipts := []patronage.Receipt{}
	for {
		page, err := s.store.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list receipts: %w", err)
		}
		var batch []patronage.Receipt
		if err := page.Decode(&batch); err != nil {
			return nil, fmt.Errorf("decode receipts: %w", err)
		}
		receipts = append(receipts, batch...)
		if page.Cursor == "" {
			return receipts, nil
		}
		q.Cursor = page.Cursor
	}
}
