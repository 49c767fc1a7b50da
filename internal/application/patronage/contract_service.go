// Package patronage implements the contract and receipt use cases.
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

// MsgNotParty is returned when the caller is neither side of a contract
const MsgNotParty = "User does not have the necessary permissions."

// queryPageSize bounds each store round trip when collecting all of a
// user's contracts.
const queryPageSize = 100

// ContractService handles sponsorship contracts
type ContractService struct {
	store    store.Store
	activity activityapp.Recorder
	opts     options
}

// NewContractService creates a new ContractService
func NewContractService(st store.Store, recorder activityapp.Recorder, opts ...Option) *ContractService {
	return &ContractService{
		store:    st,
		activity: recorder,
		opts:     buildOptions(opts),
	}
}

// Create opens a contract from the calling patron. A missing status
// defaults to active.
func (s *ContractService) Create(ctx context.Context, caller string, contract patronage.Contract) (*patronage.Contract, error) {
	if contract.PatronID == "" {
		contract.PatronID = caller
	}
	if contract.PatronID != caller {
		return nil, shared.Forbidden(MsgNotParty)
	}
	if contract.ContractID == "" {
		contract.ContractID = s.opts.newID()
	}
	if contract.Status == "" {
		contract.Status = patronage.ContractStatusActive
	}
	if contract.CreatedAt == "" {
		contract.CreatedAt = s.opts.timestamp()
	}
	if err := shared.Validate("contract", &contract); err != nil {
		return nil, err
	}
	if contract.PatronID == contract.MonasticID {
		return nil, shared.Unprocessable("Invalid contract data: a user cannot sponsor themselves",
			shared.FieldError{Field: "monasticId", Message: "Must differ from patronId"})
	}

	if err := s.store.Put(ctx, store.TableContracts, &contract); err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	s.activity.Record(ctx, caller, activity.TypeContractCreated, contractDetails(&contract))

	return &contract, nil
}

// Get returns a contract by id without access checks
func (s *ContractService) Get(ctx context.Context, contractID string) (*patronage.Contract, error) {
	var contract patronage.Contract
	found, err := s.store.Get(ctx, store.TableContracts, store.Key{"contractId": contractID}, &contract)
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if !found {
		return nil, shared.NotFound("Contract not found.")
	}
	return &contract, nil
}

// GetForParty returns the contract when caller is one of its parties
func (s *ContractService) GetForParty(ctx context.Context, caller, contractID string) (*patronage.Contract, error) {
	contract, err := s.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !contract.HasParty(caller) {
		return nil, shared.Forbidden(MsgNotParty)
	}
	return contract, nil
}

// Update merges patch onto a contract the caller is party to. Parties and
// creation time are fixed. A transition to canceled records
// contract-canceled, anything else contract-updated.
func (s *ContractService) Update(ctx context.Context, caller, contractID string, patch shared.Patch) (*patronage.Contract, error) {
	contract, err := s.GetForParty(ctx, caller, contractID)
	if err != nil {
		return nil, err
	}

	before := *contract
	if err := patch.ApplyTo("contract", contract); err != nil {
		return nil, err
	}
	contract.ContractID = before.ContractID
	contract.PatronID = before.PatronID
	contract.MonasticID = before.MonasticID
	contract.CreatedAt = before.CreatedAt

	if err := shared.Validate("contract", contract); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, store.TableContracts, contract); err != nil {
		return nil, fmt.Errorf("update contract: %w", err)
	}

	kind := activity.TypeContractUpdated
	if contract.Status == patronage.ContractStatusCanceled && before.Status != patronage.ContractStatusCanceled {
		kind = activity.TypeContractCanceled
	}
	s.activity.Record(ctx, caller, kind, contractDetails(contract))

	return contract, nil
}

// ListForMonastic returns every contract naming monasticID
func (s *ContractService) ListForMonastic(ctx context.Context, monasticID string) ([]patronage.Contract, error) {
	return s.collect(ctx, store.Query{
		Table:     store.TableContracts,
		Index:     store.IndexMonasticID,
		Partition: store.Condition{Name: "monasticId", Value: monasticID},
	})
}

// ListForPatron returns every contract opened by patronID
func (s *ContractService) ListForPatron(ctx context.Context, patronID string) ([]patronage.Contract, error) {
	return s.collect(ctx, store.Query{
		Table:     store.TableContracts,
		Index:     store.IndexPatronMonastic,
		Partition: store.Condition{Name: "patronId", Value: patronID},
	})
}

// ActiveForMonastic returns the monastic's active contracts
func (s *ContractService) ActiveForMonastic(ctx context.Context, monasticID string) ([]patronage.Contract, error) {
	contracts, err := s.ListForMonastic(ctx, monasticID)
	if err != nil {
		return nil, err
	}
	return patronage.FilterActive(contracts), nil
}

// ActiveForPatron returns the patron's active contracts
func (s *ContractService) ActiveForPatron(ctx context.Context, patronID string) ([]patronage.Contract, error) {
	contracts, err := s.ListForPatron(ctx, patronID)
	if err != nil {
		return nil, err
	}
	return patronage.FilterActive(contracts), nil
}

// ActivePatronIDsForMonastic returns the distinct patrons actively
// sponsoring monasticID, in contract order.
func (s *ContractService) ActivePatronIDsForMonastic(ctx context.Context, monasticID string) ([]string, error) {
	contracts, err := s.ActiveForMonastic(ctx, monasticID)
	if err != nil {
		return nil, err
	}
	return distinct(contracts, func(c patronage.Contract) string { return c.PatronID }), nil
}

// ActiveMonasticIDsForPatron returns the distinct monastics patronID
// actively sponsors.
func (s *ContractService) ActiveMonasticIDsForPatron(ctx context.Context, patronID string) ([]string, error) {
	contracts, err := s.ActiveForPatron(ctx, patronID)
	if err != nil {
		return nil, err
	}
	return distinct(contracts, func(c patronage.Contract) string { return c.MonasticID }), nil
}

// Between returns every contract between patronID and monasticID
func (s *ContractService) Between(ctx context.Context, patronID, monasticID string) ([]patronage.Contract, error) {
	return s.collect(ctx, store.Query{
		Table:     store.TableContracts,
		Index:     store.IndexPatronMonastic,
		Partition: store.Condition{Name: "patronId", Value: patronID},
		Sort:      &store.Condition{Name: "monasticId", Value: monasticID},
	})
}

// HasActive reports whether patronID holds at least one active contract
// with monasticID.
func (s *ContractService) HasActive(ctx context.Context, patronID, monasticID string) (bool, error) {
	if patronID == "" || monasticID == "" {
		return false, nil
	}
	contracts, err := s.Between(ctx, patronID, monasticID)
	if err != nil {
		return false, err
	}
	return len(patronage.FilterActive(contracts)) > 0, nil
}

// collect follows cursors until q is exhausted
func (s *ContractService) collect(ctx context.Context, q store.Query) ([]patronage.Contract, error) {
	q.Limit = queryPageSize
	contracts := []patronage.Contract{}
	for {
		page, err := s.store.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query contracts: %w", err)
		}
		var batch []patronage.Contract
		if err := page.Decode(&batch); err != nil {
			return nil, fmt.Errorf("decode contracts: %w", err)
		}
		contracts = append(contracts, batch...)
		if page.Cursor == "" {
			return contracts, nil
		}
		q.Cursor = page.Cursor
	}
}

func distinct(contracts []patronage.Contract, field func(patronage.Contract) string) []string {
	seen := make(map[string]bool, len(contracts))
	ids := make([]string, 0, len(contracts))
	for _, c := range contracts {
		id := field(c)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func contractDetails(c *patronage.Contract) map[string]string {
	return map[string]string{
		"contractId": c.ContractID,
		"monasticId": c.MonasticID,
		"status":     string(c.Status),
	}
}
