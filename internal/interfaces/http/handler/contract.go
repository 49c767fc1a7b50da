package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	patronageapp "github.com/offeringbowl/backend/internal/application/patronage"
	"github.com/offeringbowl/backend/internal/domain/patronage"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// ContractHandler handles the /contracts routes
type ContractHandler struct {
	BaseHandler
	contracts *patronageapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contracts *patronageapp.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// Create godoc
// @Summary   Sponsor a monastic
// @Tags      contracts
// @Security  BearerAuth
// @Router    /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var contract patronage.Contract
	if !h.BindJSON(c, "contract", &contract) {
		return
	}

	created, err := h.contracts.Create(c.Request.Context(), caller(c), contract)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSuccessResponse().With("contract", created).WithMessage("Contract created successfully."))
}

// Get godoc
// @Summary   Get a contract the caller is party to
// @Tags      contracts
// @Security  BearerAuth
// @Router    /contracts/{contractId} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.contracts.GetForParty(c.Request.Context(), caller(c), c.Param("contractId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("contract", contract))
}

// Update godoc
// @Summary   Update a contract the caller is party to
// @Tags      contracts
// @Security  BearerAuth
// @Router    /contracts/{contractId} [put]
func (h *ContractHandler) Update(c *gin.Context) {
	patch, ok := h.BindPatch(c, "contract")
	if !ok {
		return
	}

	contract, err := h.contracts.Update(c.Request.Context(), caller(c), c.Param("contractId"), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("contract", contract).WithMessage("Contract updated successfully."))
}

type contractLister func(ctx context.Context, userID string) ([]patronage.Contract, error)

// listContracts answers with all contracts or, for ?active=true, only the
// active ones
func (h *ContractHandler) listContracts(c *gin.Context, param string, all, active contractLister) {
	list := all
	if onlyActive, _ := strconv.ParseBool(c.Query("active")); onlyActive {
		list = active
	}

	contracts, err := list(c.Request.Context(), c.Param(param))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("contracts", contracts))
}

// ListForPatron godoc
// @Summary   List a patron's contracts
// @Tags      contracts
// @Security  BearerAuth
// @Param     active query bool false "Only active contracts"
// @Router    /contracts/patron/{patronId} [get]
func (h *ContractHandler) ListForPatron(c *gin.Context) {
	h.listContracts(c, "patronId", h.contracts.ListForPatron, h.contracts.ActiveForPatron)
}

// ListForMonastic godoc
// @Summary   List a monastic's contracts
// @Tags      contracts
// @Security  BearerAuth
// @Param     active query bool false "Only active contracts"
// @Router    /contracts/monastic/{monasticId} [get]
func (h *ContractHandler) ListForMonastic(c *gin.Context) {
	h.listContracts(c, "monasticId", h.contracts.ListForMonastic, h.contracts.ActiveForMonastic)
}

// Patrons godoc
// @Summary   Ids of the patrons actively sponsoring a monastic
// @Tags      contracts
// @Security  BearerAuth
// @Router    /contracts/monastic/{monasticId}/patrons [get]
func (h *ContractHandler) Patrons(c *gin.Context) {
	ids, err := h.contracts.ActivePatronIDsForMonastic(c.Request.Context(), c.Param("monasticId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("patronIds", ids))
}
