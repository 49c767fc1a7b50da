package handler

import (
	"github.com/gin-gonic/gin"
	patronageapp "github.com/offeringbowl/backend/internal/application/patronage"
	"github.com/offeringbowl/backend/internal/domain/patronage"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// ReceiptHandler handles the /receipts routes
type ReceiptHandler struct {
	BaseHandler
	receipts *patronageapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receipts *patronageapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Create godoc
// @Summary   Record a payment receipt against a contract
// @Tags      receipts
// @Security  BearerAuth
// @Router    /receipts [post]
func (h *ReceiptHandler) Create(c *gin.Context) {
	var receipt patronage.Receipt
	if !h.BindJSON(c, "receipt", &receipt) {
		return
	}

	created, err := h.receipts.Create(c.Request.Context(), caller(c), receipt)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSuccessResponse().With("receipt", created).WithMessage("Receipt created successfully."))
}

// Get godoc
// @Summary   Get a receipt
// @Tags      receipts
// @Security  BearerAuth
// @Router    /receipts/{receiptId} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := h.receipts.Get(c.Request.Context(), caller(c), c.Param("receiptId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("receipt", receipt))
}

// ListForContract godoc
// @Summary   List a contract's receipts
// @Tags      receipts
// @Security  BearerAuth
// @Router    /receipts/contract/{contractId} [get]
func (h *ReceiptHandler) ListForContract(c *gin.Context) {
	receipts, err := h.receipts.ListForContract(c.Request.Context(), caller(c), c.Param("contractId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("receipts", receipts))
}
