package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type invoiceLineRequest struct {
	ProductID   string  `json:"productId"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	VATRate     float64 `json:"vatRate"`
	Discount    struct {
		Type  string  `json:"type"`
		Value float64 `json:"value"`
	} `json:"discount"`
}

type createInvoiceRequest struct {
	CustomerID     string               `json:"customerId"`
	Date           *time.Time           `json:"date"`
	DueDate        *time.Time           `json:"dueDate"`
	Lines          []invoiceLineRequest `json:"lines"`
	GlobalDiscount *struct {
		Type  string  `json:"type"`
		Value float64 `json:"value"`
	} `json:"globalDiscount"`
	TaxName       string  `json:"taxName"`
	TaxRate       float64 `json:"taxRate"`
	Notes         string  `json:"notes"`
	InternalNotes string  `json:"internalNotes"`
	Status        string  `json:"status"`
	Type          string  `json:"type"`
	Recurrence    *struct {
		Frequency string     `json:"frequency"`
		NextDate  *time.Time `json:"nextDate"`
	} `json:"recurrence"`
}

func invoiceLines(lines []invoiceLineRequest) []invoicedomain.Line {
	out := make([]invoicedomain.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, invoicedomain.Line{
			ProductID:   strings.TrimSpace(l.ProductID),
			Description: strings.TrimSpace(l.Description),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VATRate:     l.VATRate,
			Discount: invoicedomain.Discount{
				Type:  l.Discount.Type,
				Value: l.Discount.Value,
			},
		})
	}
	return out
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		AbortWithError(c, newValidationError("customerId", "invalid_customer_id", "invalid customer id"))
		return
	}

	create := invoicedomain.CreateInvoiceRequest{
		CustomerID:    customerID,
		DueDate:       req.DueDate,
		Lines:         invoiceLines(req.Lines),
		TaxName:       strings.TrimSpace(req.TaxName),
		TaxRate:       req.TaxRate,
		Notes:         req.Notes,
		InternalNotes: req.InternalNotes,
		Status:        strings.TrimSpace(req.Status),
		Type:          strings.TrimSpace(req.Type),
	}
	if req.Date != nil {
		create.Date = *req.Date
	}
	if req.GlobalDiscount != nil {
		create.GlobalDiscount = invoicedomain.Discount{
			Type:  req.GlobalDiscount.Type,
			Value: req.GlobalDiscount.Value,
		}
	}
	if req.Recurrence != nil {
		create.Recurrence = invoicedomain.Recurrence{
			Frequency: req.Recurrence.Frequency,
			NextDate:  req.Recurrence.NextDate,
		}
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
		Series     string `form:"series"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
		Series:     strings.TrimSpace(query.Series),
	}
	if raw := strings.TrimSpace(query.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer id"))
			return
		}
		req.CustomerID = customerID
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		InternalNotes string `json:"internalNotes"`
		Recurrence    *struct {
			Frequency string     `json:"frequency"`
			NextDate  *time.Time `json:"nextDate"`
		} `json:"recurrence"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := invoicedomain.UpdateInvoiceRequest{
		InternalNotes: req.InternalNotes,
	}
	if req.Recurrence != nil {
		update.Recurrence = invoicedomain.Recurrence{
			Frequency: req.Recurrence.Frequency,
			NextDate:  req.Recurrence.NextDate,
		}
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), id, strings.TrimSpace(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RectifyInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Lines []invoiceLineRequest `json:"lines"`
		Notes string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Rectify(c.Request.Context(), id, invoicedomain.RectifyInvoiceRequest{
		Lines: invoiceLines(req.Lines),
		Notes: req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListLedger(c *gin.Context) {
	resp, err := s.invoiceSvc.ListChain(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) VerifyLedger(c *gin.Context) {
	report, err := s.invoiceSvc.VerifyLedger(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
