package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	quotedomain "github.com/facturapro/facturapro/internal/quote/domain"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type quoteRequest struct {
	CustomerID     string               `json:"customerId"`
	Date           *time.Time           `json:"date"`
	ExpiryDate     *time.Time           `json:"expiryDate"`
	Lines          []invoiceLineRequest `json:"lines"`
	GlobalDiscount *struct {
		Type  string  `json:"type"`
		Value float64 `json:"value"`
	} `json:"globalDiscount"`
	TaxName string  `json:"taxName"`
	TaxRate float64 `json:"taxRate"`
	Notes   string  `json:"notes"`
}

func (r quoteRequest) toDomain() (quotedomain.CreateQuoteRequest, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(r.CustomerID))
	if err != nil {
		return quotedomain.CreateQuoteRequest{}, err
	}

	create := quotedomain.CreateQuoteRequest{
		CustomerID: customerID,
		ExpiryDate: r.ExpiryDate,
		Lines:      invoiceLines(r.Lines),
		TaxName:    strings.TrimSpace(r.TaxName),
		TaxRate:    r.TaxRate,
		Notes:      r.Notes,
	}
	if r.Date != nil {
		create.Date = *r.Date
	}
	if r.GlobalDiscount != nil {
		create.GlobalDiscount = invoicedomain.Discount{
			Type:  r.GlobalDiscount.Type,
			Value: r.GlobalDiscount.Value,
		}
	}
	return create, nil
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	create, err := req.toDomain()
	if err != nil {
		AbortWithError(c, newValidationError("customerId", "invalid_customer_id", "invalid customer id"))
		return
	}

	resp, err := s.quoteSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListQuotes(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := quotedomain.ListQuoteRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
	}
	if raw := strings.TrimSpace(query.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer id"))
			return
		}
		req.CustomerID = customerID
	}

	resp, err := s.quoteSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetQuoteByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := s.quoteSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update, err := req.toDomain()
	if err != nil {
		AbortWithError(c, newValidationError("customerId", "invalid_customer_id", "invalid customer id"))
		return
	}

	resp, err := s.quoteSvc.Update(c.Request.Context(), id, quotedomain.UpdateQuoteRequest{
		CreateQuoteRequest: update,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuoteStatus(c *gin.Context) {
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

	resp, err := s.quoteSvc.UpdateStatus(c.Request.Context(), id, strings.TrimSpace(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.quoteSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ConvertQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := s.quoteSvc.ConvertToInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
