package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitwit/openpay/payment"
	"github.com/vitwit/openpay/types"
)

// User-facing messages, kept verbatim from the frontend contract.
const (
	msgMissingStartParams    = "Faltan parámetros en el cuerpo de la solicitud."
	msgMissingContinueParams = "Faltan parámetros para continuar el pago."
	msgStartFailed           = "Error al iniciar el pago."
	msgCompleteFailed        = "Error al finalizar el pago."
	msgGrantNotFinalized     = "La concesión de pago saliente no se finalizó correctamente."
	msgPaymentCompleted      = "El pago se ha procesado con éxito."
)

type startPayRequest struct {
	SenderWalletAddressURL   string `json:"senderWalletAddressUrl"`
	ReceiverWalletAddressURL string `json:"receiverWalletAddressUrl"`
	Amount                   string `json:"amount"`
}

type startPayResponse struct {
	Success                     bool   `json:"success"`
	RedirectURL                 string `json:"redirectUrl"`
	ContinueAccessToken         string `json:"continueAccessToken"`
	ContinueURI                 string `json:"continueUri"`
	QuoteID                     string `json:"quoteId"`
	SendingWalletAddressID      string `json:"sendingWalletAddressId"`
	SendingWalletResourceServer string `json:"sendingWalletResourceServer"`
}

type completePayRequest struct {
	ContinueURI                 string `json:"continueUri"`
	AccessToken                 string `json:"accessToken"`
	QuoteID                     string `json:"quoteId"`
	SendingWalletAddressID      string `json:"sendingWalletAddressId"`
	SendingWalletResourceServer string `json:"sendingWalletResourceServer"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// handleStartPay drives payment setup: wallet resolution, incoming payment,
// quote, and the interactive outgoing-payment grant. On success the caller
// receives the consent redirect plus every field needed to resume later.
func (s *Server) handleStartPay(c *gin.Context) {
	var req startPayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: msgMissingStartParams})
		return
	}

	if req.SenderWalletAddressURL == "" || req.ReceiverWalletAddressURL == "" || req.Amount == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Message: msgMissingStartParams})
		return
	}

	result, err := s.pay.StartPayment(c.Request.Context(), &payment.StartRequest{
		SenderWalletAddressURL:   req.SenderWalletAddressURL,
		ReceiverWalletAddressURL: req.ReceiverWalletAddressURL,
		Amount:                   req.Amount,
	})
	if err != nil {
		if types.IsCode(err, types.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
			return
		}
		s.log.Error("start-pay failed", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, errorResponse{
			Message: msgStartFailed,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, startPayResponse{
		Success:                     true,
		RedirectURL:                 result.RedirectURL,
		ContinueAccessToken:         result.Bundle.ContinueAccessToken,
		ContinueURI:                 result.Bundle.ContinueURI,
		QuoteID:                     result.Bundle.QuoteID,
		SendingWalletAddressID:      result.Bundle.SendingWalletAddressID,
		SendingWalletResourceServer: result.Bundle.SendingWalletResourceServer,
	})
}

// handleCompletePay consumes the replayed session bundle: finalize the
// outgoing-payment grant and create the payment that moves funds.
func (s *Server) handleCompletePay(c *gin.Context) {
	var req completePayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: msgMissingContinueParams})
		return
	}

	if req.ContinueURI == "" || req.AccessToken == "" || req.QuoteID == "" ||
		req.SendingWalletAddressID == "" || req.SendingWalletResourceServer == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Message: msgMissingContinueParams})
		return
	}

	outgoing, err := s.pay.CompletePayment(c.Request.Context(), &types.SessionBundle{
		ContinueURI:                 req.ContinueURI,
		ContinueAccessToken:         req.AccessToken,
		QuoteID:                     req.QuoteID,
		SendingWalletAddressID:      req.SendingWalletAddressID,
		SendingWalletResourceServer: req.SendingWalletResourceServer,
	})
	if err != nil {
		s.log.Error("complete-pay failed", map[string]any{"error": err.Error()})
		if types.IsCode(err, types.ErrGrantNotFinalized) {
			c.JSON(http.StatusInternalServerError, errorResponse{
				Message: msgGrantNotFinalized,
				Error:   err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{
			Message: msgCompleteFailed,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         msgPaymentCompleted,
		"outgoingPayment": outgoing,
	})
}
