package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lms/config"
	"lms/utils"

	"github.com/go-resty/resty/v2"
)

// SessionRequest carries everything the hosted gateway needs to open a payment session
type SessionRequest struct {
	TransactionID  string
	Amount         float64
	Currency       string
	ProductName    string
	CustomerName   string
	CustomerEmail  string
	CustomerMobile string
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// ValidationResponse is the gateway's authoritative record of a transaction,
// fetched out-of-band with the one-time validation token from the IPN payload.
type ValidationResponse struct {
	Status     string `json:"status"`
	TranID     string `json:"tran_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	BankTranID string `json:"bank_tran_id"`
	CardType   string `json:"card_type"`
	ValID      string `json:"val_id"`
}

// IsValid reports whether the gateway considers the transaction settled
func (v *ValidationResponse) IsValid() bool {
	return v.Status == "VALID" || v.Status == "VALIDATED"
}

func client() *resty.Client {
	return resty.New().
		SetBaseURL(config.AppConfig.GatewayBaseURL).
		SetTimeout(time.Duration(config.AppConfig.GatewayTimeoutSec) * time.Second)
}

// CreateSession opens a hosted payment session and returns the redirect URL
func CreateSession(req *SessionRequest) (string, error) {
	base := config.AppConfig.AppBaseURL

	resp, err := client().R().
		SetFormData(map[string]string{
			"store_id":         config.AppConfig.GatewayStoreID,
			"store_passwd":     config.AppConfig.GatewayStorePassword,
			"total_amount":     fmt.Sprintf("%.2f", req.Amount),
			"currency":         req.Currency,
			"tran_id":          req.TransactionID,
			"success_url":      base + "/payment/success",
			"fail_url":         base + "/payment/fail",
			"cancel_url":       base + "/payment/cancel",
			"ipn_url":          base + "/payment/ipn",
			"cus_name":         req.CustomerName,
			"cus_email":        req.CustomerEmail,
			"cus_phone":        req.CustomerMobile,
			"product_name":     req.ProductName,
			"product_category": "course",
			"product_profile":  "non-physical-goods",
			"shipping_method":  "NO",
		}).
		Post("/gwprocess/v4/api.php")
	if err != nil {
		log.Printf("[GATEWAY] session init failed for %s: %v", req.TransactionID, err)
		return "", utils.ExternalError("Payment gateway is unreachable. Please try again.")
	}

	var session sessionResponse
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		log.Printf("[GATEWAY] bad session response for %s: %s", req.TransactionID, resp.String())
		return "", utils.ExternalError("Payment gateway returned an invalid response.")
	}

	if session.GatewayPageURL == "" {
		log.Printf("[GATEWAY] no redirect URL for %s: %s", req.TransactionID, session.FailedReason)
		return "", utils.ExternalError("Payment gateway did not return a redirect URL.")
	}

	return session.GatewayPageURL, nil
}

// ValidateTransaction resolves a validation token to the gateway's transaction facts
func ValidateTransaction(valID string) (*ValidationResponse, error) {
	resp, err := client().R().
		SetQueryParams(map[string]string{
			"val_id":       valID,
			"store_id":     config.AppConfig.GatewayStoreID,
			"store_passwd": config.AppConfig.GatewayStorePassword,
			"format":       "json",
		}).
		Get("/validator/api/validationserverAPI.php")
	if err != nil {
		log.Printf("[GATEWAY] validation call failed for val_id %s: %v", valID, err)
		return nil, utils.ExternalError("Payment gateway validation failed. Please try again.")
	}

	var validation ValidationResponse
	if err := json.Unmarshal(resp.Body(), &validation); err != nil {
		log.Printf("[GATEWAY] bad validation response for val_id %s: %s", valID, resp.String())
		return nil, utils.ExternalError("Payment gateway returned an invalid validation response.")
	}

	return &validation, nil
}
