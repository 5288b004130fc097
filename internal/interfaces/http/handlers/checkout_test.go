package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/studio-storefront/internal/domain/order"
	"github.com/your-org/studio-storefront/internal/interfaces/http/middleware"
)

type sessionBody struct {
	OrderID            string `json:"order_id"`
	ProjectID          string `json:"project_id"`
	ProcessorSessionID string `json:"processor_session_id"`
	CheckoutURL        string `json:"checkout_url"`
	Quote              *struct {
		Deposit   string `json:"deposit"`
		Remaining string `json:"remaining"`
	} `json:"quote"`
}

func (a *testAPI) fillStarterCart(t *testing.T) {
	t.Helper()
	w := a.do(t, http.MethodPut, "/api/v1/cart/plan", map[string]interface{}{"name": "Starter Site", "price": "$500"})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"id": "hosting"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCheckout_Quote(t *testing.T) {
	api := newTestAPI(t, "")
	api.fillStarterCart(t)

	w := api.do(t, http.MethodGet, "/api/v1/checkout/quote", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var q QuoteResponse
	decode(t, w, &q)
	assert.Equal(t, "300", q.Deposit.String())
	assert.Equal(t, "250", q.Remaining.String())
	assert.Equal(t, "$300.00", q.Formatted.Deposit)
	assert.Equal(t, "$550.00", q.Formatted.Subtotal)
}

func TestCheckout_DepositFlow(t *testing.T) {
	api := newTestAPI(t, "")
	api.fillStarterCart(t)

	w := api.do(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"customer": map[string]interface{}{"email": "ana@example.com", "name": "Ana"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session sessionBody
	decode(t, w, &session)
	assert.Equal(t, "https://checkout.example/pay/"+session.ProcessorSessionID, session.CheckoutURL)
	require.NotNil(t, session.Quote)
	assert.Equal(t, "300", session.Quote.Deposit)

	w = api.do(t, http.MethodGet, "/api/v1/checkout/order", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/checkout/success?session_id="+session.ProcessorSessionID, nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	api.processor.pay(session.ProcessorSessionID)
	w = api.do(t, http.MethodGet, "/api/v1/checkout/success?session_id="+session.ProcessorSessionID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var paid struct {
		ID        string            `json:"id"`
		Status    string            `json:"status"`
		Formatted map[string]string `json:"formatted"`
	}
	decode(t, w, &paid)
	assert.Equal(t, session.OrderID, paid.ID)
	assert.Equal(t, string(order.OrderStatusPaid), paid.Status)
	assert.Equal(t, "$250.00", paid.Formatted["remaining"])

	w = api.do(t, http.MethodGet, "/api/v1/checkout/order", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/checkout/order/receipt.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt-WEB-")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	w = api.do(t, http.MethodGet, "/api/v1/cart/count", nil)
	assert.Contains(t, w.Body.String(), `"count":2`, "the cart survives payment")
}

func TestCheckout_FormPostRedirects(t *testing.T) {
	api := newTestAPI(t, "")
	api.fillStarterCart(t)

	w := api.do(t, http.MethodPost, "/api/v1/checkout", "", "Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://checkout.example/pay/"))
}

func TestCheckout_Errors(t *testing.T) {
	api := newTestAPI(t, "")

	w := api.do(t, http.MethodGet, "/api/v1/checkout/success", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/checkout/success?session_id=cs_unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "No pending order found for this session", env.Error)

	w = api.do(t, http.MethodGet, "/api/v1/checkout/order/receipt.pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	api.processor.fail = true
	w = api.do(t, http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	env = decode(t, w, nil)
	assert.NotContains(t, env.Error, "stripe is down", "internal details stay in the logs")

	w = api.do(t, http.MethodPost, "/api/v1/checkout/final", map[string]interface{}{"token": "forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/checkout/final", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinalPaymentFlow(t *testing.T) {
	api := newTestAPI(t, "")
	api.fillStarterCart(t)

	w := api.do(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"customer": map[string]interface{}{"email": "ana@example.com"},
	})
	var session sessionBody
	decode(t, w, &session)
	api.processor.pay(session.ProcessorSessionID)
	w = api.do(t, http.MethodGet, "/api/v1/checkout/success?session_id="+session.ProcessorSessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	path := "/api/v1/projects/" + session.OrderID + "/final-payment-link"

	w = api.do(t, http.MethodPost, path, map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "back office calls need the relay secret")

	w = api.do(t, http.MethodPost, path, map[string]interface{}{"send_email": true}, middleware.RelaySecretHeader, testRelaySecret)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Link struct {
			URL string `json:"url"`
		} `json:"link"`
		Formatted map[string]string `json:"formatted"`
	}
	decode(t, w, &created)
	assert.Equal(t, "$250.00", created.Formatted["remaining_balance"])

	u, err := url.Parse(created.Link.URL)
	require.NoError(t, err)
	assert.Equal(t, session.OrderID, u.Query().Get("project"))
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	// the customer opens the link on another device
	api.cookie = nil
	w = api.do(t, http.MethodPost, "/api/v1/checkout/final", map[string]interface{}{"token": token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var final sessionBody
	decode(t, w, &final)
	assert.Equal(t, session.OrderID, final.ProjectID)

	// the paid deposit session does not settle the balance
	w = api.do(t, http.MethodGet, "/api/v1/checkout/success?session_id="+session.ProcessorSessionID+"&project="+session.OrderID, nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())

	api.processor.pay(final.ProcessorSessionID)
	w = api.do(t, http.MethodGet, "/api/v1/checkout/success?session_id="+final.ProcessorSessionID+"&project="+session.OrderID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"paid"`)

	w = api.do(t, http.MethodPost, "/api/v1/checkout/final", map[string]interface{}{"token": token})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFinalPaymentLink_Validation(t *testing.T) {
	api := newTestAPI(t, "")

	w := api.do(t, http.MethodPost, "/api/v1/projects/p-9/final-payment-link", map[string]interface{}{},
		middleware.RelaySecretHeader, testRelaySecret)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/projects/p-9/final-payment-link", map[string]interface{}{"remaining_balance": "-5"},
		middleware.RelaySecretHeader, testRelaySecret)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/projects/p-9/final-payment-link", map[string]interface{}{"remaining_balance": "0"},
		middleware.RelaySecretHeader, testRelaySecret)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/projects/p-9/final-payment-link", map[string]interface{}{"remaining_balance": 1200},
		middleware.RelaySecretHeader, testRelaySecret)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestIntake(t *testing.T) {
	api := newTestAPI(t, "")

	w := api.do(t, http.MethodGet, "/api/v1/intake", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, string(decode(t, w, nil).Data))

	w = api.do(t, http.MethodPut, "/api/v1/intake", map[string]interface{}{"email": "lead@example.com", "budget": "5k"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/intake", nil)
	assert.JSONEq(t, `{"email":"lead@example.com","budget":"5k"}`, string(decode(t, w, nil).Data))

	w = api.do(t, http.MethodPut, "/api/v1/intake", "[1,2]")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
