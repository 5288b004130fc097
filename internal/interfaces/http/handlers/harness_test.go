package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/your-org/studio-storefront/internal/config"
	"github.com/your-org/studio-storefront/internal/domain/cart"
	"github.com/your-org/studio-storefront/internal/domain/catalog"
	"github.com/your-org/studio-storefront/internal/domain/checkout"
	"github.com/your-org/studio-storefront/internal/domain/intake"
	"github.com/your-org/studio-storefront/internal/domain/lead"
	"github.com/your-org/studio-storefront/internal/domain/order"
	"github.com/your-org/studio-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/studio-storefront/internal/pkg/auth"
	"github.com/your-org/studio-storefront/internal/pkg/email"
	"github.com/your-org/studio-storefront/internal/pkg/kvstore"
	"github.com/your-org/studio-storefront/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testRelaySecret = "relay-secret-0123456789"
	testCatalogYAML = `
fallback_price_id: price_fallback
plans:
  - name: Starter Site
    price: 500
    price_id: price_starter
add_ons:
  - id: hosting
    name: Hosting
    price: 50
    price_id: price_hosting
  - id: domain
    name: Domain
    price: 25
    price_id: price_domain
  - id: rush
    name: Rush Delivery
    price: 200
    price_id: price_rush
`
)

type stubProcessor struct {
	mu       sync.Mutex
	sessions map[string]*checkout.ProcessorSession
	fail     bool
	seq      int
}

func (p *stubProcessor) CreateSession(_ context.Context, req *checkout.SessionRequest) (*checkout.ProcessorSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, fmt.Errorf("stripe is down")
	}
	p.seq++
	id := fmt.Sprintf("cs_test_%d", p.seq)
	ps := &checkout.ProcessorSession{
		ID:                id,
		URL:               "https://checkout.example/pay/" + id,
		ClientReferenceID: req.ClientReferenceID,
		Metadata:          req.Metadata,
	}
	p.sessions[id] = ps
	return ps, nil
}

func (p *stubProcessor) GetSession(_ context.Context, id string) (*checkout.ProcessorSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ps, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", checkout.ErrUnknownSession, id)
	}
	out := *ps
	return &out, nil
}

func (p *stubProcessor) pay(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id].Paid = true
}

type memRepo struct {
	mu       sync.Mutex
	orders   map[string]order.Order
	projects map[string]order.Project
}

func (r *memRepo) SaveOrder(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = *o
	return nil
}

func (r *memRepo) FindOrder(_ context.Context, id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (r *memRepo) UpsertProject(_ context.Context, p *order.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = *p
	return nil
}

func (r *memRepo) FindProject(_ context.Context, id string) (*order.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) UpdateProjectStatus(_ context.Context, id string, status order.ProjectStatus, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return order.ErrNotFound
	}
	p.Status = status
	if sessionID != "" {
		p.FinalSessionID = sessionID
	}
	r.projects[id] = p
	return nil
}

type nopMailer struct{}

func (nopMailer) SendDepositReceipt(context.Context, string, string, email.DepositReceiptData) error {
	return nil
}

func (nopMailer) SendFinalPaymentLink(context.Context, string, string, email.FinalPaymentLinkData) error {
	return nil
}

func (nopMailer) SendFinalPaymentPaid(context.Context, string, string, email.FinalPaymentLinkData) error {
	return nil
}

type textReceipts struct{}

func (textReceipts) GenerateReceipt(o *order.Order) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF-1.4 " + o.OrderNumber), nil
}

type testAPI struct {
	router    *gin.Engine
	processor *stubProcessor
	repo      *memRepo
	kv        *kvstore.MemoryStore
	cookie    *http.Cookie
}

func newTestAPI(t *testing.T, webhookURL string) *testAPI {
	t.Helper()
	log := logger.Discard()

	cat, err := catalog.Parse([]byte(testCatalogYAML))
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testRelaySecret), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.FromEnv()
	cfg.Relay.SecretHash = string(hash)

	kv := kvstore.NewMemoryStore()
	processor := &stubProcessor{sessions: make(map[string]*checkout.ProcessorSession)}
	repo := &memRepo{orders: make(map[string]order.Order), projects: make(map[string]order.Project)}
	carts := cart.NewService(kv, cat, log)
	intakes := intake.NewService(kv, log)

	checkoutService := checkout.NewService(checkout.Dependencies{
		KV:        kv,
		Carts:     carts,
		Intake:    intakes,
		Catalog:   cat,
		Processor: processor,
		Orders:    repo,
		Links:     auth.NewPaymentLinkManager("0123456789abcdef0123456789abcdef", "studio", time.Hour),
		Mailer:    nopMailer{},
		Receipts:  textReceipts{},
		Logger:    log,
	}, checkout.Options{SiteURL: "https://studio.example", VerifySessions: true, LinkTTL: time.Hour})

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/catalog", NewCatalogHandler(cat).GetCatalog)

	session := api.Group("")
	session.Use(middleware.Session(cfg))
	cartHandler := NewCartHandler(carts, log)
	session.GET("/cart", cartHandler.GetCart)
	session.GET("/cart/count", cartHandler.GetCartCount)
	session.DELETE("/cart", cartHandler.ClearCart)
	session.POST("/cart/items", cartHandler.AddToCart)
	session.PUT("/cart/items/:id", cartHandler.UpdateCartItem)
	session.DELETE("/cart/items/:id", cartHandler.RemoveFromCart)
	session.PUT("/cart/plan", cartHandler.SelectPlan)
	session.DELETE("/cart/plan", cartHandler.RemovePlan)

	checkoutHandler := NewCheckoutHandler(checkoutService, log)
	session.GET("/checkout/quote", checkoutHandler.GetQuote)
	session.POST("/checkout", checkoutHandler.BeginCheckout)
	session.GET("/checkout/success", checkoutHandler.CheckoutSuccess)
	session.GET("/checkout/order", checkoutHandler.GetCompletedOrder)
	session.GET("/checkout/order/receipt.pdf", checkoutHandler.DownloadReceipt)
	session.POST("/checkout/final", checkoutHandler.BeginFinalPayment)

	intakeHandler := NewIntakeHandler(intakes, log)
	session.GET("/intake", intakeHandler.GetIntake)
	session.PUT("/intake", intakeHandler.SaveIntake)

	protected := api.Group("")
	protected.Use(middleware.RelaySecret(cfg.Relay.SecretHash))
	protected.POST("/forms/submit", NewLeadHandler(lead.NewRelay(webhookURL, time.Second, log), log).SubmitForm)
	protected.POST("/projects/:id/final-payment-link", NewProjectHandler(checkoutService, log).CreateFinalPaymentLink)

	return &testAPI{router: r, processor: processor, repo: repo, kv: kv}
}

// do sends a request, keeping the session cookie across calls like a browser
func (a *testAPI) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			a.cookie = c
		}
	}
	return w
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
