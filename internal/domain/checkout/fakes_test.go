package checkout

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/your-org/studio-storefront/internal/domain/order"
	"github.com/your-org/studio-storefront/internal/pkg/email"
)

type fakeProcessor struct {
	mu        sync.RWMutex
	created   []*SessionRequest
	sessions  map[string]*ProcessorSession
	createErr error
	getErr    error
	seq       int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{sessions: make(map[string]*ProcessorSession)}
}

func (p *fakeProcessor) CreateSession(_ context.Context, req *SessionRequest) (*ProcessorSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	id := fmt.Sprintf("cs_test_%d", p.seq)
	ps := &ProcessorSession{
		ID:                id,
		URL:               "https://checkout.example/pay/" + id,
		ClientReferenceID: req.ClientReferenceID,
		Metadata:          req.Metadata,
	}
	p.created = append(p.created, req)
	p.sessions[id] = ps
	return ps, nil
}

func (p *fakeProcessor) GetSession(_ context.Context, id string) (*ProcessorSession, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	ps, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	out := *ps
	return &out, nil
}

func (p *fakeProcessor) markPaid(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id].Paid = true
}

func (p *fakeProcessor) lastRequest() *SessionRequest {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.created) == 0 {
		return nil
	}
	return p.created[len(p.created)-1]
}

type fakeRepo struct {
	mu       sync.RWMutex
	orders   map[string]order.Order
	projects map[string]order.Project
	saveErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   make(map[string]order.Order),
		projects: make(map[string]order.Project),
	}
}

func (r *fakeRepo) SaveOrder(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *fakeRepo) FindOrder(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (r *fakeRepo) UpsertProject(_ context.Context, p *order.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.projects[p.ID]; ok && existing.Status == order.ProjectStatusPaid {
		p.Status = existing.Status
	}
	r.projects[p.ID] = *p
	return nil
}

func (r *fakeRepo) FindProject(_ context.Context, id string) (*order.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) UpdateProjectStatus(_ context.Context, id string, status order.ProjectStatus, processorSessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return order.ErrNotFound
	}
	p.Status = status
	if processorSessionID != "" {
		p.FinalSessionID = processorSessionID
	}
	if status == order.ProjectStatusPaid {
		now := time.Now().UTC()
		p.PaidAt = &now
	}
	r.projects[id] = p
	return nil
}

type sentEmail struct {
	kind string
	to   string
	data interface{}
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) record(kind, to string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{kind: kind, to: to, data: data})
	return m.err
}

func (m *fakeMailer) SendDepositReceipt(_ context.Context, to, _ string, data email.DepositReceiptData) error {
	return m.record("deposit_receipt", to, data)
}

func (m *fakeMailer) SendFinalPaymentLink(_ context.Context, to, _ string, data email.FinalPaymentLinkData) error {
	return m.record("final_payment_link", to, data)
}

func (m *fakeMailer) SendFinalPaymentPaid(_ context.Context, to, _ string, data email.FinalPaymentLinkData) error {
	return m.record("final_payment_paid", to, data)
}

func (m *fakeMailer) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, e := range m.sent {
		out[i] = e.kind
	}
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(_ context.Context, event string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type fakeReceipts struct{}

func (fakeReceipts) GenerateReceipt(o *order.Order) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF-1.4 " + o.OrderNumber), nil
}
