package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"groscales/models"
	"groscales/repository"
	"groscales/utils"
)

// memStore is an in-memory stand-in for every repository. writes counts
// mutating calls so tests can assert that a run touched nothing.
type memStore struct {
	mu sync.Mutex

	leads     map[uint]*models.Lead
	workflows map[uint]*models.Workflow
	numbers   []*models.PhoneNumber
	threads   map[uint]*models.MessageThread
	messages  []*models.Message

	nextThreadID  uint
	nextMessageID uint
	writes        int

	createErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{
		leads:     make(map[uint]*models.Lead),
		workflows: make(map[uint]*models.Workflow),
		threads:   make(map[uint]*models.MessageThread),
	}
}

func (s *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		Leads:        leadRepo{s},
		Workflows:    workflowRepo{s},
		Threads:      threadRepo{s},
		Messages:     messageRepo{s},
		PhoneNumbers: numberRepo{s},
	}
}

func (s *memStore) addLead(id, owner uint, phone string) *models.Lead {
	lead := &models.Lead{OwnerID: owner, Name: "Lead", Phone: phone}
	lead.ID = id
	s.leads[id] = lead
	return lead
}

func (s *memStore) addWorkflow(id uint, owner *uint, steps ...models.WorkflowStep) *models.Workflow {
	wf := &models.Workflow{OwnerID: owner, Name: "wf", Status: models.WorkflowStatusActive, Steps: steps}
	wf.ID = id
	s.workflows[id] = wf
	return wf
}

func (s *memStore) addNumber(id, owner uint, number string, isDefault bool) {
	pn := &models.PhoneNumber{OwnerID: owner, Number: number, IsDefault: isDefault}
	pn.ID = id
	s.numbers = append(s.numbers, pn)
}

func (s *memStore) messageList() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func sendText(order int, body string) models.WorkflowStep {
	return models.WorkflowStep{Order: order, Type: models.StepTypeSendText, TextBody: utils.Pointer(body)}
}

func waitStep(order int, ms int64) models.WorkflowStep {
	return models.WorkflowStep{Order: order, Type: models.StepTypeWait, WaitMs: utils.Pointer(ms)}
}

type leadRepo struct{ s *memStore }

func (r leadRepo) Get(_ context.Context, id uint) (*models.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.leads[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r leadRepo) GetForOwner(ctx context.Context, ownerID, id uint) (*models.Lead, error) {
	l, err := r.Get(ctx, id)
	if err != nil || l.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return l, nil
}

func (r leadRepo) List(context.Context, uint, repository.LeadFilter) ([]models.Lead, int64, error) {
	return nil, 0, errors.New("not implemented")
}
func (r leadRepo) Create(context.Context, *models.Lead) error { return errors.New("not implemented") }
func (r leadRepo) Update(context.Context, *models.Lead) error { return errors.New("not implemented") }
func (r leadRepo) Delete(context.Context, uint, uint) error   { return errors.New("not implemented") }

func (r leadRepo) find(scope repository.PhoneScope, match func(phone string) bool) (*models.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]uint, 0, len(r.s.leads))
	for id := range r.s.leads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		l := r.s.leads[id]
		if scope.OwnerID != nil && l.OwnerID != *scope.OwnerID {
			continue
		}
		if l.Phone != "" && match(l.Phone) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r leadRepo) FindByPhone(_ context.Context, scope repository.PhoneScope, phones ...string) (*models.Lead, error) {
	return r.find(scope, func(phone string) bool {
		for _, p := range phones {
			if p != "" && p == phone {
				return true
			}
		}
		return false
	})
}

func (r leadRepo) FindByPhoneSuffix(_ context.Context, scope repository.PhoneScope, suffix string) (*models.Lead, error) {
	if suffix == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(scope, func(phone string) bool { return strings.HasSuffix(phone, suffix) })
}

type workflowRepo struct{ s *memStore }

func (r workflowRepo) GetWithSteps(_ context.Context, id uint) (*models.Workflow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if wf, ok := r.s.workflows[id]; ok {
		cp := *wf
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r workflowRepo) GetForOwner(ctx context.Context, ownerID, id uint) (*models.Workflow, error) {
	wf, err := r.GetWithSteps(ctx, id)
	if err != nil || !wf.VisibleTo(ownerID) {
		return nil, repository.ErrNotFound
	}
	return wf, nil
}

func (r workflowRepo) List(context.Context, uint) ([]models.Workflow, error) { return nil, nil }
func (r workflowRepo) Create(context.Context, *models.Workflow) error       { return nil }
func (r workflowRepo) Update(context.Context, *models.Workflow) error       { return nil }
func (r workflowRepo) Delete(context.Context, uint, uint) error             { return nil }
func (r workflowRepo) ReplaceSteps(context.Context, uint, []models.WorkflowStep) error {
	return nil
}

type threadRepo struct{ s *memStore }

func (r threadRepo) Upsert(_ context.Context, ownerID, leadID uint, at time.Time) (*models.MessageThread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.writes++
	for _, t := range r.s.threads {
		if t.OwnerID == ownerID && t.LeadID == leadID {
			t.LastMessageAt = at
			cp := *t
			return &cp, nil
		}
	}
	r.s.nextThreadID++
	t := &models.MessageThread{OwnerID: ownerID, LeadID: leadID, LastMessageAt: at}
	t.ID = r.s.nextThreadID
	r.s.threads[t.ID] = t
	cp := *t
	return &cp, nil
}

func (r threadRepo) Touch(_ context.Context, threadID uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.writes++
	if t, ok := r.s.threads[threadID]; ok {
		t.LastMessageAt = at
		return nil
	}
	return repository.ErrNotFound
}

func (r threadRepo) Get(_ context.Context, id uint) (*models.MessageThread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.threads[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r threadRepo) GetForOwner(ctx context.Context, ownerID, id uint) (*models.MessageThread, error) {
	t, err := r.Get(ctx, id)
	if err != nil || t.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	r.s.mu.Lock()
	if l, ok := r.s.leads[t.LeadID]; ok {
		cp := *l
		t.Lead = &cp
	}
	r.s.mu.Unlock()
	return t, nil
}

func (r threadRepo) List(context.Context, uint, int, int) ([]models.MessageThread, int64, error) {
	return nil, 0, nil
}

type messageRepo struct{ s *memStore }

func (r messageRepo) Create(_ context.Context, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return r.s.createErr
	}
	r.s.writes++
	r.s.nextMessageID++
	msg.ID = r.s.nextMessageID
	cp := *msg
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r messageRepo) Get(_ context.Context, id uint) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r messageRepo) UpdateDelivery(_ context.Context, msg *models.Message, from models.MessageStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.updateErr != nil {
		return false, r.s.updateErr
	}
	for _, m := range r.s.messages {
		if m.ID != msg.ID || m.Status != from {
			continue
		}
		r.s.writes++
		m.Status = msg.Status
		m.ExternalSID = msg.ExternalSID
		m.Error = msg.Error
		return true, nil
	}
	return false, nil
}

func (r messageRepo) SetExternalSID(_ context.Context, id uint, sid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == id && m.ExternalSID == nil {
			r.s.writes++
			m.ExternalSID = utils.Pointer(sid)
		}
	}
	return nil
}

func (r messageRepo) FindByExternalSID(_ context.Context, sid string) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ExternalSID != nil && *m.ExternalSID == sid {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r messageRepo) ListByThread(_ context.Context, threadID uint, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Message
	for _, m := range r.s.messages {
		if m.ThreadID == threadID {
			out = append(out, *m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type numberRepo struct{ s *memStore }

func (r numberRepo) DefaultForOwner(_ context.Context, ownerID uint) (*models.PhoneNumber, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, pn := range r.s.numbers {
		if pn.OwnerID == ownerID && pn.IsDefault {
			cp := *pn
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r numberRepo) FindByNumber(_ context.Context, numbers ...string) (*models.PhoneNumber, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, pn := range r.s.numbers {
		for _, n := range numbers {
			if n != "" && pn.Number == n {
				cp := *pn
				return &cp, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r numberRepo) List(context.Context, uint) ([]models.PhoneNumber, error) { return nil, nil }
func (r numberRepo) Create(context.Context, *models.PhoneNumber) error         { return nil }
func (r numberRepo) SetDefault(context.Context, uint, uint) error              { return nil }

// recordingPublisher captures hub events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []utils.ThreadEvent
	owners []uint
}

func (p *recordingPublisher) Publish(ownerID uint, event utils.ThreadEvent) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.owners = append(p.owners, ownerID)
	return 1
}
