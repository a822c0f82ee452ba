package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

// Hand-written mocks in the moq style: Func fields configure behavior,
// Calls() accessors expose recorded invocations.

var _ messageRepo = &messageRepoMock{}

type messageRepoMock struct {
	CreateFunc     func(ctx context.Context, m domain.Message) error
	ListRecentFunc func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error)

	calls struct {
		Create     []domain.Message
		ListRecent []int
	}
	lock sync.RWMutex
}

func (m *messageRepoMock) Create(ctx context.Context, msg domain.Message) error {
	if m.CreateFunc == nil {
		panic("messageRepoMock.CreateFunc: not set")
	}
	m.lock.Lock()
	m.calls.Create = append(m.calls.Create, msg)
	m.lock.Unlock()
	return m.CreateFunc(ctx, msg)
}

func (m *messageRepoMock) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error) {
	if m.ListRecentFunc == nil {
		panic("messageRepoMock.ListRecentFunc: not set")
	}
	m.lock.Lock()
	m.calls.ListRecent = append(m.calls.ListRecent, limit)
	m.lock.Unlock()
	return m.ListRecentFunc(ctx, userID, limit)
}

func (m *messageRepoMock) CreateCalls() []domain.Message {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Create
}

var _ eventRepo = &eventRepoMock{}

type eventRepoMock struct {
	CreateBatchFunc func(ctx context.Context, events []domain.Event) error
	ListRecentFunc  func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Event, error)

	calls struct {
		CreateBatch [][]domain.Event
	}
	lock sync.RWMutex
}

func (m *eventRepoMock) CreateBatch(ctx context.Context, events []domain.Event) error {
	if m.CreateBatchFunc == nil {
		panic("eventRepoMock.CreateBatchFunc: not set")
	}
	m.lock.Lock()
	m.calls.CreateBatch = append(m.calls.CreateBatch, events)
	m.lock.Unlock()
	return m.CreateBatchFunc(ctx, events)
}

func (m *eventRepoMock) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Event, error) {
	if m.ListRecentFunc == nil {
		panic("eventRepoMock.ListRecentFunc: not set")
	}
	return m.ListRecentFunc(ctx, userID, limit)
}

func (m *eventRepoMock) CreateBatchCalls() [][]domain.Event {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.CreateBatch
}

var _ memoryRepo = &memoryRepoMock{}

type memoryRepoMock struct {
	GetFunc          func(ctx context.Context, userID uuid.UUID) (*domain.Memory, error)
	GetForUpdateFunc func(ctx context.Context, userID uuid.UUID) (*domain.Memory, error)
	InitFunc         func(ctx context.Context, m domain.Memory) error
	SaveFunc         func(ctx context.Context, m domain.Memory) error

	calls struct {
		Save []domain.Memory
		Init []domain.Memory
	}
	lock sync.RWMutex
}

func (m *memoryRepoMock) Get(ctx context.Context, userID uuid.UUID) (*domain.Memory, error) {
	if m.GetFunc == nil {
		panic("memoryRepoMock.GetFunc: not set")
	}
	return m.GetFunc(ctx, userID)
}

func (m *memoryRepoMock) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Memory, error) {
	if m.GetForUpdateFunc == nil {
		panic("memoryRepoMock.GetForUpdateFunc: not set")
	}
	return m.GetForUpdateFunc(ctx, userID)
}

func (m *memoryRepoMock) Init(ctx context.Context, mem domain.Memory) error {
	if m.InitFunc == nil {
		panic("memoryRepoMock.InitFunc: not set")
	}
	m.lock.Lock()
	m.calls.Init = append(m.calls.Init, mem)
	m.lock.Unlock()
	return m.InitFunc(ctx, mem)
}

func (m *memoryRepoMock) Save(ctx context.Context, mem domain.Memory) error {
	if m.SaveFunc == nil {
		panic("memoryRepoMock.SaveFunc: not set")
	}
	m.lock.Lock()
	m.calls.Save = append(m.calls.Save, mem)
	m.lock.Unlock()
	return m.SaveFunc(ctx, mem)
}

func (m *memoryRepoMock) SaveCalls() []domain.Memory {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Save
}

func (m *memoryRepoMock) InitCalls() []domain.Memory {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Init
}

var _ reportRepo = &reportRepoMock{}

type reportRepoMock struct {
	GetLatestFunc func(ctx context.Context, userID uuid.UUID) (*domain.DailyReport, error)
}

func (m *reportRepoMock) GetLatest(ctx context.Context, userID uuid.UUID) (*domain.DailyReport, error) {
	if m.GetLatestFunc == nil {
		panic("reportRepoMock.GetLatestFunc: not set")
	}
	return m.GetLatestFunc(ctx, userID)
}

var _ txManager = &txManagerMock{}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc == nil {
		return fn(ctx)
	}
	return m.RunInTxFunc(ctx, fn)
}

type gatewayCall struct {
	Kind    domain.RunKind
	Op      provider.Operation
	Payload any
}

var _ providerGateway = &gatewayMock{}

type gatewayMock struct {
	InvokeFunc func(ctx context.Context, kind domain.RunKind, userID uuid.UUID, op provider.Operation, payload any, schema provider.Schema) (any, string, domain.RunStatus, error)

	calls struct {
		Invoke []gatewayCall
	}
	lock sync.RWMutex
}

func (m *gatewayMock) Invoke(ctx context.Context, kind domain.RunKind, userID uuid.UUID, op provider.Operation, payload any, schema provider.Schema) (any, string, domain.RunStatus, error) {
	if m.InvokeFunc == nil {
		panic("gatewayMock.InvokeFunc: not set")
	}
	m.lock.Lock()
	m.calls.Invoke = append(m.calls.Invoke, gatewayCall{Kind: kind, Op: op, Payload: payload})
	m.lock.Unlock()
	return m.InvokeFunc(ctx, kind, userID, op, payload, schema)
}

func (m *gatewayMock) InvokeCalls() []gatewayCall {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Invoke
}
