package banned

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

var _ documentStore = &documentStoreMock{}

type documentStoreMock struct {
	GetFunc     func(ctx context.Context, collection, key string) (json.RawMessage, error)
	GetManyFunc func(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error)
	QueryFunc   func(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)
	SetFunc     func(ctx context.Context, collection, key string, data json.RawMessage) error
	PushFunc    func(ctx context.Context, collection string, data json.RawMessage) (string, error)

	calls struct {
		Get     []struct{ Collection, Key string }
		GetMany []struct {
			Collection string
			Keys       []string
		}
		Query []struct {
			Collection string
			Q          domain.Query
		}
		Set []struct {
			Collection, Key string
			Data            json.RawMessage
		}
		Push []struct {
			Collection string
			Data       json.RawMessage
		}
	}
	lockGet     sync.RWMutex
	lockGetMany sync.RWMutex
	lockQuery   sync.RWMutex
	lockSet     sync.RWMutex
	lockPush    sync.RWMutex
}

func (mock *documentStoreMock) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	if mock.GetFunc == nil {
		panic("documentStoreMock.GetFunc: method is nil but documentStore.Get was just called")
	}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, struct{ Collection, Key string }{collection, key})
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, collection, key)
}

func (mock *documentStoreMock) GetCalls() []struct{ Collection, Key string } {
	mock.lockGet.RLock()
	defer mock.lockGet.RUnlock()
	return mock.calls.Get
}

func (mock *documentStoreMock) GetMany(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error) {
	if mock.GetManyFunc == nil {
		panic("documentStoreMock.GetManyFunc: method is nil but documentStore.GetMany was just called")
	}
	mock.lockGetMany.Lock()
	mock.calls.GetMany = append(mock.calls.GetMany, struct {
		Collection string
		Keys       []string
	}{collection, keys})
	mock.lockGetMany.Unlock()
	return mock.GetManyFunc(ctx, collection, keys)
}

func (mock *documentStoreMock) GetManyCalls() []struct {
	Collection string
	Keys       []string
} {
	mock.lockGetMany.RLock()
	defer mock.lockGetMany.RUnlock()
	return mock.calls.GetMany
}

func (mock *documentStoreMock) Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	if mock.QueryFunc == nil {
		panic("documentStoreMock.QueryFunc: method is nil but documentStore.Query was just called")
	}
	mock.lockQuery.Lock()
	mock.calls.Query = append(mock.calls.Query, struct {
		Collection string
		Q          domain.Query
	}{collection, q})
	mock.lockQuery.Unlock()
	return mock.QueryFunc(ctx, collection, q)
}

func (mock *documentStoreMock) QueryCalls() []struct {
	Collection string
	Q          domain.Query
} {
	mock.lockQuery.RLock()
	defer mock.lockQuery.RUnlock()
	return mock.calls.Query
}

func (mock *documentStoreMock) Set(ctx context.Context, collection, key string, data json.RawMessage) error {
	if mock.SetFunc == nil {
		panic("documentStoreMock.SetFunc: method is nil but documentStore.Set was just called")
	}
	mock.lockSet.Lock()
	mock.calls.Set = append(mock.calls.Set, struct {
		Collection, Key string
		Data            json.RawMessage
	}{collection, key, data})
	mock.lockSet.Unlock()
	return mock.SetFunc(ctx, collection, key, data)
}

func (mock *documentStoreMock) SetCalls() []struct {
	Collection, Key string
	Data            json.RawMessage
} {
	mock.lockSet.RLock()
	defer mock.lockSet.RUnlock()
	return mock.calls.Set
}

func (mock *documentStoreMock) Push(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	if mock.PushFunc == nil {
		panic("documentStoreMock.PushFunc: method is nil but documentStore.Push was just called")
	}
	mock.lockPush.Lock()
	mock.calls.Push = append(mock.calls.Push, struct {
		Collection string
		Data       json.RawMessage
	}{collection, data})
	mock.lockPush.Unlock()
	return mock.PushFunc(ctx, collection, data)
}

func (mock *documentStoreMock) PushCalls() []struct {
	Collection string
	Data       json.RawMessage
} {
	mock.lockPush.RLock()
	defer mock.lockPush.RUnlock()
	return mock.calls.Push
}

var _ txManager = &txManagerMock{}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	calls struct {
		RunInTx []struct{}
	}
	lockRunInTx sync.RWMutex
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	mock.lockRunInTx.Lock()
	mock.calls.RunInTx = append(mock.calls.RunInTx, struct{}{})
	mock.lockRunInTx.Unlock()
	return mock.RunInTxFunc(ctx, fn)
}

func (mock *txManagerMock) RunInTxCalls() []struct{} {
	mock.lockRunInTx.RLock()
	defer mock.lockRunInTx.RUnlock()
	return mock.calls.RunInTx
}

// passthroughTx runs fn directly.
func passthroughTx() *txManagerMock {
	return &txManagerMock{
		RunInTxFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
}
