package livelist

import (
	"context"
	"sync"
)

var _ Pager[rec] = &pagerMock{}

type pagerMock struct {
	FirstPageFunc  func(ctx context.Context, size int) ([]rec, error)
	PageBeforeFunc func(ctx context.Context, cursor int64, size int) ([]rec, error)

	calls struct {
		FirstPage []struct {
			Size int
		}
		PageBefore []struct {
			Cursor int64
			Size   int
		}
	}
	lockFirstPage  sync.RWMutex
	lockPageBefore sync.RWMutex
}

func (mock *pagerMock) FirstPage(ctx context.Context, size int) ([]rec, error) {
	if mock.FirstPageFunc == nil {
		panic("pagerMock.FirstPageFunc: method is nil but Pager.FirstPage was just called")
	}
	mock.lockFirstPage.Lock()
	mock.calls.FirstPage = append(mock.calls.FirstPage, struct{ Size int }{size})
	mock.lockFirstPage.Unlock()
	return mock.FirstPageFunc(ctx, size)
}

func (mock *pagerMock) FirstPageCalls() []struct{ Size int } {
	mock.lockFirstPage.RLock()
	defer mock.lockFirstPage.RUnlock()
	return mock.calls.FirstPage
}

func (mock *pagerMock) PageBefore(ctx context.Context, cursor int64, size int) ([]rec, error) {
	if mock.PageBeforeFunc == nil {
		panic("pagerMock.PageBeforeFunc: method is nil but Pager.PageBefore was just called")
	}
	mock.lockPageBefore.Lock()
	mock.calls.PageBefore = append(mock.calls.PageBefore, struct {
		Cursor int64
		Size   int
	}{cursor, size})
	mock.lockPageBefore.Unlock()
	return mock.PageBeforeFunc(ctx, cursor, size)
}

func (mock *pagerMock) PageBeforeCalls() []struct {
	Cursor int64
	Size   int
} {
	mock.lockPageBefore.RLock()
	defer mock.lockPageBefore.RUnlock()
	return mock.calls.PageBefore
}
