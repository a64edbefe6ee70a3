// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
)

// -- Session Mock --

// MockSession mocks browser.SessionContext.
type MockSession struct {
	mock.Mock
}

var _ browser.SessionContext = (*MockSession)(nil)

func (m *MockSession) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSession) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSession) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockSession) Probe(ctx context.Context, loc browser.Locator) (browser.ElementState, error) {
	args := m.Called(ctx, loc)
	return args.Get(0).(browser.ElementState), args.Error(1)
}

func (m *MockSession) Generation() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

func (m *MockSession) Fill(ctx context.Context, h browser.ElementHandle, value string) error {
	args := m.Called(ctx, h, value)
	return args.Error(0)
}

func (m *MockSession) SelectOption(ctx context.Context, h browser.ElementHandle, value string) (bool, error) {
	args := m.Called(ctx, h, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockSession) Click(ctx context.Context, h browser.ElementHandle) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockSession) Count(ctx context.Context, loc browser.Locator) (int, error) {
	args := m.Called(ctx, loc)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) AttributeValues(ctx context.Context, loc browser.Locator, attr string) ([]string, error) {
	args := m.Called(ctx, loc, attr)
	var values []string
	if v := args.Get(0); v != nil {
		values = v.([]string)
	}
	return values, args.Error(1)
}

func (m *MockSession) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSession) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSession) SetViewport(ctx context.Context, width, height int) error {
	args := m.Called(ctx, width, height)
	return args.Error(0)
}

func (m *MockSession) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var buf []byte
	if v := args.Get(0); v != nil {
		buf = v.([]byte)
	}
	return buf, args.Error(1)
}

// -- Provider Mock --

// MockProvider mocks browser.Provider.
type MockProvider struct {
	mock.Mock
}

var _ browser.Provider = (*MockProvider)(nil)

func (m *MockProvider) Acquire(ctx context.Context, opts browser.SessionOptions) (browser.SessionContext, error) {
	args := m.Called(ctx, opts)
	var sess browser.SessionContext
	if v := args.Get(0); v != nil {
		sess = v.(browser.SessionContext)
	}
	return sess, args.Error(1)
}
