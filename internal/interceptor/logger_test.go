package interceptor_test

import (
	"sync"

	"github.com/jt828/go-http-template/pkg/observability"
)

type logCall struct {
	msg    string
	fields []observability.Field
}

type mockLogger struct {
	mu         sync.Mutex
	errorCalls []logCall
}

func (m *mockLogger) Debug(msg string, fields ...observability.Field) {}
func (m *mockLogger) Error(msg string, fields ...observability.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, logCall{msg, fields})
}
func (m *mockLogger) Fatal(msg string, fields ...observability.Field)         {}
func (m *mockLogger) Info(msg string, fields ...observability.Field)          {}
func (m *mockLogger) Warn(msg string, fields ...observability.Field)          {}
func (m *mockLogger) With(fields ...observability.Field) observability.Logger { return m }

func (m *mockLogger) errors() []logCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]logCall(nil), m.errorCalls...)
}
