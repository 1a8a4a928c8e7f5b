package builder

// MockBuilder is a hand-written go.uber.org/mock/gomock double for
// Builder, in the shape mockgen would generate from builder.go — written
// by hand since nothing in this module needs the go/packages reflection
// mockgen itself depends on (see DESIGN.md).

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/hir"
)

// MockBuilder mocks the Builder interface.
type MockBuilder struct {
	ctrl     *gomock.Controller
	recorder *MockBuilderMockRecorder
}

// MockBuilderMockRecorder records expected calls on a MockBuilder.
type MockBuilderMockRecorder struct {
	mock *MockBuilder
}

// NewMockBuilder returns a new mock bound to ctrl.
func NewMockBuilder(ctrl *gomock.Controller) *MockBuilder {
	m := &MockBuilder{ctrl: ctrl}
	m.recorder = &MockBuilderMockRecorder{mock: m}
	return m
}

// EXPECT returns the object used to set expectations.
func (m *MockBuilder) EXPECT() *MockBuilderMockRecorder {
	return m.recorder
}

func (m *MockBuilder) Block(kind hir.BlockKind, owner, parent arena.Handle) hir.BlockID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Block", kind, owner, parent)
	return ret[0].(hir.BlockID)
}

func (mr *MockBuilderMockRecorder) Block(kind, owner, parent interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Block", reflect.TypeOf((*MockBuilder)(nil).Block), kind, owner, parent)
}

func (m *MockBuilder) Function(block hir.BlockID, name string, kind hir.FunctionKind, linkage hir.Linkage, span hir.Span) hir.FunctionID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Function", block, name, kind, linkage, span)
	return ret[0].(hir.FunctionID)
}

func (mr *MockBuilderMockRecorder) Function(block, name, kind, linkage, span interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Function", reflect.TypeOf((*MockBuilder)(nil).Function), block, name, kind, linkage, span)
}

func (m *MockBuilder) Template(block hir.BlockID, name string, referenceWidth int, builtin hir.BuiltinTemplateKind, span hir.Span) hir.TemplateID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Template", block, name, referenceWidth, builtin, span)
	return ret[0].(hir.TemplateID)
}

func (mr *MockBuilderMockRecorder) Template(block, name, referenceWidth, builtin, span interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Template", reflect.TypeOf((*MockBuilder)(nil).Template), block, name, referenceWidth, builtin, span)
}

func (m *MockBuilder) Variable(block hir.BlockID, name string, kind hir.VariableKind) hir.VariableID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Variable", block, name, kind)
	return ret[0].(hir.VariableID)
}

func (mr *MockBuilderMockRecorder) Variable(block, name, kind interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Variable", reflect.TypeOf((*MockBuilder)(nil).Variable), block, name, kind)
}

func (m *MockBuilder) Statement(block hir.BlockID, kind hir.StatementKind, expr hir.ExpressionID, sub hir.BlockID, line hir.Line) hir.StatementID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Statement", block, kind, expr, sub, line)
	return ret[0].(hir.StatementID)
}

func (mr *MockBuilderMockRecorder) Statement(block, kind, expr, sub, line interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Statement", reflect.TypeOf((*MockBuilder)(nil).Statement), block, kind, expr, sub, line)
}

func (m *MockBuilder) Expression(kind hir.ExprKind, span hir.Span, children ...hir.ExpressionID) hir.ExpressionID {
	m.ctrl.T.Helper()
	args := []interface{}{kind, span}
	for _, c := range children {
		args = append(args, c)
	}
	ret := m.ctrl.Call(m, "Expression", args...)
	return ret[0].(hir.ExpressionID)
}

func (mr *MockBuilderMockRecorder) Expression(kind, span interface{}, children ...interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	args := append([]interface{}{kind, span}, children...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Expression", reflect.TypeOf((*MockBuilder)(nil).Expression), args...)
}

func (m *MockBuilder) Literal(span hir.Span, value interface{}) hir.ExpressionID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Literal", span, value)
	return ret[0].(hir.ExpressionID)
}

func (mr *MockBuilderMockRecorder) Literal(span, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Literal", reflect.TypeOf((*MockBuilder)(nil).Literal), span, value)
}

func (m *MockBuilder) Ident(block hir.BlockID, name string, kind hir.IdentKind, target arena.Handle) hir.IdentID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Ident", block, name, kind, target)
	return ret[0].(hir.IdentID)
}

func (mr *MockBuilderMockRecorder) Ident(block, name, kind, target interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Ident", reflect.TypeOf((*MockBuilder)(nil).Ident), block, name, kind, target)
}

func (m *MockBuilder) Relation(parent, child hir.TemplateID, kind hir.TransformerKind, parentLabel, childLabel string, cascade bool, args ...hir.ExpressionID) hir.RelationID {
	m.ctrl.T.Helper()
	callArgs := []interface{}{parent, child, kind, parentLabel, childLabel, cascade}
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.ctrl.Call(m, "Relation", callArgs...)
	return ret[0].(hir.RelationID)
}

func (mr *MockBuilderMockRecorder) Relation(parent, child, kind, parentLabel, childLabel, cascade interface{}, args ...interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	callArgs := append([]interface{}{parent, child, kind, parentLabel, childLabel, cascade}, args...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Relation", reflect.TypeOf((*MockBuilder)(nil).Relation), callArgs...)
}

var _ Builder = (*MockBuilder)(nil)
