package mediator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ Value int }

type pingHandler struct{}

func (pingHandler) Handle(ctx context.Context, request Request) (Response, error) {
	return request.(*pingCommand).Value * 2, nil
}

func TestMediator_SendDispatchesByType(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingCommand](m, pingHandler{}))

	resp, err := m.Send(context.Background(), &pingCommand{Value: 21})

	require.NoError(t, err)
	assert.Equal(t, 42, resp)
}

func TestMediator_RejectsDuplicateAndUnknown(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingCommand](m, pingHandler{}))

	assert.Error(t, RegisterHandler[*pingCommand](m, pingHandler{}))
	_, err := m.Send(context.Background(), &struct{}{})
	assert.Error(t, err)
	_, err = m.Send(context.Background(), nil)
	assert.Error(t, err)
}

func TestMediator_MiddlewareOrder(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingCommand](m, pingHandler{}))

	var order []string
	trace := func(name string) Middleware {
		return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
			order = append(order, name+">")
			resp, err := next(ctx, request)
			order = append(order, "<"+name)
			return resp, err
		}
	}
	m.RegisterMiddleware(trace("outer"))
	m.RegisterMiddleware(trace("inner"))

	_, err := m.Send(context.Background(), &pingCommand{Value: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "<inner", "<outer"}, order)
}

func TestRequestName(t *testing.T) {
	assert.Equal(t, "pingCommand", RequestName(&pingCommand{}))
	assert.Equal(t, "UnknownRequest", RequestName(nil))
}
