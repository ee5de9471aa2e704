package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreman-dev/foreman/pkg/errors"
)

func echoTool(name string) Tool {
	return NewFuncTool(name, "echoes its arguments", &Schema{
		Type: "object",
		Properties: map[string]*Property{
			"value": {Type: "string"},
		},
		Required: []string{"value"},
	}, func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"value": args["value"]}, nil
	})
}

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name    string
		tool    Tool
		wantErr bool
	}{
		{"valid tool", echoTool("echo"), false},
		{"nil tool", nil, true},
		{"empty name", echoTool(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.tool)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))
	assert.Error(t, r.Register(echoTool("echo")))
}

func TestRegistry_Invoke(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	result, err := r.Invoke(context.Background(), "echo", map[string]interface{}{"value": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result["value"])
}

func TestRegistry_InvokeUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(context.Background(), "nope", nil)
	require.Error(t, err)

	var toolErr *errors.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "nope", toolErr.Tool)

	var notFound *errors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRegistry_InvokeMissingRequiredArg(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	_, err := r.Invoke(context.Background(), "echo", map[string]interface{}{})
	require.Error(t, err)

	var toolErr *errors.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Contains(t, toolErr.Message, "value")
}

func TestRegistry_InvokeExecutionFailure(t *testing.T) {
	r := NewRegistry()
	failing := NewFuncTool("boom", "always fails", nil,
		func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return nil, fmt.Errorf("backend timeout")
		})
	require.NoError(t, r.Register(failing))

	_, err := r.Invoke(context.Background(), "boom", nil)
	require.Error(t, err)

	var toolErr *errors.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "boom", toolErr.Tool)
	assert.Contains(t, toolErr.Message, "backend timeout")
}

func TestRegistry_DynamicRegistration(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has("late"))

	require.NoError(t, r.Register(echoTool("late")))
	assert.True(t, r.Has("late"))

	require.NoError(t, r.Unregister("late"))
	assert.False(t, r.Has("late"))
	assert.Error(t, r.Unregister("late"))
}

func TestRegistry_Descriptors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	descs := r.Descriptors()
	require.Len(t, descs, 1)
	assert.Equal(t, "echo", descs[0].Name)
	assert.NotNil(t, descs[0].Schema)
}
