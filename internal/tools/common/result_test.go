package common

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		want    int
		wantErr bool
	}{
		{name: "missing", args: map[string]interface{}{}, want: 30},
		{name: "null", args: map[string]interface{}{"n": nil}, want: 30},
		{name: "json number", args: map[string]interface{}{"n": float64(45)}, want: 45},
		{name: "int", args: map[string]interface{}{"n": 60}, want: 60},
		{name: "string", args: map[string]interface{}{"n": "15"}, want: 15},
		{name: "fraction", args: map[string]interface{}{"n": 1.5}, wantErr: true},
		{name: "bad string", args: map[string]interface{}{"n": "soon"}, wantErr: true},
		{name: "bool", args: map[string]interface{}{"n": true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntArg(tt.args, "n", 30)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]int{"count": 2})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"count":2}`, text.Text)

	result, err = JSONResult(make(chan int))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"s": "hello", "n": 3}
	assert.Equal(t, "hello", StringArg(args, "s"))
	assert.Empty(t, StringArg(args, "n"))
	assert.Empty(t, StringArg(args, "missing"))
}
