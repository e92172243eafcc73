package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridnode/agentd/internal/model"
)

// AgentMessage and its siblings are unions of pointer fields with omitempty tags: only
// the one field actually set should ever appear on the wire, so a correspondent that
// only checks for the fields it understands never trips over sibling fields it doesn't.
func TestAgentMessageOnlySerializesSetField(t *testing.T) {
	msg := AgentMessage{RunTask: &RunTask{FrameworkID: model.FrameworkId("fw-1")}}
	bs, err := json.Marshal(msg)
	require.NoError(t, err)

	var asMap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(bs, &asMap))
	assert.Len(t, asMap, 1)
	_, ok := asMap["run_task"]
	assert.True(t, ok)
}

func TestExecutorMessageRoundTripsThroughJSON(t *testing.T) {
	original := ExecutorMessage{
		ExecutorRegister: &ExecutorRegister{
			FrameworkID: model.FrameworkId("fw-1"),
			Address:     PID{Name: "executor", Host: "10.0.0.5", Port: 4000},
		},
	}
	bs, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ExecutorMessage
	require.NoError(t, json.Unmarshal(bs, &decoded))
	require.NotNil(t, decoded.ExecutorRegister)
	assert.Equal(t, original.ExecutorRegister.FrameworkID, decoded.ExecutorRegister.FrameworkID)
	assert.Equal(t, original.ExecutorRegister.Address, decoded.ExecutorRegister.Address)
	assert.Nil(t, decoded.StatusUpdate)
	assert.Nil(t, decoded.FrameworkMessage)
}
