package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionJSONByName(t *testing.T) {
	for _, action := range Actions {
		data, err := json.Marshal(action)
		require.NoError(t, err)
		assert.Equal(t, `"`+action.String()+`"`, string(data))

		var parsed Action
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.Equal(t, action, parsed)
	}
}

func TestActionUnmarshalUnknown(t *testing.T) {
	var action Action
	assert.Error(t, json.Unmarshal([]byte(`"mint"`), &action))
	assert.Error(t, json.Unmarshal([]byte(`3`), &action))
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionDeposit, ParseAction("deposit"))
	assert.Equal(t, ActionWithdraw, ParseAction("withdraw"))
	assert.Equal(t, ActionTransfer, ParseAction("transfer"))
	assert.Equal(t, ActionNull, ParseAction("stake"))
}
