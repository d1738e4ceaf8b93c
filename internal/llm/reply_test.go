package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantStage Stage
		want      string
		wantErr   bool
	}{
		{name: "whole object", reply: ` {"a":1} `, wantStage: StageWhole, want: `{"a":1}`},
		{name: "whole list", reply: `[1,2]`, wantStage: StageWhole, want: `[1,2]`},
		{name: "fenced fragment", reply: "Sure!\n```json\n{\"a\":{\"b\":2}}\n```\nHope this helps.", wantStage: StageFragment, want: `{"a":{"b":2}}`},
		{name: "greedy spans two objects", reply: `first {"a":1} then {"b":2}`, wantErr: true},
		{name: "prose only", reply: "I cannot help with that.", wantErr: true},
		{name: "empty", reply: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, stage, err := ExtractJSON(tt.reply)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				assert.Equal(t, StageNone, stage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStage, stage)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}
