package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rollInput struct {
	BlueprintID string `validate:"required"`
	MinAffixes  int    `validate:"min=0,max=6"`
	MaxAffixes  int    `validate:"min=0,max=6,gtefield=MinAffixes"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   rollInput
		wantErr string
	}{
		{name: "valid", input: rollInput{BlueprintID: "iron", MinAffixes: 1, MaxAffixes: 3}},
		{name: "missing blueprint", input: rollInput{MaxAffixes: 1}, wantErr: "blueprintID is required"},
		{name: "too many", input: rollInput{BlueprintID: "iron", MaxAffixes: 9}, wantErr: "maxAffixes must be at most 6"},
		{name: "inverted bounds", input: rollInput{BlueprintID: "iron", MinAffixes: 3, MaxAffixes: 1}, wantErr: "maxAffixes must not be less than minAffixes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStructJoinsErrors(t *testing.T) {
	err := ValidateStruct(rollInput{MinAffixes: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "; ")
}
