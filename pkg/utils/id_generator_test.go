package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.Equal(t, uuid.RFC4122, parsed.Variant())
	assert.Len(t, id, 36)
}

func TestGenerateID_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestUUIDGenerator(t *testing.T) {
	var gen IDGenerator = UUIDGenerator{}
	assert.NoError(t, ValidateID(gen.NewID()))
}

func TestValidateID(t *testing.T) {
	valid := GenerateID()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "Canonical", id: valid},
		{name: "Empty", id: "", wantErr: true},
		{name: "Garbage", id: "not-a-uuid", wantErr: true},
		{name: "Uppercase", id: strings.ToUpper(valid), wantErr: true},
		{name: "Braced", id: "{" + valid + "}", wantErr: true},
		{name: "URN", id: "urn:uuid:" + valid, wantErr: true},
		{name: "No dashes", id: strings.ReplaceAll(valid, "-", ""), wantErr: true},
		{name: "Path traversal", id: "../../etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
