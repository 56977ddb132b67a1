package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_NormalizeLowercasesPrefecture(t *testing.T) {
	rec := Record{Prefecture: "  TOKYO  "}
	rec.Normalize()
	assert.Equal(t, "tokyo", rec.Prefecture)
}

func TestRecord_ValidateRequiresIDAndJCN(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", Record{ID: "a", JCN: "1"}, false},
		{"missing id", Record{JCN: "1"}, true},
		{"missing jcn", Record{ID: "a"}, true},
		{"missing both", Record{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
