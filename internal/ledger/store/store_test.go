package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestImportLockKey(t *testing.T) {
	a := uuid.MustParse("5a0e2b1c-3d4e-4f50-8a61-72b3c4d5e6f7")
	b := uuid.MustParse("9e8d7c6b-5a49-4382-a1b0-c9d8e7f6a5b4")

	type testCase struct {
		name  string
		left  uuid.UUID
		right uuid.UUID
		same  bool
	}

	tests := []testCase{
		{name: "SameProject", left: a, right: a, same: true},
		{name: "OtherProject", left: a, right: b, same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, importLockKey(tt.left) == importLockKey(tt.right))
		})
	}
}
