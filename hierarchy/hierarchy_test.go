package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArrayHierarchy(t *testing.T) {
	type args struct {
		nodeIDs []uint64
		depths  []uint32
	}
	tests := []struct {
		name    string
		args    args
		wantErr error
	}{
		{"valid forest", args{[]uint64{1, 2, 3}, []uint32{0, 1, 1}}, nil},
		{"empty arrays are a valid empty forest", args{[]uint64{}, []uint32{}}, nil},
		{"nil nodeIDs", args{nil, []uint32{0}}, ErrInvalidArgument},
		{"nil depths", args{[]uint64{1}, nil}, ErrInvalidArgument},
		{"both nil", args{nil, nil}, ErrInvalidArgument},
		{"nodeIDs longer than depths", args{[]uint64{1, 2}, []uint32{0}}, ErrInvalidArgument},
		{"depths longer than nodeIDs", args{[]uint64{1}, []uint32{0, 1}}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewArrayHierarchy(tt.args.nodeIDs, tt.args.depths)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, h)
			assert.Equal(t, uint64(len(tt.args.nodeIDs)), h.Size())
		})
	}
}

func TestArrayHierarchyAccessors(t *testing.T) {
	h := mustNewArrayHierarchy(t, []uint64{10, 20, 30}, []uint32{0, 1, 2})

	assert.Equal(t, uint64(3), h.Size())
	assert.Equal(t, uint64(10), h.NodeID(0))
	assert.Equal(t, uint64(30), h.NodeID(2))
	assert.Equal(t, uint32(0), h.Depth(0))
	assert.Equal(t, uint32(2), h.Depth(2))
}
