package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopology_SupportsTransactions(t *testing.T) {
	tests := []struct {
		name     string
		topology Topology
		want     bool
	}{
		{"standalone", Topology{}, false},
		{"replica set", Topology{ReplicaSet: "rs0"}, true},
		{"sharded router", Topology{Router: "isdbgrid"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.topology.SupportsTransactions())
		})
	}
}
