package identity_test

import (
	"testing"

	"github.com/inspector-go/metrics/internal/identity"
	"github.com/stretchr/testify/assert"
)

func TestStringStringMap(t *testing.T) {
	a := map[string]string{"mode": "test", "component": "main"}
	b := map[string]string{"component": "main", "mode": "test"}

	assert.Equal(t, identity.StringStringMap(a), identity.StringStringMap(b))
	assert.NotEqual(t,
		identity.StringStringMap(map[string]string{"a": "b"}),
		identity.StringStringMap(map[string]string{"b": "a"}),
	)
	assert.NotEqual(t, identity.StringStringMap(a), identity.StringStringMap(nil))
}

func TestNameAndKeys(t *testing.T) {
	assert.Equal(t,
		identity.NameAndKeys("requests", []string{"mode", "component"}),
		identity.NameAndKeys("requests", []string{"component", "mode"}),
	)
	assert.NotEqual(t,
		identity.NameAndKeys("requests", []string{"mode"}),
		identity.NameAndKeys("latency", []string{"mode"}),
	)
	assert.NotEqual(t,
		identity.NameAndKeys("requests", []string{"mode"}),
		identity.NameAndKeys("requests", []string{"mode", "component"}),
	)
}

func TestAccumulatorIsCommutative(t *testing.T) {
	ab := identity.NewAccumulator().AddString("a").AddString("b")
	ba := identity.NewAccumulator().AddString("b").AddString("a")
	assert.Equal(t, ab.Value(), ba.Value())
	assert.Equal(t, uint64(23), identity.NewAccumulator().Value())
	assert.Equal(t, uint64(7+31*2), identity.NewAccumulatorWithSeed(7).AddUint64(2).Value())
}
