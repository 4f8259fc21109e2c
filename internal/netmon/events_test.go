package netmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservationType_Constants(t *testing.T) {
	assert.Equal(t, ObservationType("LINK_CHANGED"), LinkChanged)
	assert.Equal(t, ObservationType("LINK_REMOVED"), LinkRemoved)
	assert.Equal(t, ObservationType("FEATURES_CHANGED"), FeaturesChanged)
	assert.Equal(t, ObservationType("ADDRESS_ADDED"), AddressAdded)
	assert.Equal(t, ObservationType("ADDRESS_REMOVED"), AddressRemoved)
}
