package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		action  Action
		want    Status
		legal   bool
	}{
		{"approve pending", StatusPending, ActionApprove, StatusApproved, true},
		{"reject pending", StatusPending, ActionReject, StatusRejected, true},
		{"respond approved", StatusApproved, ActionMarkResponded, StatusResponded, true},
		{"respond pending", StatusPending, ActionMarkResponded, "", false},
		{"approve approved", StatusApproved, ActionApprove, "", false},
		{"approve rejected", StatusRejected, ActionApprove, "", false},
		{"reject responded", StatusResponded, ActionReject, "", false},
		{"approve expired", StatusExpired, ActionApprove, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, legal := NextStatus(tt.current, tt.action)
			assert.Equal(t, tt.legal, legal)
			if tt.legal {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusResponded.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.False(t, Status("bogus").IsValid())
}

func TestDecodeMatchedKeywords(t *testing.T) {
	opp := &Opportunity{MatchedKeywords: datatypes.JSON(`[{"phrase":"monitoring","category":"topic","weight":1.5}]`)}

	matched, err := opp.DecodeMatchedKeywords()
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "monitoring", matched[0].Phrase)
	assert.Equal(t, 1.5, matched[0].Weight)

	empty := &Opportunity{}
	matched, err = empty.DecodeMatchedKeywords()
	require.NoError(t, err)
	assert.Nil(t, matched)
}
