package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRatingCustomID(t *testing.T) {
	tests := []struct {
		name     string
		customID string
		wantID   string
		wantRate string
		wantOK   bool
	}{
		{name: "valid", customID: "rate:1000:cute", wantID: "1000", wantRate: "cute", wantOK: true},
		{name: "wrong tag", customID: "vote:1000:cute", wantOK: false},
		{name: "missing label field", customID: "rate:1000", wantOK: false},
		{name: "extra field", customID: "rate:1000:cute:extra", wantOK: false},
		{name: "empty id", customID: "rate::cute", wantOK: false},
		{name: "empty label", customID: "rate:1000:", wantOK: false},
		{name: "empty string", customID: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, label, ok := ParseRatingCustomID(tt.customID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantRate, label)
		})
	}
}

func TestRatingCustomIDRoundTrip(t *testing.T) {
	id, label, ok := ParseRatingCustomID(RatingCustomID("1002", "pretty"))
	assert.True(t, ok)
	assert.Equal(t, "1002", id)
	assert.Equal(t, "pretty", label)
}

func TestParseRateCommand(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantID     string
		wantResult string
		wantOK     bool
	}{
		{name: "valid", content: "!rate 1000 cute", wantID: "1000", wantResult: "cute", wantOK: true},
		{name: "multi word result", content: "!rate 1000 very cute", wantID: "1000", wantResult: "very cute", wantOK: true},
		{name: "extra whitespace", content: "!rate   1000   cute", wantID: "1000", wantResult: "cute", wantOK: true},
		{name: "missing result", content: "!rate 1000", wantOK: false},
		{name: "missing id and result", content: "!rate", wantOK: false},
		{name: "wrong prefix", content: "!vote 1000 cute", wantOK: false},
		{name: "unrelated chatter", content: "hello there", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, result, ok := ParseRateCommand(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantResult, result)
		})
	}
}

func TestActorID(t *testing.T) {
	t.Run("guild interaction uses member user", func(t *testing.T) {
		i := &Interaction{Member: &Member{User: &User{ID: "u-1"}}}
		assert.Equal(t, "u-1", i.ActorID())
	})

	t.Run("dm interaction uses top-level user", func(t *testing.T) {
		i := &Interaction{User: &User{ID: "u-2"}}
		assert.Equal(t, "u-2", i.ActorID())
	})

	t.Run("no user info", func(t *testing.T) {
		assert.Equal(t, "", (&Interaction{}).ActorID())
	})
}
