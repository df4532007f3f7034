package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParser() *Parser {
	labels := [5]string{"name/lineage:", "race:", "birth date:", "parent names:", "subclass:"}
	return NewParser(DefaultFields(labels), "unspecified")
}

func TestParseRoundTrip(t *testing.T) {
	p := testParser()
	text := "name/lineage: Aelira Vesh\nrace: Elf\nbirth date: 1990-04-02\nparent names: Doran/Mira"

	require.NoError(t, p.Validate(text))

	fields := p.Parse(text)
	assert.Equal(t, "Aelira Vesh", fields.CharacterName)
	assert.Equal(t, "Elf", fields.Race)
	assert.Equal(t, "1990-04-02", fields.BirthDate)
	assert.Equal(t, "Doran/Mira", fields.ParentNames)
	assert.Equal(t, "unspecified", fields.Subclass)
}

func TestParseTrimsAndIgnoresUnlabeledLines(t *testing.T) {
	p := testParser()
	text := "some preamble the user typed\n" +
		"name/lineage:   Kael  \n" +
		"race: Orc\n" +
		"birth date: 1002-01-01\n" +
		"parent names: Gor/Uma\n" +
		"subclass: Berserker\n" +
		"trailing chatter"

	require.NoError(t, p.Validate(text))
	fields := p.Parse(text)
	assert.Equal(t, "Kael", fields.CharacterName)
	assert.Equal(t, "Berserker", fields.Subclass)
}

func TestValidateReportsMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		missing []string
	}{
		{
			name:    "absent labels",
			text:    "name/lineage: Kael\nrace: Orc\nsome line\nanother line",
			missing: []string{"birth date:", "parent names:"},
		},
		{
			name:    "label present but value empty",
			text:    "name/lineage: Kael\nrace:\nbirth date: 1002-01-01\nparent names: Gor/Uma",
			missing: []string{"race:"},
		},
		{
			name:    "all fields empty",
			text:    "name/lineage:\nrace:\nbirth date:\nparent names:",
			missing: []string{"name/lineage:", "race:", "birth date:", "parent names:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testParser().Validate(tt.text)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.missing, verr.Missing)
		})
	}
}

func TestValidateRejectsShortSubmission(t *testing.T) {
	p := testParser()
	err := p.Validate("name/lineage: Kael race: Orc birth date: x parent names: y")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.TooShort)
}

func TestValidateFailsClosedOnSentinel(t *testing.T) {
	// A pre-filled "unspecified" must not pass as a real value.
	p := testParser()
	text := "name/lineage: unspecified\nrace: Orc\nbirth date: 1002-01-01\nparent names: Gor/Uma"
	err := p.Validate(text)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name/lineage:"}, verr.Missing)
}

func TestValidateIdempotent(t *testing.T) {
	p := testParser()
	text := "incomplete"
	first := p.Validate(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.Validate(text))
	}
	require.True(t, errors.As(first, new(*ValidationError)))
}
