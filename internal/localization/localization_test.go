package localization

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"locales/en.json": &fstest.MapFile{Data: []byte(`{"greeting": "hello", "only_en": "english only"}`)},
		"locales/fa.json": &fstest.MapFile{Data: []byte(`{"greeting": "سلام"}`)},
	}
}

func TestGetMessage(t *testing.T) {
	l := NewLocalizer(testFS())

	assert.Equal(t, "سلام", l.GetMessage("fa", "greeting"))
	assert.Equal(t, "hello", l.GetMessage("en", "greeting"))
}

func TestFallbackToEnglishThenKey(t *testing.T) {
	l := NewLocalizer(testFS())

	assert.Equal(t, "english only", l.GetMessage("fa", "only_en"))
	assert.Equal(t, "no_such_key", l.GetMessage("fa", "no_such_key"))
	assert.Equal(t, "hello", l.GetMessage("de", "greeting"))
}

func TestGetMessagefFormats(t *testing.T) {
	fs := fstest.MapFS{
		"locales/en.json": &fstest.MapFile{Data: []byte(`{"welcome": "hi %s"}`)},
	}
	l := NewLocalizer(fs)
	assert.Equal(t, "hi Aelira", l.GetMessagef("en", "welcome", "Aelira"))
}
