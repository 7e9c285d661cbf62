package langid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "The prime minister addressed parliament on Tuesday.", "en"},
		{"amharic", "ጠቅላይ ሚኒስትሩ ዛሬ ፓርላማ ፊት ቀርበዋል።", "am"},
		{"mixed mostly amharic", "ብሬኪንግ፦ አዲስ አበባ ውስጥ አዲስ የመንገድ ፕሮጀክት ተጀመረ (breaking)", "am"},
		{"empty", "", "unknown"},
		{"punctuation only", "... 123 !!!", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}

func TestDetectEnglishWithAmharicQuote(t *testing.T) {
	// A mostly-English article quoting a short Amharic phrase stays English.
	d := New()
	text := "The broadcaster aired a program titled ዜና covering the regional elections held across the country this week."
	assert.Equal(t, "en", d.Detect(text))
}
