package cli

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
)

func TestTruncateRunes(t *testing.T) {
	gt.Value(t, truncateRunes("short", 240)).Equal("short")

	long := strings.Repeat("ضريبة – ", 60)
	out := truncateRunes(long, 240)
	gt.Bool(t, utf8.ValidString(out)).True()
	gt.Bool(t, strings.HasSuffix(out, "...")).True()
	gt.Number(t, utf8.RuneCountInString(out)).Equal(243)
}
