package subtitles

import (
	"fmt"
	"strings"
	"time"

	"voclip/internal/domain/phrase"
)

// RenderASS renders a timing map as a two-layer ASS script for burn-in.
// Layer 0 shows the full phrase in white and persists until the next phrase
// starts, so captions do not blink out during absorbed pauses. Layer 1 draws
// the currently spoken word in yellow on top, word by word.
func RenderASS(m phrase.TimingMap) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for i, ph := range m.Phrases {
		end := ph.End
		if i+1 < len(m.Phrases) {
			end = m.Phrases[i+1].Start
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ph.Start))
		b.WriteString(",")
		b.WriteString(assTime(end))
		b.WriteString(",Voclip,,0,0,0,,")
		b.WriteString(phraseText(ph))
		b.WriteString("\n")
	}

	for _, ph := range m.Phrases {
		words := strings.Fields(phraseText(ph))
		for j, mark := range ph.Words {
			start := ph.Start + mark.Offset
			end := ph.End
			if j+1 < len(ph.Words) {
				end = ph.Start + ph.Words[j+1].Offset
			}
			if end <= start {
				continue
			}
			b.WriteString("Dialogue: 1,")
			b.WriteString(assTime(start))
			b.WriteString(",")
			b.WriteString(assTime(end))
			b.WriteString(",Voclip,,0,0,0,,")
			b.WriteString(highlightLine(words, j))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func phraseText(ph phrase.Phrase) string {
	return sanitizeASS(strings.ToUpper(ph.Text))
}

// highlightLine rebuilds the full phrase with only word idx colored. Keeping
// the whole line on the highlight layer keeps centered alignment identical to
// layer 0.
func highlightLine(words []string, idx int) string {
	parts := make([]string, len(words))
	for i, w := range words {
		if i == idx {
			parts[i] = `{\c&H00FFFF&}` + w + `{\c&HFFFFFF&}`
		} else {
			parts[i] = w
		}
	}
	return strings.Join(parts, " ")
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Voclip, Arial Black, 90, &H00FFFFFF, &H0000FFFF, &H00000000, &H00000000, -1,0,0,0,100,100,2,0,1,6,2,5, 50,50,200,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
