package persona

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
)

// Profile is either a FullProfile or a SimplifiedProfile.
type Profile interface {
	Key() string
	Columns() Columns
	isProfile()
}

// Columns are the trait values recorded in the session log. Dimensions a
// profile does not carry are left empty.
type Columns struct {
	Knowledge      string
	Engagement     string
	Confidence     string
	Expressiveness string
	Pacing         string
}

type FullProfile struct {
	Knowledge      scenario.Label
	Engagement     scenario.Label
	Confidence     scenario.Label
	Expressiveness scenario.Label
	Pacing         scenario.Label
	misconceptions []string
}

func (p FullProfile) isProfile() {}

func (p FullProfile) Misconceptions() []string {
	return append([]string(nil), p.misconceptions...)
}

func (p FullProfile) Key() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s_1",
		p.Knowledge.Key, p.Engagement.Key, p.Confidence.Key, p.Expressiveness.Key, p.Pacing.Key)
}

func (p FullProfile) Columns() Columns {
	return Columns{
		Knowledge:      p.Knowledge.Key,
		Engagement:     p.Engagement.Key,
		Confidence:     p.Confidence.Key,
		Expressiveness: p.Expressiveness.Key,
		Pacing:         p.Pacing.Key,
	}
}

type SimplifiedProfile struct {
	Knowledge  scenario.Label
	Engagement scenario.Label
	Traits     string
}

func (p SimplifiedProfile) isProfile() {}

func (p SimplifiedProfile) Key() string {
	return p.Knowledge.Key + "_" + p.Engagement.Key
}

func (p SimplifiedProfile) Columns() Columns {
	return Columns{Knowledge: p.Knowledge.Key, Engagement: p.Engagement.Key}
}

// Render serialises a profile into the <currentProfile> block the student
// model is conditioned on.
func Render(p Profile) string {
	var b strings.Builder
	b.WriteString("<currentProfile>\n")

	switch p := p.(type) {
	case FullProfile:
		element(&b, 1, "knowledgeLevel", labelText(p.Knowledge))
		element(&b, 1, "engagementStyle", labelText(p.Engagement))
		b.WriteString("    <misconceptions>\n")
		for _, m := range p.misconceptions {
			b.WriteString("        - ")
			escape(&b, m)
			b.WriteByte('\n')
		}
		b.WriteString("    </misconceptions>\n")
		b.WriteString("    <personalityTraits>\n")
		element(&b, 2, "confidence", labelText(p.Confidence))
		element(&b, 2, "expressiveness", labelText(p.Expressiveness))
		element(&b, 2, "pacing", labelText(p.Pacing))
		b.WriteString("    </personalityTraits>\n")
	case SimplifiedProfile:
		element(&b, 1, "knowledgeLevel", p.Knowledge.Key)
		element(&b, 1, "engagementStyle", p.Engagement.Key)
		element(&b, 1, "traits", strings.TrimSpace(p.Traits))
	}

	b.WriteString("</currentProfile>")
	return b.String()
}

func labelText(l scenario.Label) string {
	if l.Description == "" {
		return l.Key
	}
	return l.Key + "-" + l.Description
}

func element(b *strings.Builder, depth int, name, value string) {
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteString("<" + name + ">")
	escape(b, value)
	b.WriteString("</" + name + ">\n")
}

func escape(b *strings.Builder, s string) {
	// strings.Builder writes never fail
	_ = xml.EscapeText(b, []byte(s))
}
