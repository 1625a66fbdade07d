// Package persona loads the static knowledge bundle that grounds every
// generation and evaluation: a free-text summary plus optional LinkedIn and
// resume exports.
package persona

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Profile is the knowledge context for one person. It is assembled once at
// startup and treated as immutable afterwards.
type Profile struct {
	Name     string
	Summary  string
	LinkedIn string
	Resume   string
}

// Load reads the persona documents from dir. Missing or unreadable files
// degrade to empty strings; loading never fails startup.
func Load(dir, name string) *Profile {
	p := &Profile{Name: strings.TrimSpace(name)}
	if p.Name == "" {
		p.Name = "the site owner"
	}

	p.Summary = readText(dir, "summary.txt")
	p.LinkedIn = readText(dir, "linkedin.txt")
	p.Resume = readText(dir, "resume.txt")

	if p.Summary == "" {
		log.Printf("[Persona] no summary.txt in %s, persona will be thin", dir)
	}
	return p
}

func readText(dir, file string) string {
	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Persona] skipping %s: %v", file, err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SystemPrompt renders the grounding instruction injected into every
// generation call.
func (p *Profile) SystemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are acting as %s. You are answering questions on %s's website, "+
		"particularly questions related to %s's career, background, skills and experience. ",
		p.Name, p.Name, p.Name)
	b.WriteString("Your responsibility is to represent " + p.Name + " for interactions on the website as faithfully as possible. ")
	b.WriteString("You are given a summary, a LinkedIn profile, and a resume which you can use to answer questions. ")
	b.WriteString("Be professional and engaging, as if talking to a potential client or future employer who came across the website. ")
	b.WriteString("If you don't know the answer to any question, use your record_unknown_question tool to record the question that you couldn't answer. ")
	b.WriteString("If the user is engaging in discussion, try to steer them towards getting in touch via email; " +
		"ask for their email and record it using your record_user_details tool.")

	fmt.Fprintf(&b, "\n\n## Summary:\n%s\n\n## LinkedIn Profile:\n%s\n\n## Resume:\n%s\n\n", p.Summary, p.LinkedIn, p.Resume)
	fmt.Fprintf(&b, "With this context, please chat with the user, always staying in character as %s.", p.Name)
	return b.String()
}
