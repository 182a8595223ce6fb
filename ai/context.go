package ai

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"portfolio/models"
)

// BuildPortfolioContext assembles the knowledge block for the assistant from
// the content tables. Every section is best effort: a failed query logs and
// drops that section, it never fails the chat turn.
func BuildPortfolioContext(db *gorm.DB) string {
	var b strings.Builder

	person, err := models.GetPerson(db)
	switch {
	case err != nil:
		log.Printf("[Context] person lookup failed: %v", err)
	case person != nil:
		fmt.Fprintf(&b, "## Identity\nName: %s %s\nRole: %s\nLocation: %s\nLanguages: %s\n\n",
			person.FirstName, person.LastName, person.Role, person.Location, person.Languages)
	default:
		fmt.Fprintf(&b, "## Identity\nName: %s\n\n", ownerName())
	}

	about, err := models.GetAbout(db)
	if err != nil {
		log.Printf("[Context] about lookup failed: %v", err)
	} else if about != nil {
		fmt.Fprintf(&b, "## About\n%s\n%s\n\n", about.IntroTitle, about.IntroDescription)
	}

	work, err := models.ExperiencesByType(db, models.ExperienceWork)
	if err != nil {
		log.Printf("[Context] work experience lookup failed: %v", err)
	} else if len(work) > 0 {
		b.WriteString("## Work experience\n")
		for _, e := range work {
			writeExperience(&b, e)
		}
		b.WriteString("\n")
	}

	orgs, err := models.ExperiencesByType(db, models.ExperienceOrganization)
	if err != nil {
		log.Printf("[Context] organization lookup failed: %v", err)
	} else if len(orgs) > 0 {
		b.WriteString("## Organizations and volunteering\n")
		for _, e := range orgs {
			writeExperience(&b, e)
		}
		b.WriteString("\n")
	}

	edu, err := models.EducationList(db)
	if err != nil {
		log.Printf("[Context] education lookup failed: %v", err)
	} else if len(edu) > 0 {
		b.WriteString("## Education\n")
		for _, e := range edu {
			fmt.Fprintf(&b, "- %s: %s\n", e.Name, e.Description)
		}
		b.WriteString("\n")
	}

	skills, err := models.SkillList(db)
	if err != nil {
		log.Printf("[Context] skills lookup failed: %v", err)
	} else if len(skills) > 0 {
		b.WriteString("## Skills\n")
		for _, s := range skills {
			fmt.Fprintf(&b, "- %s: %s\n", s.Title, s.Description)
		}
		b.WriteString("\n")
	}

	certs, err := models.CertificationList(db)
	if err != nil {
		log.Printf("[Context] certifications lookup failed: %v", err)
	} else if len(certs) > 0 {
		b.WriteString("## Certifications\n")
		for _, c := range certs {
			fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.Role)
		}
		b.WriteString("\n")
	}

	projects, err := models.VisibleProjects(db)
	if err != nil {
		log.Printf("[Context] projects lookup failed: %v", err)
	} else if len(projects) > 0 {
		b.WriteString("## Projects\n")
		for _, p := range projects {
			fmt.Fprintf(&b, "- %s: %s", p.Title, p.Summary)
			if p.Link != "" {
				fmt.Fprintf(&b, " (%s)", p.Link)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	posts, err := models.VisiblePosts(db)
	if err != nil {
		log.Printf("[Context] posts lookup failed: %v", err)
	} else if len(posts) > 0 {
		b.WriteString("## Blog posts\n")
		for _, p := range posts {
			fmt.Fprintf(&b, "- %s: %s\n", p.Title, p.Summary)
		}
		b.WriteString("\n")
	}

	links, err := models.SocialLinkList(db)
	if err != nil {
		log.Printf("[Context] social links lookup failed: %v", err)
	} else if len(links) > 0 {
		b.WriteString("## Links\n")
		for _, l := range links {
			fmt.Fprintf(&b, "- %s: %s\n", l.Name, l.Link)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeExperience(b *strings.Builder, e models.Experience) {
	fmt.Fprintf(b, "- %s at %s (%s)\n", e.Role, e.Company, e.Timeframe)
	for _, a := range strings.Split(e.Achievements, "\n") {
		if a = strings.TrimSpace(a); a != "" {
			fmt.Fprintf(b, "  - %s\n", a)
		}
	}
}

// ContextSummary trims the full context for the classifier prompts, which
// only need enough to recognize on-topic questions. The cut lands on a rune
// boundary so non-ASCII content never truncates mid-character.
func ContextSummary(full string) string {
	const max = 1200
	if len(full) <= max {
		return full
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(full[cut]) {
		cut--
	}
	return full[:cut]
}
