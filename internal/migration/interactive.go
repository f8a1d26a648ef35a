package migration

import (
	"fmt"

	"github.com/exileum/toot-migrator/internal/mastodon"
)

// Confirmer asks the user a yes/no question. *config.Prompter satisfies it.
type Confirmer interface {
	PromptBool(prompt string, defaultValue bool) bool
}

// shouldConfirm reports whether the user must approve before publishing.
func (m *Migrator) shouldConfirm(count int) bool {
	return count > 0 && !m.config.Migration.AssumeYes && !m.config.Migration.DryRun
}

func (m *Migrator) confirmPublish(count int, account *mastodon.Account) bool {
	target := m.config.Mastodon.APIBaseURL
	if account != nil {
		target = fmt.Sprintf("@%s on %s", account.Acct, m.config.Mastodon.APIBaseURL)
	}

	fmt.Fprintf(m.out, "\nAbout to publish %d toot(s) to %s with visibility %q.\n",
		count, target, m.config.Migration.Visibility)
	return m.confirmer.PromptBool("Start publishing now?", false)
}
