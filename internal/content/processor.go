package content

import (
	"errors"
	"fmt"
	"strings"
)

// Processor composes the republished payload of a toot.
type Processor struct {
	converter *Converter
}

func NewProcessor() *Processor {
	return &Processor{
		converter: NewConverter(),
	}
}

// FormatPayload prefixes the converted text with the original publish
// timestamp so the date survives the migration.
func FormatPayload(published, text string) string {
	return fmt.Sprintf("[%s]\n%s", published, text)
}

// Compose converts html and formats it with the published timestamp.
func (p *Processor) Compose(published, html string) (string, error) {
	if strings.TrimSpace(published) == "" {
		return "", errors.New("published timestamp cannot be empty")
	}

	text, err := p.converter.ToText(html)
	if err != nil {
		return "", err
	}

	return FormatPayload(published, text), nil
}
