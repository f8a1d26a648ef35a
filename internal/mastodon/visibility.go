package mastodon

import (
	"fmt"
	"strings"
)

// Visibility is the audience of a status.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
	VisibilityDirect   Visibility = "direct"
)

// Visibilities lists the accepted values in the order they are shown to users.
var Visibilities = []Visibility{VisibilityPrivate, VisibilityPublic, VisibilityUnlisted, VisibilityDirect}

func ParseVisibility(s string) (Visibility, error) {
	for _, v := range Visibilities {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid visibility %q (want one of %s)", s, visibilityChoices())
}

func visibilityChoices() string {
	names := make([]string, len(Visibilities))
	for i, v := range Visibilities {
		names[i] = string(v)
	}
	return strings.Join(names, "|")
}

// String, Set and Type let a *Visibility be used as a command-line flag.
func (v *Visibility) String() string {
	return string(*v)
}

func (v *Visibility) Set(s string) error {
	parsed, err := ParseVisibility(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v *Visibility) Type() string {
	return visibilityChoices()
}
