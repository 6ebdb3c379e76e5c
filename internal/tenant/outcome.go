package tenant

import "fmt"

// Kind is the decision taken for a navigation.
type Kind int

const (
	KindAccept Kind = iota
	KindRedirect
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindAccept:
		return "accept"
	case KindRedirect:
		return "redirect"
	case KindBlock:
		return "block"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is produced once per navigation by a resolver or guard.
// Redirect and Block may carry a target Path; Replace asks the navigation
// primitive not to keep the current entry in history.
type Outcome struct {
	Kind    Kind
	Path    string
	Replace bool
}

func Accept() Outcome { return Outcome{Kind: KindAccept} }

func Redirect(path string, replace bool) Outcome {
	return Outcome{Kind: KindRedirect, Path: path, Replace: replace}
}

// Block stops the navigation without a replacement target.
func Block() Outcome { return Outcome{Kind: KindBlock} }

// BlockTo stops the navigation and sends the visitor to path instead.
func BlockTo(path string) Outcome {
	return Outcome{Kind: KindBlock, Path: path, Replace: true}
}

func (o Outcome) Accepted() bool { return o.Kind == KindAccept }

func (o Outcome) String() string {
	if o.Path == "" {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s %s (replace=%t)", o.Kind, o.Path, o.Replace)
}
