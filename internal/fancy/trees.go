package fancy

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

// Tree returns a new tree with the shared enumerator styling.
func Tree() *tree.Tree {
	t := tree.New()
	t.EnumeratorStyle(BranchStyle)
	t.Enumerator(tree.RoundedEnumerator)
	return t
}

// Branch returns a styled subtree with a header root and the given children.
// Tree.Child returns the receiver, so nested sections must be built as
// separate trees and attached to their parent.
func Branch(title string, children ...any) *tree.Tree {
	return Tree().Root(HeaderStyle.Render(title)).Child(children...)
}

// BranchNode creates a section header with a trailing annotation, such as a count.
func BranchNode(title string, annotation string) *tree.Tree {
	return Tree().Root(
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			HeaderStyle.Render(title),
			" ",
			InfoStyle.Render(annotation),
		),
	)
}

// KV formats a "key: value" leaf.
func KV(key string, value any) string {
	return fmt.Sprintf("%s: %v", key, value)
}

// TruncateString shortens s to maxLength, marking the cut with "...".
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
