package compiler

import (
	"strings"

	"github.com/listflow/listflow/pkg/domain"
)

// ParseOutline converts raw indented bullet text into a RawItem tree.
// Bullets may use "-", "*" or "+" and any consistent indentation (tabs or
// spaces); nesting follows relative indent width. Non-bullet and blank
// lines are ignored.
func ParseOutline(text string) []domain.RawItem {
	type frame struct {
		width int
		items *[]domain.RawItem
	}

	var roots []domain.RawItem
	stack := []frame{{width: -1, items: &roots}}

	for _, line := range strings.Split(text, "\n") {
		body, width, ok := splitBullet(line)
		if !ok {
			continue
		}

		// Pop back to the innermost frame shallower than this line.
		for len(stack) > 1 && width <= stack[len(stack)-1].width {
			stack = stack[:len(stack)-1]
		}

		parent := stack[len(stack)-1].items
		*parent = append(*parent, domain.RawItem{Text: body})
		node := &(*parent)[len(*parent)-1]
		stack = append(stack, frame{width: width, items: &node.Children})
	}
	return roots
}

// splitBullet strips the leading indent and bullet prefix of a line.
// Tabs weigh four columns so tab- and space-indented documents mix cleanly.
func splitBullet(line string) (body string, width int, ok bool) {
	i := 0
	for i < len(line) {
		switch line[i] {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			goto done
		}
		i++
	}
done:
	rest := line[i:]
	if len(rest) < 2 {
		return "", 0, false
	}
	if (rest[0] == '-' || rest[0] == '*' || rest[0] == '+') && rest[1] == ' ' {
		return strings.TrimRight(rest[2:], " \t\r"), width, true
	}
	// Checkbox bullets ("- [ ] ...") are handled above; anything else is
	// prose and carries no configuration.
	return "", 0, false
}
