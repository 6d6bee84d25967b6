package output

import (
	"sort"
	"strings"
)

const (
	treeEdge  = "├── "
	treeLast  = "└── "
	treeVert  = "│   "
	treeSpace = "    "

	// noteColumn is where notes are aligned.
	noteColumn = 36
)

type treeNode struct {
	name     string
	note     string
	isDir    bool
	children []*treeNode
}

// RenderSourceTree renders slash-separated source paths as a tree rooted at
// root. notes maps a path to a dimmed annotation, typically its result.
func RenderSourceTree(root string, notes map[string]string) string {
	if len(notes) == 0 {
		return ""
	}

	top := &treeNode{name: root, isDir: true}
	for p, note := range notes {
		parts := strings.Split(strings.Trim(p, "/"), "/")
		cur := top
		for i, part := range parts {
			leaf := i == len(parts)-1
			child := cur.child(part)
			if child == nil {
				child = &treeNode{name: part, isDir: !leaf}
				cur.children = append(cur.children, child)
			}
			if leaf {
				child.note = note
			}
			cur = child
		}
	}
	top.sort()

	var sb strings.Builder
	sb.WriteString(StyleSummary.Render(top.name + "/"))
	sb.WriteString("\n")
	for i, c := range top.children {
		c.render(&sb, "", i == len(top.children)-1)
	}
	return sb.String()
}

func (n *treeNode) child(name string) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// sort orders directories first, then by name.
func (n *treeNode) sort() {
	sort.Slice(n.children, func(i, j int) bool {
		a, b := n.children[i], n.children[j]
		if a.isDir != b.isDir {
			return a.isDir
		}
		return a.name < b.name
	})
	for _, c := range n.children {
		c.sort()
	}
}

func (n *treeNode) render(sb *strings.Builder, prefix string, last bool) {
	connector, nextPrefix := treeEdge, prefix+treeVert
	if last {
		connector, nextPrefix = treeLast, prefix+treeSpace
	}

	name := n.name
	if n.isDir {
		name += "/"
	}
	line := prefix + connector + name
	if n.note != "" {
		pad := noteColumn - len([]rune(line))
		if pad < 2 {
			pad = 2
		}
		line += strings.Repeat(" ", pad) + StyleDim.Render(n.note)
	}
	sb.WriteString(line)
	sb.WriteString("\n")

	for i, c := range n.children {
		c.render(sb, nextPrefix, i == len(n.children)-1)
	}
}
