package ptree

import (
	"fmt"
	"strconv"
	"strings"
)

// ExportNewick renders the tree as a standard Newick string with branch
// lengths in substitutions/site at 6 significant digits (spec.md section 6).
// gotree's Newick writer isn't used (see DESIGN.md): this tree is an arena
// of NodeIDs, not a gotree.Tree, so writing the handful of lines a Newick
// walk needs is simpler and more direct than building an adapter.
func (t *Tree) ExportNewick() string {
	if t.Root == noNode {
		return ";"
	}
	var b strings.Builder
	t.writeNewick(&b, t.Root)
	b.WriteByte(';')
	return b.String()
}

func (t *Tree) writeNewick(b *strings.Builder, id NodeID) {
	if t.IsLeaf(id) {
		b.WriteString(escapeNewickName(t.Nodes[id].SampleName))
	} else {
		l, r := t.Children(id)
		b.WriteByte('(')
		t.writeNewick(b, l)
		b.WriteByte(',')
		t.writeNewick(b, r)
		b.WriteByte(')')
	}
	if t.Nodes[id].Parent != noNode {
		b.WriteByte(':')
		b.WriteString(formatBranchLength(t.Nodes[id].BranchLength))
	}
}

func formatBranchLength(bl float64) string {
	return strconv.FormatFloat(bl, 'g', 6, 64)
}

func escapeNewickName(name string) string {
	if strings.ContainsAny(name, " ()[]:;,'") {
		return fmt.Sprintf("'%s'", strings.ReplaceAll(name, "'", "''"))
	}
	return name
}
