package render

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/matzehuels/vardump/pkg/dump"
)

// HTML writes tree as var-dump widget markup:
//
//	<div class="var-dump" data-tree="...">
//	  <ol data-node="0">
//	    <li data-node="1"><span class="name">0</span><span class="separator">: </span><span class="value"><span class="number">1</span></span></li>
//	    <li class="collapsed" data-node="2"><div class="bullet"></div>...</li>
//	  </ol>
//	</div>
//
// A container root is shown as its child list. Built containers keep
// their list in the markup, hidden with display:none while collapsed, so
// a client can toggle them without another round trip.
func HTML(w io.Writer, tree *dump.Tree) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<div class="var-dump" data-tree="%s">`, tree.ID)
	buf.WriteByte('\n')

	root := tree.Root
	if root.IsContainer() {
		writeList(&buf, root)
	} else {
		writeValue(&buf, root.Line())
		buf.WriteByte('\n')
	}

	buf.WriteString("</div>\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// HTMLNode writes the markup for n alone: its row followed by its child
// list when built. For the root it writes the child list, or the bare
// value of a scalar root. Servers use it to answer toggle requests.
func HTMLNode(w io.Writer, n *dump.Node) error {
	var buf bytes.Buffer
	switch {
	case n.IsRoot() && n.IsContainer():
		writeList(&buf, n)
	case n.IsRoot():
		writeValue(&buf, n.Line())
		buf.WriteByte('\n')
	default:
		writeItem(&buf, n)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeList(buf *bytes.Buffer, n *dump.Node) {
	display := "none"
	if n.Expanded() {
		display = "block"
	}
	fmt.Fprintf(buf, `<ol data-node="%d" style="display:%s">`, n.ID, display)
	buf.WriteByte('\n')

	children := n.Children()
	if len(children) == 0 {
		fmt.Fprintf(buf, `<span class="empty">%s</span>`, dump.Placeholder)
		buf.WriteByte('\n')
	}
	for _, c := range children {
		writeItem(buf, c)
	}
	buf.WriteString("</ol>\n")
}

func writeItem(buf *bytes.Buffer, n *dump.Node) {
	line := n.Line()
	if n.IsContainer() {
		state := "collapsed"
		if n.Expanded() {
			state = "expanded"
		}
		fmt.Fprintf(buf, `<li class="%s" data-node="%d"><div class="bullet"></div>`, state, n.ID)
	} else {
		fmt.Fprintf(buf, `<li data-node="%d">`, n.ID)
	}

	fmt.Fprintf(buf, `<span class="name">%s</span>`, html.EscapeString(line.Key))
	fmt.Fprintf(buf, `<span class="separator">%s</span>`, html.EscapeString(line.Separator))
	writeValue(buf, line)
	buf.WriteString("</li>\n")

	if n.Built() {
		writeList(buf, n)
	}
}

func writeValue(buf *bytes.Buffer, line dump.Line) {
	fmt.Fprintf(buf, `<span class="value"><span class="%s">%s</span></span>`,
		html.EscapeString(line.Kind), html.EscapeString(line.Header))
}
