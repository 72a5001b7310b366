package server

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

const pageStyle = `
body { font: 13px/1.5 ui-monospace, Menlo, monospace; margin: 2em; color: #222; }
.var-dump ol { list-style: none; margin: 0; padding-left: 1.5em; }
.var-dump > ol { padding-left: 0; }
.var-dump li { position: relative; white-space: nowrap; }
.var-dump li.collapsed, .var-dump li.expanded { cursor: pointer; }
.var-dump .bullet { position: absolute; left: -1em; width: 1em; }
.var-dump li.collapsed > .bullet::before { content: "\25B8"; }
.var-dump li.expanded > .bullet::before { content: "\25BE"; }
.var-dump .name { color: #555; }
.var-dump .separator { color: #999; }
.var-dump .empty { color: #aaa; font-style: italic; padding-left: 1em; }
.var-dump .sequence, .var-dump .mapping { color: #0a7e8c; font-weight: bold; }
.var-dump .text { color: #2a8a2a; }
.var-dump .number { color: #2a62c9; }
.var-dump .boolean, .var-dump .uuid { color: #b07d00; }
.var-dump .temporal, .var-dump .callable { color: #7a4fc9; }
.var-dump .pattern { color: #c0392b; }
.var-dump .null, .var-dump .undefined, .var-dump .opaque { color: #888; }
`

// pageScript posts a toggle for the clicked row and swaps in the returned
// row and child list. A rebuilt tree answers 409 and the page reloads.
const pageScript = `
document.addEventListener("click", async (e) => {
  const li = e.target.closest("li.collapsed, li.expanded");
  if (!li) return;
  const dump = li.closest(".var-dump").dataset;
  const res = await fetch("/dumps/" + dump.snapshot + "/nodes/" + li.dataset.node + "/toggle?tree=" + dump.tree, { method: "POST" });
  if (res.status === 409) { location.reload(); return; }
  if (!res.ok) return;
  const tpl = document.createElement("template");
  tpl.innerHTML = await res.text();
  const next = li.nextElementSibling;
  if (next && next.tagName === "OL" && next.dataset.node === li.dataset.node) next.remove();
  li.replaceWith(tpl.content);
});
`

// writePage wraps a rendered dump in a standalone page. The snapshot id is
// injected on the var-dump wrapper for the toggle script.
func writePage(w io.Writer, id uuid.UUID, body []byte) {
	dumpHTML := strings.Replace(string(body),
		`<div class="var-dump"`,
		`<div class="var-dump" data-snapshot="`+id.String()+`"`, 1)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>dump " + id.String() + "</title>\n")
	b.WriteString("<style>" + pageStyle + "</style>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(dumpHTML)
	b.WriteString("<script>" + pageScript + "</script>\n")
	b.WriteString("</body>\n</html>\n")
	io.WriteString(w, b.String())
}
