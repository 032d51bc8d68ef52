package web

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/uggedal/gitoff/internal/git"
)

// SubjectMax is the longest commit subject shown in a log row.
const SubjectMax = 50

// RenderOptions controls page output.
type RenderOptions struct {
	// Stylesheet is the href of the stylesheet linked from every page.
	Stylesheet string

	// Highlight turns on syntax highlighting of blobs with HighlightStyle.
	Highlight      bool
	HighlightStyle string
}

// Renderer writes view data as HTML. Every piece of text taken from a
// repository is escaped and every link is percent-encoded.
type Renderer struct {
	stylesheet  string
	highlighter *highlighter
}

// NewRenderer validates opts and returns a Renderer.
func NewRenderer(opts RenderOptions) (*Renderer, error) {
	r := &Renderer{stylesheet: opts.Stylesheet}

	if opts.Highlight {
		h, err := newHighlighter(opts.HighlightStyle)
		if err != nil {
			return nil, err
		}
		r.highlighter = h
	}

	return r, nil
}

// href builds an escaped link to a path below the site root.
func href(segments ...string) string {
	return Escape("/" + EscapePath(strings.Join(segments, "/")))
}

func (r *Renderer) header(b *bytes.Buffer, title string, view View) {
	fmt.Fprintf(b, "<!doctype html>\n"+
		"<html>\n<head>\n"+
		"<meta charset=\"utf-8\">\n"+
		"<title>%s</title>\n"+
		"<link href=\"%s\" rel=\"stylesheet\">\n"+
		"</head>\n<body id=\"%s\">\n", Escape(title), Escape(r.stylesheet), view)
}

func footer(b *bytes.Buffer) {
	b.WriteString("</body>\n</html>\n")
}

// repoTitle writes the breadcrumb heading of a repository page. A non
// empty trail is already escaped.
func repoTitle(b *bytes.Buffer, repo git.Repository, trail string) {
	if trail == "" {
		fmt.Fprintf(b, "<h1><a href=\"/\">Index</a> / %s</h1>\n", Escape(repo.Name))
		return
	}
	fmt.Fprintf(b, "<h1><a href=\"/\">Index</a> / <a href=\"%s\">%s</a> / %s</h1>\n",
		href(repo.Name), Escape(repo.Name), trail)
}

// NotFound renders the 404 page.
func (r *Renderer) NotFound() []byte {
	var b bytes.Buffer
	r.header(&b, "404 Not Found", ViewNotFound)
	b.WriteString("<h1>404 Not Found</h1>\n")
	footer(&b)
	return b.Bytes()
}

// Index renders the repository index.
func (r *Renderer) Index(entries []git.IndexEntry) []byte {
	var b bytes.Buffer
	r.header(&b, "Index", ViewIndex)
	b.WriteString("<h1>Index</h1>\n")

	if len(entries) == 0 {
		b.WriteString("<p>No repositories</p>\n")
		footer(&b)
		return b.Bytes()
	}

	b.WriteString("<table>\n<tr>\n<th>Latest commit</th>\n<th>Name</th>\n</tr>\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "<tr>\n<td>%s</td>\n<td><a href=\"%s\">%s</a></td>\n</tr>\n",
			FormatTime(e.Age), href(e.Name), Escape(e.Name))
	}
	b.WriteString("</table>\n")

	footer(&b)
	return b.Bytes()
}

// SummaryData is everything shown on a repository's front page.
type SummaryData struct {
	Log  git.LogPage
	Tree git.TreeView
	Refs []git.Ref
	Head git.CommitDetail
}

// Summary renders a repository's front page: recent history, the root
// tree, references and the HEAD commit.
func (r *Renderer) Summary(repo git.Repository, data SummaryData) ([]byte, error) {
	var b bytes.Buffer
	r.header(&b, repo.Name, ViewSummary)
	repoTitle(&b, repo, "")

	fmt.Fprintf(&b, "<h2><a href=\"%s\">Log</a></h2>\n", href(repo.Name, "l"))
	logTable(&b, repo, data.Log)

	fmt.Fprintf(&b, "<h2><a href=\"%s\">Tree</a></h2>\n", href(repo.Name, "t"))
	if err := r.treeView(&b, repo, data.Tree); err != nil {
		return nil, err
	}

	b.WriteString("<h2>Refs</h2>\n")
	refsTable(&b, repo, data.Refs)

	fmt.Fprintf(&b, "<h2>Commit <a href=\"%s\">%s</a></h2>\n", href(repo.Name, "c", data.Head.ID), ShortID(data.Head.ID))
	commitBody(&b, repo, data.Head)

	footer(&b)
	return b.Bytes(), nil
}

// Log renders a page of history.
func (r *Renderer) Log(repo git.Repository, page git.LogPage) []byte {
	var b bytes.Buffer
	r.header(&b, repo.Name, ViewLog)
	repoTitle(&b, repo, "log")
	logTable(&b, repo, page)
	footer(&b)
	return b.Bytes()
}

func logTable(b *bytes.Buffer, repo git.Repository, page git.LogPage) {
	b.WriteString("<div class=\"log\">\n<table>\n<tr>\n" +
		"<th>Date</th>\n<th>Id</th>\n<th>Subject</th>\n<th>Author</th>\n</tr>\n")

	for _, e := range page.Entries {
		author := "&nbsp;"
		if e.Author != "" {
			author = Escape(e.Author)
		}
		fmt.Fprintf(b, "<tr>\n<td>%s</td>\n<td><a href=\"%s\">%s</a></td>\n<td>%s</td>\n<td>%s</td>\n</tr>\n",
			FormatTime(e.When), href(repo.Name, "c", e.ID), ShortID(e.ID),
			Escape(Abbrev(e.Subject, SubjectMax)), author)
	}

	if page.Next != "" {
		fmt.Fprintf(b, "<tr>\n<td>&nbsp;</td>\n<td><a href=\"%s\">Next &raquo;</a></td>\n<td>&nbsp;</td>\n<td>&nbsp;</td>\n</tr>\n",
			href(repo.Name, "l", page.Next))
	}

	b.WriteString("</table>\n</div>\n")
}

// Tree renders a directory listing, a blob, or a not found notice.
func (r *Renderer) Tree(repo git.Repository, view git.TreeView) ([]byte, error) {
	var b bytes.Buffer
	r.header(&b, repo.Name, ViewTree)
	repoTitle(&b, repo, Escape(view.Path))
	if err := r.treeView(&b, repo, view); err != nil {
		return nil, err
	}
	footer(&b)
	return b.Bytes(), nil
}

func (r *Renderer) treeView(b *bytes.Buffer, repo git.Repository, view git.TreeView) error {
	switch {
	case view.Missing:
		b.WriteString("<p>Not found</p>\n")
	case view.Blob != nil:
		return r.blob(b, view.Blob)
	default:
		treeTable(b, repo, view)
	}
	return nil
}

func treeTable(b *bytes.Buffer, repo git.Repository, view git.TreeView) {
	b.WriteString("<div class=\"tree\">\n<table>\n<tr>\n<th>Name</th>\n<th>Size</th>\n</tr>\n")

	if !view.IsRoot() {
		parent := href(repo.Name, "t")
		if p := view.Parent(); p != "" {
			parent = href(repo.Name, "t", p)
		}
		fmt.Fprintf(b, "<tr>\n<td colspan=\"2\"><a href=\"%s\">..</a>/</td>\n</tr>\n", parent)
	}

	for _, e := range view.Entries {
		target := e.Name
		if !view.IsRoot() {
			target = view.Path + "/" + e.Name
		}

		decoration := ""
		size := "-"
		switch e.Kind {
		case git.KindTree:
			decoration = "/"
		case git.KindBlob:
			if e.Size > 0 {
				size = strconv.FormatInt(e.Size, 10)
			}
		}

		fmt.Fprintf(b, "<tr>\n<td><a href=\"%s\">%s</a>%s</td>\n<td class=\"r\">%s</td>\n</tr>\n",
			href(repo.Name, "t", target), Escape(e.Name), decoration, size)
	}

	b.WriteString("</table>\n</div>\n")
}

// blob writes a two column table of line anchors l1..lN and content.
func (r *Renderer) blob(b *bytes.Buffer, blob *git.Blob) error {
	if blob.Binary {
		b.WriteString("<p>Binary file</p>\n")
		return nil
	}

	content := Escape(string(blob.Content))
	if r.highlighter != nil {
		highlighted, ok, err := r.highlighter.highlight(blob.Name, blob.Content)
		if err != nil {
			return err
		}
		if ok {
			content = string(highlighted)
		}
	}

	b.WriteString("<table id=\"blob\">\n<tr>\n<td class=\"r\">\n<pre>\n")
	for n := 1; n <= lineCount(blob.Content); n++ {
		fmt.Fprintf(b, "<a href=\"#l%d\" id=\"l%d\">%d</a>\n", n, n, n)
	}
	b.WriteString("</pre>\n</td>\n<td>\n<pre>\n")
	b.WriteString(content)
	b.WriteString("</pre>\n</td>\n</tr>\n</table>\n")

	return nil
}

// lineCount counts lines, ignoring a newline that ends the content.
func lineCount(content []byte) int {
	if len(content) == 0 {
		return 1
	}
	return 1 + bytes.Count(content[:len(content)-1], []byte("\n"))
}

func refsTable(b *bytes.Buffer, repo git.Repository, refs []git.Ref) {
	b.WriteString("<table>\n<tr>\n<th>Name</th>\n<th>Id</th>\n<th>Type</th>\n</tr>\n")
	for _, ref := range refs {
		fmt.Fprintf(b, "<tr>\n<td>%s</td>\n<td><a href=\"%s\">%s</a></td>\n<td>%s</td>\n</tr>\n",
			Escape(ref.Name), href(repo.Name, "c", ref.Target), ShortID(ref.Target), ref.Kind)
	}
	b.WriteString("</table>\n")
}

// Commit renders a commit with its diff.
func (r *Renderer) Commit(repo git.Repository, detail git.CommitDetail) []byte {
	var b bytes.Buffer
	r.header(&b, repo.Name, ViewCommit)
	repoTitle(&b, repo, Escape(detail.ID))
	commitBody(&b, repo, detail)
	footer(&b)
	return b.Bytes()
}

func commitBody(b *bytes.Buffer, repo git.Repository, detail git.CommitDetail) {
	b.WriteString("<table>\n")
	signature(b, "Author", "Date", detail.Author)
	if detail.ShowCommitter() {
		signature(b, "Committer", "Commit date", detail.Committer)
	}
	if n := len(detail.Parents); n > 0 {
		label := "Parent"
		if n > 1 {
			label = "Parents"
		}
		fmt.Fprintf(b, "<tr>\n<td class=\"b\">%s</td>\n<td>", label)
		for _, parent := range detail.Parents {
			fmt.Fprintf(b, "<a href=\"%s\">%s</a> ", href(repo.Name, "c", parent), ShortID(parent))
		}
		b.WriteString("</td>\n</tr>\n")
	}
	b.WriteString("</table>\n")

	fmt.Fprintf(b, "<pre id=\"msg\">%s</pre>\n", Escape(detail.Message))

	b.WriteString("<div id=\"stats\">\n<table>\n")
	stats(b, detail.Diff)
	b.WriteString("</table>\n</div>\n")

	b.WriteString("<pre id=\"diff\">\n")
	diffLines(b, detail.Diff.Lines)
	b.WriteString("</pre>\n")
}

func signature(b *bytes.Buffer, who, when string, sig git.Signature) {
	fmt.Fprintf(b, "<tr>\n<td class=\"b\">%s</td>\n<td>%s</td>\n</tr>\n",
		who, Escape(sig.Name+" <"+sig.Email+">"))
	fmt.Fprintf(b, "<tr>\n<td class=\"b\">%s</td>\n<td>%s</td>\n</tr>\n",
		when, FormatSignatureTime(sig.When))
}

func stats(b *bytes.Buffer, diff git.Diff) {
	for i, f := range diff.Files {
		fmt.Fprintf(b, "<tr>\n<td><a href=\"#f%d\">%s</a>", i, Escape(f.OldPath))
		if f.Renamed() {
			fmt.Fprintf(b, " =&gt; %s", Escape(f.NewPath))
		}
		b.WriteString("</td>\n")

		if f.Binary {
			fmt.Fprintf(b, "<td colspan=\"2\">%d -&gt; %d bytes</td>\n", f.OldSize, f.NewSize)
		} else {
			fmt.Fprintf(b, "<td class=\"a r\">+%d</td>\n<td class=\"d r\">-%d</td>\n", f.Added, f.Deleted)
		}
		b.WriteString("</tr>\n")
	}

	if n := len(diff.Files); n > 1 {
		added, deleted := diff.Totals()
		fmt.Fprintf(b, "<tr>\n<td>%d files</td>\n<td class=\"a r\">+%d</td>\n<td class=\"d r\">-%d</td>\n</tr>\n",
			n, added, deleted)
	}
}

var lineClasses = map[git.LineClass]string{
	git.LineAddition:   "a",
	git.LineDeletion:   "d",
	git.LineFileHeader: "f",
	git.LineHunkHeader: "h",
}

func diffLines(b *bytes.Buffer, lines []git.DiffLine) {
	for _, line := range lines {
		class, ok := lineClasses[line.Class]
		switch {
		case !ok:
			b.WriteString(Escape(line.Text))
			b.WriteByte('\n')
		case line.Class == git.LineFileHeader:
			fmt.Fprintf(b, "<span class=\"%s\" id=\"f%d\">%s</span>\n", class, line.File, Escape(line.Text))
		default:
			fmt.Fprintf(b, "<span class=\"%s\">%s</span>\n", class, Escape(line.Text))
		}
	}
}
