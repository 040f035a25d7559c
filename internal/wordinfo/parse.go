package wordinfo

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// The dictionary site marks its blocks with stable CSS classes. These are
// the markers the parser keys on.
const (
	classWordHeading  = "rCntr rClear"
	classRedirectLink = "rKnpf rNoSelect rKnUnt rKnObn"
	classInfoCard     = "rBox rBoxWht"
	classInfoLine     = "rInf"
	classExampleList  = "rLst rLstGt"
)

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && attrVal(n, "class") == class {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func findByTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByAttr(n *html.Node, tag, key, val string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && attrVal(n, key) == val {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAttr(c, tag, key, val); found != nil {
			return found
		}
	}
	return nil
}

func findAllByTag(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

// nodeText extracts the raw text content, preserving newlines between
// elements the way the site renders inflection headings.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	for i := 1; i < len(r); i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// parseHeading extracts the normalized word from the page heading. A heading
// split across lines is a noun with its article on the second line; they are
// joined as "<article> <word>". When no heading exists the redirect link (if
// any) points at the base form of an inflected input.
func parseHeading(doc *html.Node) (word string, redirectURL string, ok bool) {
	heading := findByClass(doc, "div", classWordHeading)
	if heading != nil {
		text := strings.TrimSpace(nodeText(heading))
		if strings.Contains(text, "\n") {
			parts := strings.SplitN(text, "\n", 2)
			noun := strings.ReplaceAll(strings.TrimSpace(parts[0]), ",", "")
			article := strings.TrimSpace(parts[1])
			return article + " " + noun, "", true
		}
		return text, "", true
	}
	if link := findByClass(doc, "a", classRedirectLink); link != nil {
		return "", attrVal(link, "href"), false
	}
	return "", "", false
}

// parseLevelAndType reads the CEFR level and part-of-speech markers from the
// info card. A missing type marker defaults to "Verb", which is how the site
// lays out plain verb pages.
func parseLevelAndType(doc *html.Node) (level, wordType string, ok bool) {
	card := findByClass(doc, "section", classInfoCard)
	if card == nil {
		return "", "", false
	}
	info := findByClass(card, "p", classInfoLine)
	if info != nil {
		spans := findAllByTag(info, "span")
		if len(spans) > 0 {
			level = strings.TrimSpace(nodeText(spans[0]))
			if len(spans) > 1 {
				wordType = capitalize(strings.TrimSpace(nodeText(spans[1])))
			} else {
				wordType = "Verb"
			}
			return level, wordType, true
		}
	}
	alt := findByClass(card, "span", classInfoLine)
	if alt == nil {
		return "", "", false
	}
	spans := findAllByTag(alt, "span")
	if len(spans) < 2 {
		return "", "", false
	}
	level = strings.TrimSpace(nodeText(spans[0]))
	wordType = capitalize(strings.TrimSpace(nodeText(spans[1])))
	return level, wordType, true
}

// parseTranslation reads the English gloss.
func parseTranslation(doc *html.Node) string {
	dd := findByAttr(doc, "dd", "lang", "en")
	if dd == nil {
		return ""
	}
	spans := findAllByTag(dd, "span")
	if len(spans) < 2 {
		return ""
	}
	return strings.TrimSpace(nodeText(spans[1]))
}

// parseExamples collects every candidate example pair. Sentence and
// translation are separated by a non-breaking space in the list items.
func parseExamples(doc *html.Node) []ExamplePair {
	list := findByClass(doc, "ul", classExampleList)
	if list == nil {
		return nil
	}
	var pairs []ExamplePair
	for _, li := range findAllByTag(list, "li") {
		text := nodeText(li)
		parts := strings.Split(text, " ")
		example := cleanExampleText(parts[0])
		translation := ""
		if len(parts) > 1 {
			translation = cleanExampleText(parts[len(parts)-1])
		}
		if example == "" && translation == "" {
			continue
		}
		pairs = append(pairs, ExamplePair{Example: example, Translation: translation})
	}
	return pairs
}

func cleanExampleText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// parseSuggestions reads a search/suggestion listing: list items carrying a
// link (the word) plus level and type spans.
func parseSuggestions(doc *html.Node) []Suggestion {
	var out []Suggestion
	for _, li := range findAllByTag(doc, "li") {
		link := findByTag(li, "a")
		if link == nil {
			continue
		}
		s := Suggestion{
			Word: strings.TrimSpace(nodeText(link)),
			URL:  attrVal(link, "href"),
		}
		if s.Word == "" {
			continue
		}
		spans := findAllByTag(li, "span")
		if len(spans) > 0 {
			s.Level = strings.TrimSpace(nodeText(spans[0]))
		}
		if len(spans) > 1 {
			s.WordType = capitalize(strings.TrimSpace(nodeText(spans[1])))
		}
		out = append(out, s)
	}
	return out
}
