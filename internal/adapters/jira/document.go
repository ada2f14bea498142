package jira

// Document is an Atlassian Document Format value. Only the subset needed for
// plain-text worklog comments is modelled.
type Document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

// Node is a block or inline ADF node.
type Node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content []Node `json:"content,omitempty"`
}

// CommentDocument wraps text in a single paragraph. An empty comment yields a
// document with an empty (not absent) content list, which Jira reads as
// "no comment".
func CommentDocument(text string) Document {
	doc := Document{Type: "doc", Version: 1, Content: []Node{}}
	if text == "" {
		return doc
	}
	doc.Content = append(doc.Content, Node{
		Type:    "paragraph",
		Content: []Node{{Type: "text", Text: text}},
	})
	return doc
}
