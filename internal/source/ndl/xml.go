package ndl

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// XML名前空間
const (
	nsSRW     = "http://www.loc.gov/zing/srw/"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsDCTerms = "http://purl.org/dc/terms/"
	nsDCNDL   = "http://ndl.go.jp/dcndl/terms/"
	nsFOAF    = "http://xmlns.com/foaf/0.1/"
	nsRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// node はパース済みXML要素。
// 名前空間を解決したタグ名、属性、直下のテキスト、子要素を保持する。
type node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string
	Children []*node
}

// parseXML はXML文書を要素ツリーに変換し、ルート要素を返す。
func parseXML(data []byte) (*node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var root *node
	var stack []*node
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			n := &node{Name: t.Name, Attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("ルート要素が複数あります")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("XML要素がありません")
	}
	return root, nil
}

// is はタグ名が一致するかを返す。spaceが空の場合はローカル名のみで比較する。
func (n *node) is(space, local string) bool {
	return n.Name.Local == local && (space == "" || n.Name.Space == space)
}

// walk は自身と子孫要素を文書順に訪問する。fnがfalseを返すと打ち切る。
func (n *node) walk(fn func(*node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// find は文書順で最初に一致する子孫要素を返す。
func (n *node) find(space, local string) *node {
	var found *node
	n.walk(func(c *node) bool {
		if c.is(space, local) {
			found = c
			return false
		}
		return true
	})
	return found
}

// findAll は一致するすべての子孫要素を文書順に返す。
func (n *node) findAll(space, local string) []*node {
	var found []*node
	n.walk(func(c *node) bool {
		if c.is(space, local) {
			found = append(found, c)
		}
		return true
	})
	return found
}

// value は要素のテキストを返す。
// 直下のテキストが空の場合（foaf:Agent や rdf:Description で包まれている場合）は、
// 最初に空でないテキストを持つ子孫要素のテキストを返す。
func (n *node) value() string {
	if text := strings.TrimSpace(n.Text); text != "" {
		return text
	}
	for _, c := range n.Children {
		if v := c.value(); v != "" {
			return v
		}
	}
	return ""
}

// attr は属性値を返す。
func (n *node) attr(space, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local && (space == "" || a.Name.Space == space) {
			return a.Value
		}
	}
	return ""
}
