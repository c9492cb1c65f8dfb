package lm

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// gobTrieNode mirrors trieNode with exported fields so gob can encode
// it; trieNode itself stays unexported since nothing outside this
// package should touch trie internals directly.
type gobTrieNode struct {
	LogProb  float64
	Backoff  float64
	Children map[string]*gobTrieNode
}

func toGob(n *trieNode) *gobTrieNode {
	g := &gobTrieNode{LogProb: n.logProb, Backoff: n.backoff, Children: make(map[string]*gobTrieNode, len(n.children))}
	for tok, child := range n.children {
		g.Children[tok] = toGob(child)
	}
	return g
}

func fromGob(g *gobTrieNode) *trieNode {
	n := &trieNode{logProb: g.LogProb, backoff: g.Backoff, children: make(map[string]*trieNode, len(g.Children))}
	for tok, child := range g.Children {
		n.children[tok] = fromGob(child)
	}
	return n
}

// SaveTrie serializes trie to path. The on-disk encoding is an
// implementation detail; the only contract is that LoadTrie reverses
// it.
func SaveTrie(path string, trie *Trie) error {
	var buf bytes.Buffer
	payload := struct {
		Order int
		Root  *gobTrieNode
	}{Order: trie.order, Root: toGob(trie.root)}
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encoding trie: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadTrie deserializes a Trie previously written by SaveTrie.
func LoadTrie(path string) (*Trie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trie file: %w", err)
	}
	var payload struct {
		Order int
		Root  *gobTrieNode
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding trie: %w", err)
	}
	return &Trie{order: payload.Order, root: fromGob(payload.Root)}, nil
}
