package extract

import (
	"reflect"
	"sort"
)

// Candidate is a raw decoded JSON object that plausibly represents a chat
// message. Many candidates are later rejected by the normalizer.
type Candidate map[string]any

// Messages walks an arbitrary decoded JSON tree (the result of unmarshalling
// into any) and collects candidate messages from every container shape the
// known export dialects use, plus a catch-all recursion for unknown ones.
// Candidates come back in discovery order. Each underlying object is
// collected at most once even when it is reachable through several container
// paths.
func Messages(root any) []Candidate {
	w := &walker{collected: make(map[uintptr]bool)}
	w.walk(root)
	return w.out
}

type walker struct {
	out       []Candidate
	collected map[uintptr]bool
}

func (w *walker) walk(v any) {
	switch node := v.(type) {
	case []any:
		for _, elem := range node {
			w.walk(elem)
		}
	case map[string]any:
		w.walkObject(node)
	}
}

func (w *walker) walkObject(node map[string]any) {
	// Tree-style exports: mapping is an object of keyed wrapper nodes, each
	// carrying the real message under "message".
	if mapping, ok := node["mapping"].(map[string]any); ok {
		for _, key := range sortedKeys(mapping) {
			if wrapper, ok := mapping[key].(map[string]any); ok {
				if msg, ok := wrapper["message"]; ok {
					w.collect(msg)
				}
			}
		}
	}

	// items entries either wrap a message or are containers themselves.
	if items, ok := node["items"].([]any); ok {
		for _, item := range items {
			if obj, ok := item.(map[string]any); ok {
				if msg, ok := obj["message"]; ok {
					w.collect(msg)
					continue
				}
			}
			w.walk(item)
		}
	}

	// messages entries are either wrappers or already-flat messages.
	if msgs, ok := node["messages"].([]any); ok {
		for _, entry := range msgs {
			if obj, ok := entry.(map[string]any); ok {
				if msg, ok := obj["message"]; ok {
					w.collect(msg)
					continue
				}
			}
			w.collect(entry)
		}
	}

	if convs, ok := node["conversations"].([]any); ok {
		for _, conv := range convs {
			w.walk(conv)
		}
	}

	// A wrapper node holding a single message.
	if msg, ok := node["message"]; ok {
		w.collect(msg)
	}

	// The node itself may be a message.
	w.collect(node)

	// Catch-all for unknown export shapes.
	for _, key := range sortedKeys(node) {
		switch node[key].(type) {
		case map[string]any, []any:
			w.walk(node[key])
		}
	}
}

// collect appends msg if it looks message-like and has not been collected
// through another path already. The test is deliberately permissive; the
// normalizer restores precision.
func (w *walker) collect(msg any) {
	obj, ok := msg.(map[string]any)
	if !ok {
		return
	}
	if !messageLike(obj) {
		return
	}
	ptr := reflect.ValueOf(obj).Pointer()
	if w.collected[ptr] {
		return
	}
	w.collected[ptr] = true
	w.out = append(w.out, Candidate(obj))
}

// messageLike reports whether obj has a string author.role, a string role,
// or any content field at all.
func messageLike(obj map[string]any) bool {
	if author, ok := obj["author"].(map[string]any); ok {
		if _, ok := author["role"].(string); ok {
			return true
		}
	}
	if _, ok := obj["role"].(string); ok {
		return true
	}
	if _, ok := obj["content"]; ok {
		return true
	}
	return false
}

// sortedKeys keeps the walk deterministic; Go map iteration order is not.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
