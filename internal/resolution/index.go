package resolution

import (
	"sort"

	"declgen/internal/metadata"
)

// Entry is one indexed declaration together with its derived names.
type Entry struct {
	QualifiedName string
	Namespace     string
	Declaration   metadata.Declaration
}

func (entry Entry) LocalName() string {
	return entry.Declaration.LocalName()
}

// Index maps qualified names to declarations. It is read-only once built and
// may be shared between concurrent generation runs.
type Index struct {
	entries map[string]Entry
}

// Build indexes every interface and alias of the given forests. Later
// declarations with an already indexed qualified name replace earlier ones.
func Build(forests ...*metadata.Forest) *Index {
	index := &Index{entries: make(map[string]Entry)}
	for _, forest := range forests {
		if forest == nil {
			continue
		}
		index.collect(forest.Nodes, "")
	}
	return index
}

func (index *Index) collect(nodes []metadata.Node, namespace string) {
	for _, node := range nodes {
		switch n := node.(type) {
		case *metadata.Module:
			index.collect(n.Body, qualify(namespace, n.Name))
		case metadata.Declaration:
			if n.LocalName() == "" {
				continue
			}
			qualifiedName := qualify(namespace, n.LocalName())
			index.entries[qualifiedName] = Entry{
				QualifiedName: qualifiedName,
				Namespace:     namespace,
				Declaration:   n,
			}
		}
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	if name == "" {
		return namespace
	}
	return namespace + "." + name
}

// Lookup returns the declaration for a qualified name. Unknown names are not
// an error.
func (index *Index) Lookup(qualifiedName string) (Entry, bool) {
	entry, found := index.entries[qualifiedName]
	return entry, found
}

func (index *Index) Len() int {
	return len(index.entries)
}

// Names returns all qualified names in sorted order.
func (index *Index) Names() []string {
	names := make([]string, 0, len(index.entries))
	for name := range index.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Qualify resolves a name as written inside scope the way nested namespaces
// are searched: innermost namespace first, then each enclosing one, then the
// global scope. The name is returned unchanged when nothing matches.
func (index *Index) Qualify(name, scope string) (string, bool) {
	for {
		candidate := qualify(scope, name)
		if _, found := index.entries[candidate]; found {
			return candidate, true
		}
		if scope == "" {
			return name, false
		}
		scope = parentNamespace(scope)
	}
}

func parentNamespace(namespace string) string {
	for i := len(namespace) - 1; i >= 0; i-- {
		if namespace[i] == '.' {
			return namespace[:i]
		}
	}
	return ""
}

// SplitQualifiedName splits "A.B.C" into namespace "A.B" and local name "C".
func SplitQualifiedName(qualifiedName string) (namespace, localName string) {
	namespace = parentNamespace(qualifiedName)
	if namespace == "" {
		return "", qualifiedName
	}
	return namespace, qualifiedName[len(namespace)+1:]
}
