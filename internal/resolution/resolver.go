package resolution

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"declgen/internal/metadata"
)

// ErrUnexpectedNode is returned when a node of the wrong kind shows up in a
// member or type position.
var ErrUnexpectedNode = errors.New("unexpected declaration node")

var primitiveKeywords = map[string]PrimitiveKind{
	"string":  String,
	"number":  Number,
	"bigint":  Number,
	"boolean": Boolean,
	"void":    Void,
	"any":     Any,
	"unknown": Any,
	"object":  Any,
	"never":   Any,
	"symbol":  Any,
}

// References collects the qualified names discovered while resolving. The
// resolver only reports them; deciding what gets generated is up to the
// caller.
type References []string

func (refs *References) add(name string) {
	if refs != nil {
		*refs = append(*refs, name)
	}
}

type Resolver struct {
	index          *Index
	keepUnresolved bool
	logger         *zap.SugaredLogger
}

type ResolverOption func(*Resolver)

// WithKeepUnresolved keeps references to undeclared names as references
// instead of turning them into opaque handles.
func WithKeepUnresolved(keep bool) ResolverOption {
	return func(r *Resolver) {
		r.keepUnresolved = keep
	}
}

func WithLogger(logger *zap.SugaredLogger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(index *Index, opts ...ResolverOption) *Resolver {
	resolver := &Resolver{
		index:  index,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// ResolveMember describes one member node of a declaration living in scope.
// It returns false for members that produce no descriptor: nameless call,
// construct and index signatures, and properties without a type.
func (r *Resolver) ResolveMember(node metadata.Node, scope string, refs *References) (MemberDescriptor, bool, error) {
	switch member := node.(type) {
	case *metadata.Property:
		if member.Name == "" || member.Type == nil {
			return MemberDescriptor{}, false, nil
		}
		descriptor, err := r.ResolveType(member.Type, scope, refs)
		if err != nil {
			return MemberDescriptor{}, false, errors.Wrapf(err, "property %s", member.Name)
		}
		if member.Optional {
			descriptor = nullable(descriptor)
		}
		return MemberDescriptor{
			Name:       member.Name,
			Type:       descriptor,
			IsReadonly: member.Readonly,
		}, true, nil

	case *metadata.Method:
		if member.Name == "" {
			return MemberDescriptor{}, false, nil
		}
		var descriptor TypeDescriptor = Primitive{Kind: Void}
		if member.Returns != nil {
			var err error
			descriptor, err = r.ResolveType(member.Returns, scope, refs)
			if err != nil {
				return MemberDescriptor{}, false, errors.Wrapf(err, "method %s", member.Name)
			}
		}
		return MemberDescriptor{
			Name:     member.Name,
			Type:     descriptor,
			IsMethod: true,
		}, true, nil
	}

	if node == nil {
		return MemberDescriptor{}, false, errors.Wrap(ErrUnexpectedNode, "nil member")
	}
	return MemberDescriptor{}, false, errors.Wrapf(ErrUnexpectedNode, "%s in member list", node.Kind())
}

// ResolveType converts one type expression into a descriptor. Shapes that
// cannot be mapped fall back to an opaque handle.
func (r *Resolver) ResolveType(node metadata.TypeNode, scope string, refs *References) (TypeDescriptor, error) {
	depth := 0
	for {
		array, ok := node.(*metadata.ArrayType)
		if !ok {
			break
		}
		depth++
		node = array.Element
	}

	descriptor, err := r.resolveElement(node, scope, refs)
	if err != nil {
		return nil, err
	}
	if depth > 0 {
		return Array{Inner: descriptor, Depth: depth}, nil
	}
	return descriptor, nil
}

func (r *Resolver) resolveElement(node metadata.TypeNode, scope string, refs *References) (TypeDescriptor, error) {
	switch t := node.(type) {
	case nil:
		return Primitive{Kind: Any}, nil

	case *metadata.Primitive:
		if kind, found := primitiveKeywords[t.Keyword]; found {
			return Primitive{Kind: kind}, nil
		}
		r.logger.Debugw("Unresolvable primitive, using opaque handle", "keyword", t.Keyword, "scope", scope)
		return Primitive{Kind: Any}, nil

	case *metadata.ReferenceType:
		return r.resolveReference(t, scope, refs), nil

	case *metadata.UnionType:
		return r.resolveUnion(t, scope, refs)

	case *metadata.OpaqueType:
		r.logger.Debugw("Unresolvable type shape, using opaque handle", "type", t.Text, "scope", scope)
		return Primitive{Kind: Any}, nil

	case *metadata.ArrayType:
		// reached only through ResolveType's unwrapping, kept for exhaustiveness
		return r.ResolveType(t, scope, refs)
	}

	return nil, errors.Wrapf(ErrUnexpectedNode, "%s in type position", node.Kind())
}

func (r *Resolver) resolveReference(reference *metadata.ReferenceType, scope string, refs *References) TypeDescriptor {
	if len(reference.Arguments) > 0 {
		r.logger.Debugw("Generic reference, using opaque handle", "type", reference.Name, "scope", scope)
		return Primitive{Kind: Any}
	}

	qualifiedName, found := r.index.Qualify(reference.Name, scope)
	if !found && !r.keepUnresolved {
		r.logger.Infow("Reference to undeclared type, using opaque handle", "type", reference.Name, "scope", scope)
		return Primitive{Kind: Any}
	}

	refs.add(qualifiedName)
	return Reference{QualifiedName: qualifiedName}
}

func (r *Resolver) resolveUnion(union *metadata.UnionType, scope string, refs *References) (TypeDescriptor, error) {
	hasNull := false
	arms := make([]TypeDescriptor, 0, len(union.Arms))
	seen := make(map[string]bool)

	for _, arm := range union.Arms {
		if primitive, ok := arm.(*metadata.Primitive); ok && (primitive.Keyword == "null" || primitive.Keyword == "undefined") {
			hasNull = true
			continue
		}
		descriptor, err := r.ResolveType(arm, scope, refs)
		if err != nil {
			return nil, err
		}
		if seen[descriptor.String()] {
			continue
		}
		seen[descriptor.String()] = true
		arms = append(arms, descriptor)
	}

	var descriptor TypeDescriptor
	switch len(arms) {
	case 0:
		descriptor = Primitive{Kind: Any}
	case 1:
		descriptor = arms[0]
	default:
		descriptor = Reference{QualifiedName: syntheticName(arms), Synthetic: true}
	}

	if hasNull {
		return nullable(descriptor), nil
	}
	return descriptor, nil
}

// BaseTypeNames qualifies the base types of a declaration. Bases that do not
// resolve keep the name as written.
func (r *Resolver) BaseTypeNames(declaration metadata.Declaration, scope string) []string {
	names := make([]string, 0, len(declaration.BaseTypes()))
	for _, base := range declaration.BaseTypes() {
		if base == nil || base.Name == "" {
			continue
		}
		qualifiedName, _ := r.index.Qualify(base.Name, scope)
		names = append(names, qualifiedName)
	}
	return names
}
