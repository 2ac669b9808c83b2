package types

import (
	"fmt"
	"strings"
)

// AccessPathKind distinguishes the state-query path forms.
type AccessPathKind string

const (
	AccessPathObject   AccessPathKind = "object"
	AccessPathResource AccessPathKind = "resource"
)

// AccessPath is a parsed state-query path.
//
//	/object/<id>[,<id>...]
//	/resource/<account>/<struct type>[,<struct type>...]
type AccessPath struct {
	Kind      AccessPathKind
	ObjectIDs []Address // object paths
	Account   Address   // resource paths
	Resources []string  // resource paths
}

// ParseAccessPath validates and parses an access path string.
func ParseAccessPath(s string) (AccessPath, error) {
	if !strings.HasPrefix(s, "/") {
		return AccessPath{}, fmt.Errorf("access path %q must start with '/'", s)
	}
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")

	switch AccessPathKind(parts[0]) {
	case AccessPathObject:
		if len(parts) != 2 || parts[1] == "" {
			return AccessPath{}, fmt.Errorf("access path %q: expected /object/<id>", s)
		}
		var ids []Address
		for _, raw := range strings.Split(parts[1], ",") {
			id, err := ParseAddress(strings.TrimSpace(raw))
			if err != nil {
				return AccessPath{}, fmt.Errorf("access path %q: object id %q: %w", s, raw, err)
			}
			ids = append(ids, id)
		}
		return AccessPath{Kind: AccessPathObject, ObjectIDs: ids}, nil

	case AccessPathResource:
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return AccessPath{}, fmt.Errorf("access path %q: expected /resource/<account>/<type>", s)
		}
		account, err := ParseAddress(parts[1])
		if err != nil {
			return AccessPath{}, fmt.Errorf("access path %q: account: %w", s, err)
		}
		var resources []string
		for _, raw := range strings.Split(parts[2], ",") {
			raw = strings.TrimSpace(raw)
			if strings.Count(raw, "::") < 2 {
				return AccessPath{}, fmt.Errorf("access path %q: %q is not a struct type", s, raw)
			}
			resources = append(resources, raw)
		}
		return AccessPath{Kind: AccessPathResource, Account: account, Resources: resources}, nil

	default:
		return AccessPath{}, fmt.Errorf("access path %q: unknown kind %q", s, parts[0])
	}
}

// String renders the path in canonical form (full-width hex ids).
func (p AccessPath) String() string {
	switch p.Kind {
	case AccessPathObject:
		ids := make([]string, len(p.ObjectIDs))
		for i, id := range p.ObjectIDs {
			ids[i] = id.String()
		}
		return "/object/" + strings.Join(ids, ",")
	case AccessPathResource:
		return "/resource/" + p.Account.String() + "/" + strings.Join(p.Resources, ",")
	default:
		return ""
	}
}
