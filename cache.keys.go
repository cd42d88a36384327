package main

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Cache key kinds.
const (
	KindBooks   = "books"
	KindBook    = "book"
	KindMembers = "members"
	KindMember  = "member"
)

// canonicalJSON encodes struct fields in declaration order and map keys
// sorted, so equal values always produce the same bytes.
var canonicalJSON = jsoniter.Config{
	SortMapKeys:            true,
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// BuildKey joins the kind and the parts with underscores.
func BuildKey(kind string, parts ...string) string {
	if len(parts) == 0 {
		return kind
	}
	return kind + "_" + strings.Join(parts, "_")
}

// BookListKey derives the cache key of a books listing. Queries are
// normalized first so equivalent requests share the same entry.
func BookListKey(query BookQuery) (string, error) {
	b, err := canonicalJSON.Marshal(query.Normalize())
	if err != nil {
		return "", err
	}
	return BuildKey(KindBooks, string(b)), nil
}

// BookKey derives the cache key of a single book.
func BookKey(id int64) string {
	return BuildKey(KindBook, strconv.FormatInt(id, 10))
}

// MemberListKey derives the cache key of a members listing.
func MemberListKey(query MemberQuery) (string, error) {
	b, err := canonicalJSON.Marshal(query.Normalize())
	if err != nil {
		return "", err
	}
	return BuildKey(KindMembers, string(b)), nil
}

// MemberKey derives the cache key of a single member.
func MemberKey(id int64) string {
	return BuildKey(KindMember, strconv.FormatInt(id, 10))
}
