package analytics

import "strings"

// ScopeKind discriminates the click population an analytics query covers.
type ScopeKind int

const (
	// ScopeAccount covers every link owned by one account.
	ScopeAccount ScopeKind = iota
	// ScopeTopic covers every link sharing one topic label.
	ScopeTopic
	// ScopeAlias covers a single link.
	ScopeAlias
)

// Scope selects the click population for an aggregation. Exactly one of
// AccountID, Topic or Alias is meaningful depending on Kind.
type Scope struct {
	Kind      ScopeKind
	AccountID uint
	Topic     string
	Alias     string
}

// AccountScope selects all links owned by the given account.
func AccountScope(accountID uint) Scope {
	return Scope{Kind: ScopeAccount, AccountID: accountID}
}

// TopicScope selects all links labelled with the given topic. Topics are
// stored lower-cased, so the selector is normalised the same way.
func TopicScope(topic string) Scope {
	return Scope{Kind: ScopeTopic, Topic: strings.ToLower(topic)}
}

// AliasScope selects a single link by its short code.
func AliasScope(alias string) Scope {
	return Scope{Kind: ScopeAlias, Alias: alias}
}
