// Package normalize holds the pure, stateless field canonicalizers shared by
// every ingestion and matching component: phone digits, free-text name
// splitting, and ambiguity-aware date parsing.
package normalize
