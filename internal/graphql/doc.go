// Package graphql executes GraphQL operations against the Human schema.
//
// Documents are parsed and validated with gqlparser. Resolution is hand
// written: the schema is small and fixed, so each root field maps straight
// onto a human.Repository call or the event bus.
//
// Queries and mutations run through Executor.Execute and produce a single
// Result. Subscriptions run through Executor.Subscribe, which attaches an
// event bus handle before returning and then yields one Result per published
// human until the stream is closed or the bus shuts down.
//
// Supported document features: aliases, named and inline fragments, the
// @skip and @include directives, variables and __typename. Introspection
// (__schema, __type) is rejected with an INTROSPECTION_DISABLED error.
package graphql
