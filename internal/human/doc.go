// Package human holds the Human entity served by the GraphQL API and the
// repositories that produce it.
//
// Two repositories are provided. StubRepository answers every lookup with a
// fixed record and assigns a fixed id on insert; it keeps no state and is the
// default. SQLiteRepository stores humans in the migrated humans table and
// assigns UUIDs.
//
// A Human is also the domain event published on the event bus after a
// successful createHuman mutation. It is cloned for each subscriber so no two
// readers share the AppearsIn slice.
package human
