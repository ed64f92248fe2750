package graphql

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// SDL is the schema served at the GraphQL endpoint.
const SDL = `
schema {
  query: Query
  mutation: Mutation
  subscription: Subscription
}

"A film of the original trilogy."
enum Episode {
  NEW_HOPE
  EMPIRE
  JEDI
}

"A humanoid creature in the Star Wars universe."
type Human {
  id: ID!
  name: String!
  appearsIn: [Episode!]!
  homePlanet: String!
}

"A humanoid creature in the Star Wars universe."
input NewHuman {
  name: String!
  appearsIn: [Episode!]!
  homePlanet: String!
}

type Query {
  apiVersion: String!
  human(id: ID!): Human
}

type Mutation {
  createHuman(newHuman: NewHuman!): Human!
}

type Subscription {
  humanCreated: Human!
}
`

// Schema is the parsed SDL.
var Schema = gqlparser.MustLoadSchema(&ast.Source{Name: "holocron.graphql", Input: SDL})
