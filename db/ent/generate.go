package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

// Generates typed ent clients for the documents and analyses tables. The
// repositories build SQL with ent's dialect builders, so the generated code
// is optional tooling output.
func main() {
	err := entc.Generate(
		"./db/ent/schema",
		&gen.Config{
			Target:  "gen/ent",
			Package: "github.com/joseph-ayodele/document-analyzer/gen/ent",
			Schema:  "github.com/joseph-ayodele/document-analyzer/db/ent/schema",
			Features: []gen.Feature{
				gen.FeatureUpsert,
			},
		},
	)
	if err != nil {
		log.Fatal(err)
	}
}
