/*
Package brief is a live previewer for conditional feedback templates.

A feedback author writes one markdown template whose wording branches on a set of
feedback properties (tone, structure, level of detail). Brief renders the template
against the current property values, parses the result into a markup tree, and
reports which pieces of content are new compared with the previous render so a
display can flash them.

# Concept

One render pass runs synchronously:

	properties → context → template engine → markdown → formatter → tree → reconciler → (tree, appeared)

The template dialect is a small Handlebars subset ({{#if}}, {{#unless}}, {{else}},
the eq and or predicates, partials). Branches that are not taken are never evaluated.
Property dependencies only decide whether a property may be edited; they never mask
the value the template sees.

Failures (malformed templates, unknown predicates or partials, invalid values) are
returned in the Result with a display text, and leave the remembered render untouched.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/brief"
	)

	func main() {
		// Reads ./workspace/feedback.md and ./workspace/partials/*.md
		previewer, err := brief.Open("./workspace")
		if err != nil {
			log.Fatal(err)
		}

		res, err := previewer.RenderStored(context.Background(), map[string]any{
			"moderated": false,
		})
		if err != nil {
			log.Fatal(err)
		}
		if res.Err != nil {
			fmt.Println(res.ErrorText)
			return
		}
		fmt.Println(res.Markup)
		for _, leaf := range res.Appeared {
			fmt.Println("new:", leaf.PlainText())
		}
	}
*/
package brief
