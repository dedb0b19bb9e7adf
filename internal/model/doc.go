// Package model defines the typed artifacts exchanged between pipeline
// stages: the project manifest, processed and enriched photo sets, the
// content plan, and the page plan.
//
// Every artifact type carries a Validate method that is applied at the stage
// boundary, so a stage consuming an upstream artifact fails fast with a
// descriptive error instead of deep inside its own logic.
package model
