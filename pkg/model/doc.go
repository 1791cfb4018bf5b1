// Package model defines the static field descriptors and the transient form
// state shared by every intake variant. A FieldSpec is immutable and declared
// once per form; FormState is owned by a single form instance and mutated on
// every field change. Raw input always flows through ParseFieldValue so the
// stored value of a numeric field is a parsed number or the empty
// placeholder, and the stored value of a categorical field is one of its
// declared option codes.
package model
