// Package builder synthesizes builders for record descriptions.
//
// Synthesize turns a schema.Record into four artifacts: a Declaration holding
// one optional slot per field, a Factory returning empty builders, one Setter
// per field and a Finalizer that checks every slot was supplied before
// materializing the record. The artifacts are computed once per record and
// drive any number of Builder instances.
//
//	syn, err := builder.Synthesize(record)
//	if err != nil {
//		return err // schema.ErrUnsupportedShape for tuples, enums, unions
//	}
//	cmd, err := syn.Builder().
//		Set("executable", "run").
//		Set("current_dir", "/tmp").
//		Set("env", []string{}).
//		Set("args", []string{}).
//		Build()
//
// Build is fail-fast: it reports the first unset field in declaration order
// as a *FieldNotSetError and leaves the builder untouched so callers can
// supply the missing value and retry. Missing lists every unset field when a
// complete report is preferred.
//
// For Go structs, For[T] derives the description from the type itself and
// Typed[T].Build returns a populated T. Builders are plain values and are not
// safe for concurrent use.
package builder
