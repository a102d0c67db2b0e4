// Package testutil runs lifecycle components inside tests.
//
//	func TestRepository(t *testing.T) {
//	    db := dbtest.NewComponent()
//	    testutil.T(t).Setup(db)
//	    ...
//	}
//
// A TestComponent is a component.Component that can also Reset itself to
// an empty state between cases. Manager starts, resets and stops several
// of them together.
package testutil
