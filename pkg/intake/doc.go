// Package intake implements the intake flow independent of any UI: a
// Selector that offers the two roles, a Shell that tracks which form is
// showing, and a Form that owns field state and the submission lifecycle.
// Renderers (HTML, terminal) read state from these types and feed user
// events back into them.
package intake
