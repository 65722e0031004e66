// Package alignment implements the soft judgment gate that runs after the
// hard constraint check. It re-checks constraints, enforces founder approval
// for configured actions, consults a pluggable value scorer and finally
// looks at historical risk before allowing a request.
package alignment
