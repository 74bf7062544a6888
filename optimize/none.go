package optimize

// None is an optimizer which computes initial value and exits.
type None struct {
	BaseOptimizer
}

// NewNone creates an optimizer which computes initial likelihood only.
func NewNone() *None {
	return &None{}
}

// Run computes the likelihood at the current point.
func (n *None) Run(iterations int) {
	n.PrintHeader(n.parameters)
	n.l = n.evaluate(n.Optimizable, n.parameters)
	n.PrintLine(n.parameters, n.l)
}

// Summary returns the description of the last run.
func (n *None) Summary() Summary {
	return n.summary("none")
}
