package rules

import "fmt"

// ToDNF rewrites a condition list (implicitly conjoined) into disjunctive
// normal form. Each returned variant is a flat sequence of leaf conditions
// (type, negation, test, accumulator); boolean composition is eliminated.
//
// The rewrite:
//  1. pushes NotCondition inward across and/or via De Morgan, stopping at
//     leaves (a negated type condition becomes a NegationCondition, a
//     negated negation unwraps, a negated test wraps its predicate)
//  2. flattens nested conjunctions
//  3. distributes and over or
//  4. unwraps single-child composites
//
// A rule whose LHS contains no or-composition yields exactly one variant.
func ToDNF(lhs []Condition) ([][]Condition, error) {
	root, err := pushNot(&AndCondition{Children: lhs})
	if err != nil {
		return nil, err
	}

	variants := distribute(root)

	out := make([][]Condition, 0, len(variants))
	for _, v := range variants {
		flat, err := flattenVariant(v)
		if err != nil {
			return nil, err
		}
		out = append(out, flat)
	}
	return out, nil
}

// pushNot drives every NotCondition down to a leaf.
func pushNot(c Condition) (Condition, error) {
	switch cond := c.(type) {
	case *AndCondition:
		children, err := pushNotAll(cond.Children)
		if err != nil {
			return nil, err
		}
		return &AndCondition{Children: children}, nil

	case *OrCondition:
		children, err := pushNotAll(cond.Children)
		if err != nil {
			return nil, err
		}
		return &OrCondition{Children: children}, nil

	case *NotCondition:
		return negate(cond.Child)

	default:
		return c, nil
	}
}

func pushNotAll(cs []Condition) ([]Condition, error) {
	out := make([]Condition, 0, len(cs))
	for _, c := range cs {
		pushed, err := pushNot(c)
		if err != nil {
			return nil, err
		}
		out = append(out, pushed)
	}
	return out, nil
}

// negate applies a logical not to a (possibly composite) condition.
func negate(c Condition) (Condition, error) {
	switch cond := c.(type) {
	case *AndCondition:
		// De Morgan: not(a and b) == (not a) or (not b)
		children := make([]Condition, 0, len(cond.Children))
		for _, child := range cond.Children {
			negated, err := negate(child)
			if err != nil {
				return nil, err
			}
			children = append(children, negated)
		}
		return &OrCondition{Children: children}, nil

	case *OrCondition:
		// De Morgan: not(a or b) == (not a) and (not b)
		children := make([]Condition, 0, len(cond.Children))
		for _, child := range cond.Children {
			negated, err := negate(child)
			if err != nil {
				return nil, err
			}
			children = append(children, negated)
		}
		return &AndCondition{Children: children}, nil

	case *NotCondition:
		return pushNot(cond.Child)

	case *TypeCondition:
		return &NegationCondition{Inner: cond}, nil

	case *NegationCondition:
		return cond.Inner, nil

	case *TestCondition:
		pred := cond.Pred
		return &TestCondition{
			Uses: cond.Uses,
			Pred: func(b Bindings) bool { return !pred(b) },
		}, nil

	case *AccumulateCondition:
		return nil, fmt.Errorf("cannot negate an accumulator condition")

	default:
		return nil, fmt.Errorf("cannot negate condition of type %T", c)
	}
}

// distribute expands a not-free tree into its disjuncts. Each returned
// condition is or-free (a leaf or a conjunction of or-free conditions).
func distribute(c Condition) []Condition {
	switch cond := c.(type) {
	case *OrCondition:
		var out []Condition
		for _, child := range cond.Children {
			out = append(out, distribute(child)...)
		}
		return out

	case *AndCondition:
		// Cartesian product of each child's disjuncts.
		variants := [][]Condition{{}}
		for _, child := range cond.Children {
			childVariants := distribute(child)
			next := make([][]Condition, 0, len(variants)*len(childVariants))
			for _, v := range variants {
				for _, cv := range childVariants {
					combined := make([]Condition, 0, len(v)+1)
					combined = append(combined, v...)
					combined = append(combined, cv)
					next = append(next, combined)
				}
			}
			variants = next
		}

		out := make([]Condition, 0, len(variants))
		for _, v := range variants {
			out = append(out, &AndCondition{Children: v})
		}
		return out

	default:
		return []Condition{c}
	}
}

// flattenVariant unwraps one or-free disjunct into a flat leaf sequence,
// collapsing nested conjunctions and single-child composites.
func flattenVariant(c Condition) ([]Condition, error) {
	switch cond := c.(type) {
	case *AndCondition:
		var out []Condition
		for _, child := range cond.Children {
			flat, err := flattenVariant(child)
			if err != nil {
				return nil, err
			}
			out = append(out, flat...)
		}
		return out, nil

	case *OrCondition:
		if len(cond.Children) == 1 {
			return flattenVariant(cond.Children[0])
		}
		return nil, fmt.Errorf("or-condition survived distribution: %d children", len(cond.Children))

	case *TypeCondition, *NegationCondition, *TestCondition, *AccumulateCondition:
		return []Condition{cond}, nil

	default:
		return nil, fmt.Errorf("unexpected condition type %T after normalization", c)
	}
}
