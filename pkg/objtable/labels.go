package objtable

import (
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

// ParseLabels converts "k1=v1,k2=v2" into a label set. An empty string
// yields an empty set.
func ParseLabels(s string) (labels.Set, error) {
	if s == "" {
		return labels.Set{}, nil
	}
	return labels.ConvertSelectorToLabelsMap(s)
}

// ParseSelector parses a label selector expression. An empty string
// selects everything.
func ParseSelector(s string) (labels.Selector, error) {
	if s == "" {
		return labels.Everything(), nil
	}
	return labels.Parse(s)
}

// SelectorFromSet builds an equality selector for every key in l.
func SelectorFromSet(l map[string]string) (labels.Selector, error) {
	fullselector := labels.NewSelector()
	for k, v := range l {
		req, err := labels.NewRequirement(k, selection.Equals, []string{v})
		if err != nil {
			return nil, err
		}
		fullselector = fullselector.Add(*req)
	}
	return fullselector, nil
}
