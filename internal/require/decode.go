package require

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"convoke/internal/search"
)

// UnmarshalYAML decodes a dimension map from a run document. Each dimension
// accepts several shapes:
//
//	core_count: 4                      # exact value
//	memory_mb: {min: 2048}             # lower-bounded range
//	core_count: {min: 2, max: 8}       # inclusive range
//	nic_count: {count: 2}              # lower-bounded count
//	features: [serial_console]         # allow-superset set (feature flags)
//	features: {values: [a, b], allowSuperset: false}
//	disk_type: any                     # explicit any sentinel
func (r *NodeRequirement) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := decodeDimensionMap(value)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// UnmarshalYAML decodes a capability the same way requirements decode;
// platforms declared in fixtures and tests reuse the dimension shapes.
func (c *NodeCapability) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := decodeDimensionMap(value)
	if err != nil {
		return err
	}
	*c = NodeCapability(decoded)
	return nil
}

func decodeDimensionMap(value *yaml.Node) (NodeRequirement, error) {
	if value.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("dimension map must be a mapping, got %s", value.Tag)
	}
	result := NodeRequirement{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		dim := value.Content[i].Value
		space, err := decodeSpace(value.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", dim, err)
		}
		result[dim] = space
	}
	return result, nil
}

func decodeSpace(node *yaml.Node) (search.Space, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "any" {
			return search.Any{}, nil
		}
		n, err := strconv.Atoi(node.Value)
		if err != nil {
			return nil, fmt.Errorf("scalar dimension must be an integer or \"any\", got %q", node.Value)
		}
		return search.Exactly(n), nil

	case yaml.SequenceNode:
		// A bare list reads as a feature-flag set: the capability must
		// offer at least these values.
		var values []string
		if err := node.Decode(&values); err != nil {
			return nil, err
		}
		return search.NewSetSpace(true, values...), nil

	case yaml.MappingNode:
		fields := map[string]*yaml.Node{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			fields[node.Content[i].Value] = node.Content[i+1]
		}

		if valuesNode, ok := fields["values"]; ok {
			var values []string
			if err := valuesNode.Decode(&values); err != nil {
				return nil, err
			}
			allowSuperset := true
			if flag, ok := fields["allowSuperset"]; ok {
				if err := flag.Decode(&allowSuperset); err != nil {
					return nil, err
				}
			}
			return search.NewSetSpace(allowSuperset, values...), nil
		}

		if countNode, ok := fields["count"]; ok {
			var count int
			if err := countNode.Decode(&count); err != nil {
				return nil, err
			}
			return search.AtLeastCount(count), nil
		}

		if minNode, ok := fields["min"]; ok {
			var min int
			if err := minNode.Decode(&min); err != nil {
				return nil, err
			}
			max := search.Unbounded
			if maxNode, ok := fields["max"]; ok {
				if err := maxNode.Decode(&max); err != nil {
					return nil, err
				}
			}
			if min > max {
				return nil, fmt.Errorf("min %d greater than max %d", min, max)
			}
			return search.IntRange{Min: min, Max: max}, nil
		}

		return nil, fmt.Errorf("dimension mapping needs values, count or min")

	default:
		return nil, fmt.Errorf("unsupported dimension node kind %d", node.Kind)
	}
}
