package environment

import (
	"convoke/internal/require"
)

// Node is one machine within an Environment. It exists only once its parent
// environment is deployed and is destroyed with it.
type Node struct {
	// Index is the node's position in the environment. Requirement node
	// order maps 1:1 onto node indexes.
	Index int

	// Capability holds the final, exact capability the platform deployed.
	Capability require.NodeCapability

	// Connection carries opaque connection details owned by the platform
	// adapter (address, credentials reference). The core never interprets
	// it.
	Connection map[string]string

	features []string
}

func newNode(index int, capability require.NodeCapability) *Node {
	return &Node{
		Index:      index,
		Capability: capability.Clone(),
	}
}

// AttachFeature adds a capability tag (such as serial-console support) to
// the node. Attaching an already present tag is a no-op.
func (n *Node) AttachFeature(name string) {
	for _, f := range n.features {
		if f == name {
			return
		}
	}
	n.features = append(n.features, name)
}

// HasFeature reports whether the node carries the given tag.
func (n *Node) HasFeature(name string) bool {
	for _, f := range n.features {
		if f == name {
			return true
		}
	}
	return false
}

// Features returns the attached tags in attachment order.
func (n *Node) Features() []string {
	out := make([]string, len(n.features))
	copy(out, n.features)
	return out
}
