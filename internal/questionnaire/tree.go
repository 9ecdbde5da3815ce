package questionnaire

// NodeType classifies a node of the flow tree served by /api/questions
type NodeType string

// Node types produced by the backend flow parser
const (
	NodeRoot           NodeType = "root"
	NodePhase          NodeType = "phase"
	NodeQuestion       NodeType = "question"
	NodeOption         NodeType = "option"
	NodeRecommendation NodeType = "recommendation"
)

// Node is one element of the hierarchical phase → question → option tree
type Node struct {
	ID           string         `json:"id"`
	Text         string         `json:"text"`
	Type         NodeType       `json:"type,omitempty"`
	NodeType     NodeType       `json:"node_type,omitempty"`
	OriginalText string         `json:"original_text,omitempty"`
	Phase        *int           `json:"phase,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Children     []Node         `json:"children,omitempty"`
}

// Is reports whether the node has type t under either wire spelling
func (n Node) Is(t NodeType) bool {
	return n.Type == t || n.NodeType == t
}

func (n Node) isPhaseContainer() bool {
	return n.Is(NodePhase) || (n.Type == "" && n.NodeType == "")
}

// Flatten walks phase nodes in order and returns every question with its
// options, tagged with the enclosing phase title. Questions without a phase
// number get the position of their phase node (1-based) among the phase
// nodes. Untyped nodes count as phases; other typed nodes are skipped.
func Flatten(phases []Node) []Question {
	var list []Question
	ordinal := 0
	for _, phase := range phases {
		if !phase.isPhaseContainer() {
			continue
		}
		ordinal++
		for _, ch := range phase.Children {
			if !ch.Is(NodeQuestion) {
				continue
			}
			q := Question{
				ID:         ch.ID,
				Text:       ch.Text,
				PhaseTitle: phase.Text,
				Options:    []Option{},
			}
			switch {
			case ch.Phase != nil:
				q.Phase = *ch.Phase
			case phase.Phase != nil:
				q.Phase = *phase.Phase
			default:
				q.Phase = ordinal
			}
			if d, ok := ch.Metadata["description"].(string); ok && d != "" {
				q.Metadata = &QuestionMetadata{Description: d}
			}
			for _, o := range ch.Children {
				if !o.Is(NodeOption) {
					continue
				}
				label := o.OriginalText
				if label == "" {
					label = o.Text
				}
				if label == "" {
					label = o.ID
				}
				q.Options = append(q.Options, Option{ID: o.ID, Text: o.Text, Label: label})
			}
			list = append(list, q)
		}
	}
	return list
}

// PhaseNodes returns the phase children of a root node, or the slice itself
// when it already holds phase nodes.
func PhaseNodes(nodes []Node) []Node {
	if len(nodes) == 1 && nodes[0].Is(NodeRoot) {
		return nodes[0].Children
	}
	return nodes
}
