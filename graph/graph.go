package graph

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

type Field struct {
	Name, Value string
}

type Child struct {
	Name string
	Node *Node
}

type Node struct {
	Name     string
	Fields   []Field
	Children []Child
}

func NewNode(name string) *Node {
	return &Node{
		Name: name,
	}
}

func (n *Node) AddField(name, value string) {
	n.Fields = append(n.Fields, Field{
		Name:  name,
		Value: value,
	})
}

func (n *Node) AddChild(name string, node *Node) {
	n.Children = append(n.Children, Child{
		Name: name,
		Node: node,
	})
}

type Visualizer interface {
	Visualize() *Node
}

// Show renders the tree as a left-to-right graph of record-shaped nodes.
func Show(node *Node) (*gographviz.Graph, error) {
	graph := gographviz.NewGraph()
	graph.Directed = true
	if err := graph.AddAttr("", "rankdir", "LR"); err != nil {
		return nil, errors.Wrap(err, "couldn't set graph direction")
	}
	builder := &graphBuilder{
		graph:        graph,
		nameCounters: make(map[string]int),
	}

	if _, err := getGraphNode(builder, node); err != nil {
		return nil, err
	}

	return graph, nil
}

type graphBuilder struct {
	graph        *gographviz.Graph
	nameCounters map[string]int
}

func (gb *graphBuilder) getID(name string) string {
	count := gb.nameCounters[name]
	gb.nameCounters[name]++
	return fmt.Sprintf("node_%s_%d", identifierReplacer.Replace(name), count)
}

var identifierReplacer = strings.NewReplacer(
	" ", "_", "-", "_", "+", "plus", "*", "times", "/", "div", "<", "lt", ">", "gt", "=", "eq", "'", "", ".", "_", "{", "", "}", "", ",", "", ":", "", "[", "", "]", "", "|", "", "\"", "", "!", "not", "%", "",
)

// Record labels treat these as structure.
var labelReplacer = strings.NewReplacer(
	"{", "\\{", "}", "\\}", "|", "\\|", "<", "\\<", ">", "\\>", "\"", "\\\"",
)

func portName(name string) string {
	return identifierReplacer.Replace(name)
}

func getGraphNode(gb *graphBuilder, node *Node) (string, error) {
	fields := make([]string, len(node.Fields))
	for i, field := range node.Fields {
		fields[i] = fmt.Sprintf("<%s> %s: %s", portName(field.Name), labelReplacer.Replace(field.Name), labelReplacer.Replace(field.Value))
	}
	childPorts := make([]string, len(node.Children))
	for i, child := range node.Children {
		childPorts[i] = fmt.Sprintf("<%s> %s", portName(child.Name), labelReplacer.Replace(child.Name))
	}

	var labelParts []string
	labelParts = append(labelParts, fmt.Sprintf("<f0> %s", labelReplacer.Replace(node.Name)))

	if len(fields) > 0 {
		labelParts = append(labelParts, strings.Join(fields, "|"))
	}
	if len(childPorts) > 0 {
		labelParts = append(labelParts, strings.Join(childPorts, "|"))
	}

	label := fmt.Sprintf(
		"\"{{%s}}\"",
		strings.Join(labelParts, "}|{"),
	)

	id := gb.getID(node.Name)
	if err := gb.graph.AddNode("", id, map[string]string{
		"shape": "record",
		"label": label,
	}); err != nil {
		return "", errors.Wrapf(err, "couldn't add node %s", id)
	}

	for _, child := range node.Children {
		childGraphNode, err := getGraphNode(gb, child.Node)
		if err != nil {
			return "", err
		}
		if err := gb.graph.AddPortEdge(id, portName(child.Name), childGraphNode, "", true, map[string]string{}); err != nil {
			return "", errors.Wrapf(err, "couldn't add edge from %s to %s", id, childGraphNode)
		}
	}
	return id, nil
}
