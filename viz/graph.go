// ABOUTME: Graphviz rendering of the deal pipeline
// ABOUTME: Clients link to their deals and leads; deal nodes are colored by stage
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/models"
)

var stageColors = map[models.DealStage]string{
	models.DealQualification: "lightyellow",
	models.DealProposal:      "khaki",
	models.DealNegotiation:   "orange",
	models.DealWon:           "palegreen",
	models.DealLost:          "lightgray",
}

// GeneratePipelineGraph renders leads and deals grouped by client as DOT.
func GeneratePipelineGraph(ctx context.Context, leads []models.Lead, deals []models.Deal) (string, error) {
	log := logging.For("viz")

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			log.WithError(err).Warn("Error closing graphviz")
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			log.WithError(err).Warn("Error closing graph")
		}
	}()

	graph.SetLabel("Deal Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	clients := make(map[string]*cgraph.Node)
	clientNode := func(name string) (*cgraph.Node, error) {
		key := strings.ToLower(strings.TrimSpace(name))
		if n, ok := clients[key]; ok {
			return n, nil
		}
		n, err := graph.CreateNodeByName("client_" + key)
		if err != nil {
			return nil, fmt.Errorf("failed to create client node: %w", err)
		}
		n.SetLabel(name)
		n.SetShape("box")
		n.SetStyle("filled")
		n.SetFillColor("lightblue")
		clients[key] = n
		return n, nil
	}

	for _, deal := range deals {
		node, err := graph.CreateNodeByName("deal_" + deal.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create deal node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%s\n(%s)", deal.Title, formatAmount(deal.Amount), deal.Stage))
		node.SetShape("diamond")
		node.SetStyle("filled")
		if color, ok := stageColors[deal.Stage]; ok {
			node.SetFillColor(color)
		}

		if deal.Client == "" {
			continue
		}
		client, err := clientNode(deal.Client)
		if err != nil {
			return "", err
		}
		edge, err := graph.CreateEdgeByName("deal_with", client, node)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(string(deal.Stage))
	}

	for _, lead := range leads {
		node, err := graph.CreateNodeByName("lead_" + lead.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create lead node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(%s)", lead.Name, lead.Status))
		node.SetShape("ellipse")
		node.SetStyle("filled")
		node.SetFillColor("lightgreen")

		if lead.Company == "" {
			continue
		}
		client, err := clientNode(lead.Company)
		if err != nil {
			return "", err
		}
		edge, err := graph.CreateEdgeByName("lead_at", node, client)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetStyle("dashed")
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
