package workflow

import (
	"log/slog"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// graph is the id-addressed traversal index built once per run from the
// authoring format. Connection maps are written against node names; the
// walker routes on stable node IDs, so names are translated exactly once
// here. When names are duplicated the last definition wins.
type graph struct {
	nodes map[string]*models.Node

	// adjacency maps a source node ID to its branch groups, each group an
	// ordered list of target node IDs.
	adjacency map[string][][]string
}

func buildGraph(wf *models.Workflow, logger *slog.Logger) *graph {
	byName := make(map[string]*models.Node, len(wf.Nodes))
	byID := make(map[string]*models.Node, len(wf.Nodes))

	for _, node := range wf.Nodes {
		byName[node.Name] = node
		byID[node.ID] = node
	}

	adjacency := make(map[string][][]string, len(wf.Connections))

	for sourceName, groups := range wf.Connections {
		source, ok := byName[sourceName]
		if !ok {
			logger.Warn("connection source does not exist, skipping its branches",
				"workflow_id", wf.ID, "source", sourceName)

			continue
		}

		translated := make([][]string, 0, len(groups))

		for _, group := range groups {
			targets := make([]string, 0, len(group))

			for _, connection := range group {
				target, ok := byName[connection.Node]
				if !ok {
					// Dangling targets are a lookup miss, not a validation
					// error: log and walk past them.
					logger.Warn("connection target does not exist, skipping",
						"workflow_id", wf.ID, "source", sourceName, "target", connection.Node)

					continue
				}

				targets = append(targets, target.ID)
			}

			if len(targets) > 0 {
				translated = append(translated, targets)
			}
		}

		if len(translated) > 0 {
			adjacency[source.ID] = translated
		}
	}

	return &graph{nodes: byID, adjacency: adjacency}
}
